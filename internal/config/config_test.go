package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_CONFIG", "")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Database.Driver)
	require.False(t, cfg.IsProd())
	require.False(t, cfg.Database.Seed)
	require.Equal(t, 24*time.Hour, cfg.JWT.ExpireDuration.Duration)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"address":":9000"},"database":{"driver":"mysql","dbname":"fromfile"}}`), 0o600))

	t.Setenv("APP_CONFIG", path)
	t.Setenv("DB_NAME", "fromenv")
	t.Setenv("REDIS_TTL", "30s")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("DB_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Server.Address)
	require.Equal(t, "mysql", cfg.Database.Driver)
	require.Equal(t, "fromenv", cfg.Database.DBName)
	require.Equal(t, 3306, cfg.Database.Port)
	require.Equal(t, 30*time.Second, cfg.Redis.TTL.Duration)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowOrigins)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_CONFIG", "")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.IsProd())
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))
	t.Setenv("APP_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ProductionRejectsSeeding(t *testing.T) {
	seeded := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(seeded, []byte(`{"database":{"driver":"mysql","seed":true}}`), 0o600))

	tests := []struct {
		name    string
		file    string
		seedEnv string
		wantErr bool
	}{
		{name: "default_is_off", wantErr: false},
		{name: "env_enables_seed", seedEnv: "true", wantErr: true},
		{name: "file_enables_seed", file: seeded, wantErr: true},
		{name: "env_overrides_file", file: seeded, seedEnv: "false", wantErr: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("APP_CONFIG", tc.file)
			t.Setenv("APP_ENV", "production")
			t.Setenv("DB_DRIVER", "mysql")
			t.Setenv("JWT_SECRET", "a-real-secret")
			t.Setenv("DB_SEED", tc.seedEnv)

			cfg, err := Load()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, cfg.IsProd())
			require.False(t, cfg.Database.Seed)
		})
	}
}

func TestLoad_DevelopmentSeedOptIn(t *testing.T) {
	t.Setenv("APP_CONFIG", "")
	t.Setenv("DB_SEED", "yes")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.Database.Seed)
}

func TestLoad_FileDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"server":{"readTimeout":"20s","writeTimeout":5000000000},"redis":{"ttl":"2m"},"jwt":{"expireDuration":"1h30m"}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("APP_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 20*time.Second, cfg.Server.ReadTimeout.Duration)
	require.Equal(t, 5*time.Second, cfg.Server.WriteTimeout.Duration)
	require.Equal(t, 2*time.Minute, cfg.Redis.TTL.Duration)
	require.Equal(t, 90*time.Minute, cfg.JWT.ExpireDuration.Duration)
	require.Equal(t, 12*time.Hour, cfg.CORS.MaxAge.Duration)
}

func TestDuration_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"redis":{"ttl":"soon"}}`), 0o600))
	t.Setenv("APP_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
}
