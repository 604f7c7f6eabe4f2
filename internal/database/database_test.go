package database

import (
	"context"
	"testing"

	"auction-site/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestDSN(t *testing.T) {
	c := config.Default().Database
	c.Host = "db.internal"
	c.Port = 3307
	c.Username = "auctions"
	c.Password = "s3cret"
	c.DBName = "market"

	require.Equal(t,
		"auctions:s3cret@tcp(db.internal:3307)/market?charset=utf8mb4&parseTime=True&loc=UTC",
		DSN(c))
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  logger.LogLevel
	}{
		{level: "silent", want: logger.Silent},
		{level: "error", want: logger.Error},
		{level: "warn", want: logger.Warn},
		{level: "info", want: logger.Info},
		{level: "", want: logger.Warn},
		{level: "verbose", want: logger.Warn},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, LogLevel(tc.level), tc.level)
	}
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := ConnectRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()}, 3)
	require.NoError(t, err)
	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
	require.NoError(t, rdb.Close())
}

func TestConnectRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := ConnectRedis(context.Background(), config.RedisConfig{Addr: addr}, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), addr)
}
