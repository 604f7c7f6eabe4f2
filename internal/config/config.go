package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"auction-site/utils"

	"github.com/joho/godotenv"
)

// Duration reads either a Go duration string ("15s") or integer nanoseconds from JSON
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

type ServerConfig struct {
	Address      string   `json:"address"`
	ReadTimeout  Duration `json:"readTimeout"`
	WriteTimeout Duration `json:"writeTimeout"`
	LogLevel     string   `json:"logLevel"`
}

// DatabaseConfig selects the store. Driver "memory" keeps everything in process, "mysql" uses gorm.
type DatabaseConfig struct {
	Driver      string `json:"driver"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	DBName      string `json:"dbname"`
	MinPoolSize int    `json:"minPoolSize"`
	MaxPoolSize int    `json:"maxPoolSize"`
	LogLevel    string `json:"logLevel"`
	Seed        bool   `json:"seed"`
}

// RedisConfig enables the auction cache when Addr is set
type RedisConfig struct {
	Addr string   `json:"addr"`
	DB   int      `json:"db"`
	TTL  Duration `json:"ttl"`
}

// AMQPConfig enables domain event publishing when URL is set
type AMQPConfig struct {
	URL      string `json:"url"`
	Exchange string `json:"exchange"`
}

type JWTConfig struct {
	Secret         string   `json:"secret"`
	Issuer         string   `json:"issuer"`
	ExpireDuration Duration `json:"expireDuration"`
}

type CORSConfig struct {
	AllowOrigins     []string `json:"allowOrigins"`
	AllowMethods     []string `json:"allowMethods"`
	AllowHeaders     []string `json:"allowHeaders"`
	ExposeHeaders    []string `json:"exposeHeaders"`
	AllowCredentials bool     `json:"allowCredentials"`
	MaxAge           Duration `json:"maxAge"`
}

type ImageConfig struct {
	Directory string `json:"directory"`
	MaxBytes  int64  `json:"maxBytes"`
}

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	AMQP     AMQPConfig     `json:"amqp"`
	JWT      JWTConfig      `json:"jwt"`
	CORS     CORSConfig     `json:"cors"`
	Images   ImageConfig    `json:"images"`
	Env      string         `json:"env"`
}

// Default returns the development configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":4941",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{15 * time.Second},
			LogLevel:     "info",
		},
		Database: DatabaseConfig{
			Driver:      "memory",
			Host:        "localhost",
			Port:        3306,
			Username:    "root",
			Password:    "root",
			DBName:      "auctions",
			MinPoolSize: 5,
			MaxPoolSize: 50,
			LogLevel:    "warn",
		},
		Redis: RedisConfig{
			TTL: Duration{10 * time.Minute},
		},
		AMQP: AMQPConfig{
			Exchange: "auction.events",
		},
		JWT: JWTConfig{
			Secret:         "dev-secret-change-me-in-production",
			Issuer:         "auction-site",
			ExpireDuration: Duration{24 * time.Hour},
		},
		CORS: CORSConfig{
			AllowOrigins:     []string{"http://localhost:3000", "http://localhost:8080"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "X-Authorization"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-Message"},
			AllowCredentials: true,
			MaxAge:           Duration{12 * time.Hour},
		},
		Images: ImageConfig{
			Directory: "./storage/images",
			MaxBytes:  10 << 20,
		},
		Env: "development",
	}
}

// IsProd reports whether the server runs in production mode
func (c *Config) IsProd() bool {
	return c.Env == "production"
}

// Load builds the configuration. Precedence: environment (including .env) > config file > defaults.
func Load() (*Config, error) {
	cfg := Default()

	if path := getConfigPath(); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil {
		utils.Debug("no .env file found, using process environment", nil)
	}
	loadFromEnv(cfg)

	if cfg.IsProd() && cfg.JWT.Secret == Default().JWT.Secret {
		return nil, fmt.Errorf("config: JWT_SECRET must be set in production")
	}
	if cfg.IsProd() && cfg.Database.Seed {
		return nil, fmt.Errorf("config: seeding wipes the database and cannot be enabled in production")
	}
	return cfg, nil
}

func getConfigPath() string {
	if path := os.Getenv("APP_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat("./config.json"); err == nil {
		return "./config.json"
	}
	return ""
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func loadFromEnv(cfg *Config) {
	setString(&cfg.Server.Address, "SERVER_ADDR")
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Address = ":" + v
	}
	setString(&cfg.Server.LogLevel, "LOG_LEVEL")
	setDuration(&cfg.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	setString(&cfg.Env, "APP_ENV")

	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.Username, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_NAME")
	setInt(&cfg.Database.MinPoolSize, "DB_MIN_POOL")
	setInt(&cfg.Database.MaxPoolSize, "DB_MAX_POOL")
	if v := os.Getenv("DB_LOG_LEVEL"); v != "" {
		cfg.Database.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("DB_SEED"); v != "" {
		cfg.Database.Seed = parseBool(v)
	}

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setDuration(&cfg.Redis.TTL, "REDIS_TTL")

	setString(&cfg.AMQP.URL, "AMQP_URL")
	setString(&cfg.AMQP.Exchange, "AMQP_EXCHANGE")

	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.JWT.Issuer, "JWT_ISSUER")
	setDuration(&cfg.JWT.ExpireDuration, "JWT_EXPIRATION")

	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		cfg.CORS.AllowOrigins = splitEnvList(v)
	}

	setString(&cfg.Images.Directory, "IMAGE_DIR")
	if v := os.Getenv("IMAGE_MAX_BYTES"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Images.MaxBytes = size
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.Warn("ignoring invalid integer env var", map[string]any{"key": key, "value": v})
		return
	}
	*dst = n
}

func setDuration(dst *Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.Warn("ignoring invalid duration env var", map[string]any{"key": key, "value": v})
		return
	}
	dst.Duration = d
}

// splitEnvList splits a comma separated env value, dropping blanks
func splitEnvList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(value string) bool {
	value = strings.ToLower(value)
	return value == "true" || value == "1" || value == "yes"
}
