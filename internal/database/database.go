package database

import (
	"context"
	"fmt"
	"time"

	"auction-site/internal/config"
	"auction-site/utils"

	redis "github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds the MySQL connection string. Times are read and written as UTC.
func DSN(c config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.DBName)
}

// LogLevel maps the configured level onto gorm's logger
func LogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// OpenMySQL connects to MySQL and applies the pool settings
func OpenMySQL(c config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(LogLevel(c.LogLevel)),
		TranslateError: true,
	}
	db, err := gorm.Open(mysql.Open(DSN(c)), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(c.MinPoolSize)
	sqlDB.SetMaxOpenConns(c.MaxPoolSize)
	sqlDB.SetConnMaxLifetime(time.Hour)

	utils.Info("connected to mysql", map[string]any{"host": c.Host, "port": c.Port, "database": c.DBName})
	return db, nil
}

// ConnectRedis pings Redis with exponential backoff, giving up after maxRetries attempts
func ConnectRedis(ctx context.Context, c config.RedisConfig, maxRetries int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: c.Addr, DB: c.DB})
	if maxRetries < 1 {
		maxRetries = 1
	}

	var err error
	for i := 0; i < maxRetries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()

		if err == nil {
			utils.Info("connected to redis", map[string]any{"addr": c.Addr})
			return rdb, nil
		}
		if i == maxRetries-1 {
			break
		}

		backoff := time.Duration(1<<i) * time.Second
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
		utils.Warn("redis not ready, retrying", map[string]any{"backoff": backoff.String(), "attempt": i + 1, "max": maxRetries})
		select {
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	_ = rdb.Close()
	return nil, fmt.Errorf("failed to connect to redis at %s after %d attempts: %w", c.Addr, maxRetries, err)
}
