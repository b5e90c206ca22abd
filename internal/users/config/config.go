// Package config содержит конфигурацию сервиса пользователей.
package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	pkgconfig "userapi/pkg/config"
	"userapi/pkg/logger"
)

// Константы ошибок и сообщений для конфигурации.
const (
	ServiceName = "users"
	EnvFile     = ".env"

	LogConfigLoaded     = "users service configuration"
	ErrFailedLoadConfig = "failed to load users service configuration"
)

// Config представляет полную конфигурацию приложения.
type Config struct {
	Postgres  PostgresConfig  `yaml:"postgres"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
	Shutdown  ShutdownConfig  `yaml:"shutdown"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Load загружает конфигурацию из файла .env (если он есть) и переменных окружения.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, EnvFile)
}

// LoadFrom загружает конфигурацию, используя указанный env-файл.
func LoadFrom(ctx context.Context, envPath string) (*Config, error) {
	cfg, err := pkgconfig.Load[Config](ctx, ServiceName, envPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	logger.Log(ctx).Info(ctx, LogConfigLoaded,
		zap.String("postgres_dsn", cfg.Postgres.RedactedURL()),
		zap.Int("postgres_min_conn", cfg.Postgres.MinConn),
		zap.Int("postgres_max_conn", cfg.Postgres.MaxConn),
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_mode", cfg.Logging.Mode),
		zap.Int("shutdown_timeout_seconds", cfg.Shutdown.Timeout),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Float64("rate_limit_rps", cfg.RateLimit.RPS))

	return cfg, nil
}
