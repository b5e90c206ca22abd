package config

import (
	"time"

	"userapi/pkg/db/redis"
)

// RedisConfig представляет конфигурацию кэша списка пользователей.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" env:"USERS_REDIS_ENABLED" env-default:"false"`
	Host     string        `yaml:"host" env:"USERS_REDIS_HOST" env-default:"redis"`
	Port     int           `yaml:"port" env:"USERS_REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"password" env:"USERS_REDIS_PASSWORD" env-default:""`
	DB       int           `yaml:"db" env:"USERS_REDIS_DB" env-default:"0"`
	PoolSize int           `yaml:"pool_size" env:"USERS_REDIS_POOL_SIZE" env-default:"10"`
	Timeout  time.Duration `yaml:"timeout" env:"USERS_REDIS_TIMEOUT" env-default:"5s"`
	TTL      time.Duration `yaml:"ttl" env:"USERS_REDIS_TTL" env-default:"1m"`

	BreakerThreshold int           `yaml:"breaker_threshold" env:"USERS_REDIS_BREAKER_THRESHOLD" env-default:"5"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout" env:"USERS_REDIS_BREAKER_TIMEOUT" env-default:"10s"`
}

// ToClientConfig переводит настройки в конфигурацию клиента Redis.
func (c *RedisConfig) ToClientConfig() *redis.Config {
	return &redis.Config{
		Host:     c.Host,
		Port:     c.Port,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
		Timeout:  c.Timeout,
	}
}
