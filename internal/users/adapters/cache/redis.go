// Package cache содержит реализацию кэширования с использованием Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"userapi/internal/users/ports/cache"
	"userapi/pkg/logger"
)

// Константы для логирования.
const (
	LogMethodGet    = "get"
	LogMethodSet    = "set"
	LogMethodDelete = "delete"
	LogMethodIncr   = "incr"
	LogMethodCAS    = "set_if_unchanged"

	ErrorFailedToGet    = "failed to get value from redis"
	ErrorFailedToSet    = "failed to set value in redis"
	ErrorFailedToDelete = "failed to delete value from redis"
	ErrorFailedToIncr   = "failed to increment counter in redis"
	ErrorFailedToCAS    = "failed to conditionally set value in redis"
	ErrorFailedToClose  = "failed to close redis connection"
)

// RedisCache реализует cache.Cache поверх go-redis.
type RedisCache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewRedisCache оборачивает готовый клиент. ttl применяется, когда Set
// вызывается с нулевым TTL.
func NewRedisCache(client *redis.Client, defaultTTL time.Duration) cache.Cache {
	return &RedisCache{
		client:     client,
		defaultTTL: defaultTTL,
	}
}

// Get получает значение по ключу.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		logger.Log(ctx).Error(ctx, ErrorFailedToGet,
			zap.String("method", LogMethodGet), zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("%s: %w", ErrorFailedToGet, err)
	}

	return value, nil
}

// Set сохраняет значение с временем жизни.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Log(ctx).Error(ctx, ErrorFailedToSet,
			zap.String("method", LogMethodSet), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToSet, err)
	}

	return nil
}

// Delete удаляет значение по ключу.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logger.Log(ctx).Error(ctx, ErrorFailedToDelete,
			zap.String("method", LogMethodDelete), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToDelete, err)
	}

	return nil
}

// Incr увеличивает счетчик.
func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	value, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		logger.Log(ctx).Error(ctx, ErrorFailedToIncr,
			zap.String("method", LogMethodIncr), zap.String("key", key), zap.Error(err))
		return 0, fmt.Errorf("%s: %w", ErrorFailedToIncr, err)
	}

	return value, nil
}

// SetIfUnchanged записывает значение под WATCH счетчика guardKey. Если счетчик
// изменился до EXEC, транзакция отменяется и возвращается false.
func (c *RedisCache) SetIfUnchanged(ctx context.Context, guardKey string, version int64, key, value string, ttl time.Duration) (bool, error) {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	stored := false
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, guardKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, ttl)
			return nil
		})
		if err != nil {
			return err
		}
		stored = true
		return nil
	}, guardKey)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return false, nil
	case err != nil:
		logger.Log(ctx).Error(ctx, ErrorFailedToCAS,
			zap.String("method", LogMethodCAS), zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("%s: %w", ErrorFailedToCAS, err)
	}

	return stored, nil
}

// Close закрывает соединение с Redis.
func (c *RedisCache) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToClose, err)
	}
	return nil
}
