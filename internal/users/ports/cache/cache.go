// Package cache описывает порт кэша.
package cache

import (
	"context"
	"time"
)

// Cache - строковое key/value хранилище с TTL.
// Get возвращает пустую строку без ошибки, если ключ отсутствует.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Incr атомарно увеличивает счетчик key и возвращает новое значение.
	Incr(ctx context.Context, key string) (int64, error)
	// SetIfUnchanged записывает value, только если счетчик guardKey все еще
	// равен version (отсутствующий счетчик считается нулем). Возвращает false,
	// если счетчик изменился.
	SetIfUnchanged(ctx context.Context, guardKey string, version int64, key, value string, ttl time.Duration) (bool, error)
	Close() error
}
