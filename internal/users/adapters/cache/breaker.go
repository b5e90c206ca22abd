package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"userapi/internal/users/ports/cache"
	"userapi/pkg/logger"
)

// BreakerState - состояние предохранителя кэша.
type BreakerState int

// Состояния предохранителя.
const (
	// BreakerClosed - кэш используется.
	BreakerClosed BreakerState = iota
	// BreakerOpen - кэш пропускается до истечения OpenTimeout.
	BreakerOpen
	// BreakerHalfOpen - пробные обращения после паузы.
	BreakerHalfOpen
)

// Константы для логирования.
const (
	LogBreakerTripped = "users cache disabled after repeated failures"
	LogBreakerProbing = "users cache probing after cool-down"
	LogBreakerReset   = "users cache re-enabled"
)

// ErrCacheUnavailable возвращается, пока предохранитель разомкнут.
var ErrCacheUnavailable = errors.New("cache temporarily disabled")

// BreakerConfig задает пороги предохранителя.
type BreakerConfig struct {
	// FailureThreshold - число подряд идущих ошибок до размыкания.
	FailureThreshold int
	// OpenTimeout - пауза перед пробными обращениями.
	OpenTimeout time.Duration
	// SuccessThreshold - число успешных проб для замыкания.
	SuccessThreshold int
}

// DefaultBreakerConfig возвращает конфигурацию предохранителя по умолчанию.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      10 * time.Second,
		SuccessThreshold: 2,
	}
}

// BreakerCache оборачивает cache.Cache и перестает обращаться к нему после
// серии ошибок, чтобы недоступный Redis не добавлял задержку к каждому запросу.
// Delete и Incr выполняются всегда: пропущенная инвалидация оставила бы устаревший список.
type BreakerCache struct {
	next   cache.Cache
	config BreakerConfig
	now    func() time.Time

	mu        sync.Mutex
	state     BreakerState
	failures  int
	successes int
	openedAt  time.Time
}

// NewBreakerCache создает предохранитель вокруг next.
func NewBreakerCache(next cache.Cache, config BreakerConfig) *BreakerCache {
	defaults := DefaultBreakerConfig()
	if config.FailureThreshold < 1 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = defaults.OpenTimeout
	}
	if config.SuccessThreshold < 1 {
		config.SuccessThreshold = defaults.SuccessThreshold
	}

	return &BreakerCache{
		next:   next,
		config: config,
		now:    time.Now,
	}
}

// Get читает значение, если предохранитель замкнут.
func (b *BreakerCache) Get(ctx context.Context, key string) (string, error) {
	if !b.allow(ctx) {
		return "", ErrCacheUnavailable
	}

	value, err := b.next.Get(ctx, key)
	b.record(ctx, err)
	return value, err
}

// Set записывает значение, если предохранитель замкнут.
func (b *BreakerCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !b.allow(ctx) {
		return ErrCacheUnavailable
	}

	err := b.next.Set(ctx, key, value, ttl)
	b.record(ctx, err)
	return err
}

// Delete удаляет ключ независимо от состояния предохранителя.
func (b *BreakerCache) Delete(ctx context.Context, key string) error {
	err := b.next.Delete(ctx, key)
	b.record(ctx, err)
	return err
}

// Incr увеличивает счетчик независимо от состояния предохранителя.
func (b *BreakerCache) Incr(ctx context.Context, key string) (int64, error) {
	value, err := b.next.Incr(ctx, key)
	b.record(ctx, err)
	return value, err
}

// SetIfUnchanged выполняет условную запись, если предохранитель замкнут.
func (b *BreakerCache) SetIfUnchanged(ctx context.Context, guardKey string, version int64, key, value string, ttl time.Duration) (bool, error) {
	if !b.allow(ctx) {
		return false, ErrCacheUnavailable
	}

	stored, err := b.next.SetIfUnchanged(ctx, guardKey, version, key, value, ttl)
	b.record(ctx, err)
	return stored, err
}

// Close закрывает обернутый кэш.
func (b *BreakerCache) Close() error {
	return b.next.Close()
}

// State возвращает текущее состояние.
func (b *BreakerCache) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *BreakerCache) allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != BreakerOpen {
		return true
	}
	if b.now().Sub(b.openedAt) < b.config.OpenTimeout {
		return false
	}

	b.state = BreakerHalfOpen
	b.successes = 0
	logger.Log(ctx).Info(ctx, LogBreakerProbing)
	return true
}

func (b *BreakerCache) record(ctx context.Context, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		if b.state == BreakerHalfOpen || (b.state == BreakerClosed && b.failures >= b.config.FailureThreshold) {
			logger.Log(ctx).Warn(ctx, LogBreakerTripped,
				zap.Int("failures", b.failures),
				zap.Duration("open_timeout", b.config.OpenTimeout),
				zap.Error(err))
			b.state = BreakerOpen
			b.openedAt = b.now()
		}
		return
	}

	switch b.state {
	case BreakerClosed:
		b.failures = 0
	case BreakerHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			logger.Log(ctx).Info(ctx, LogBreakerReset)
			b.state = BreakerClosed
			b.failures = 0
			b.successes = 0
		}
	}
}
