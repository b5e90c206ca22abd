package middleware

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"userapi/pkg/logger"
)

// RateLimiterConfig задает лимит запросов на один IP.
type RateLimiterConfig struct {
	Rate            rate.Limit
	Burst           int
	CleanupInterval time.Duration
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter хранит token bucket для каждого клиентского IP.
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter создает лимитер и запускает фоновую очистку неактивных клиентов.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	if config.Burst < 1 {
		config.Burst = 1
	}

	rl := &RateLimiter{
		config:   config,
		limiters: make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop останавливает фоновую очистку. Повторный вызов безопасен.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware возвращает fiber.Handler, отвечающий 429 при превышении лимита.
func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		ip := strings.Clone(ctx.IP())
		if rl.Allow(ip) {
			return ctx.Next()
		}

		requestCtx := RequestContext(ctx)
		logger.Log(requestCtx).Warn(requestCtx, "rate limit exceeded", zap.String("ip", ip))
		SetMetricsRoute(ctx, RouteRateLimited)

		ctx.Set(fiber.HeaderRetryAfter, strconv.Itoa(rl.retryAfterSeconds()))
		return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"detail": "Too many requests",
		})
	}
}

// Allow сообщает, можно ли пропустить очередной запрос клиента key.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.config.Rate, rl.config.Burst)}
		rl.limiters[key] = cl
	}
	cl.lastAccess = time.Now()
	rl.mu.Unlock()

	return cl.limiter.Allow()
}

// Len возвращает число отслеживаемых клиентов.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) retryAfterSeconds() int {
	if rl.config.Rate <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1.0/float64(rl.config.Rate))))
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup удаляет клиентов, не обращавшихся дольше двух интервалов очистки.
func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := rl.config.CleanupInterval * 2

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.limiters, key)
		}
	}
}
