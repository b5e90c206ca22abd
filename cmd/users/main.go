package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"userapi/internal/users/adapters/cache"
	httpServer "userapi/internal/users/adapters/http"
	"userapi/internal/users/adapters/http/middleware"
	"userapi/internal/users/adapters/http/validation"
	"userapi/internal/users/adapters/postgres"
	"userapi/internal/users/app"
	"userapi/internal/users/config"
	"userapi/internal/users/db"
	"userapi/internal/users/metrics"
	"userapi/pkg/db/redis"
	"userapi/pkg/logger"
	"userapi/pkg/shutdown"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "USERS_LOGGER_MODE"
	EnvLoggerLevel = "USERS_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrInitDatabase         = "failed to initialize database"
	ErrCreateRedisClient    = "failed to create Redis client"
	ErrStartHTTPServer      = "failed to start HTTP server"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "users service started"
	LogServiceShutdownDone = "users service shutdown complete"
	LogInitDatabase        = "initializing database"
	LogInitCache           = "initializing cache"
	LogCacheDisabled       = "users cache disabled"
	LogRateLimitEnabled    = "rate limiting enabled"
	LogInitServices        = "initializing services"
	LogInitHTTPServer      = "initializing HTTP server"
	LogStartingHTTP        = "starting HTTP server"
	LogStoppingHTTP        = "stopping HTTP server"
	LogClosingRedis        = "closing Redis connection"
	LogClosingDatabase     = "closing database connection"
	LogStoppingRateLimiter = "stopping rate limiter"
)

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}

	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
					panic(writeErr)
				}
			}
		}()

		cfg, err := config.Load(ctx)
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			exitCode = 1
			return
		}

		finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
		if err != nil {
			log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
			exitCode = 1
			return
		}
		logger.SetGlobalLogger(finalLogger)
		log = finalLogger

		log.Info(ctx, LogServiceStarted,
			zap.String("environment", string(cfg.Logging.GetEnvironment())),
			zap.String("log_level", cfg.Logging.Level),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		log.Info(ctx, LogInitDatabase)
		database, err := db.New(ctx, &cfg.Postgres)
		if err != nil {
			log.Error(ctx, ErrInitDatabase, zap.Error(err))
			exitCode = 1
			return
		}

		var hooks []shutdown.Hook

		var useCaseOpts []app.Option
		if cfg.Redis.Enabled {
			log.Info(ctx, LogInitCache)
			client, err := redis.NewClient(ctx, cfg.Redis.ToClientConfig())
			if err != nil {
				log.Error(ctx, ErrCreateRedisClient, zap.Error(err))
				database.Close(ctx)
				exitCode = 1
				return
			}
			redisCache := cache.NewBreakerCache(cache.NewRedisCache(client, cfg.Redis.TTL), cache.BreakerConfig{
				FailureThreshold: cfg.Redis.BreakerThreshold,
				OpenTimeout:      cfg.Redis.BreakerTimeout,
				SuccessThreshold: 1,
			})
			useCaseOpts = append(useCaseOpts, app.WithCache(redisCache, cfg.Redis.TTL))
			hooks = append(hooks, func(ctx context.Context) error {
				log.Info(ctx, LogClosingRedis)
				return redisCache.Close()
			})
		} else {
			log.Info(ctx, LogCacheDisabled)
		}

		log.Info(ctx, LogInitServices)
		repoFactory := postgres.NewRepositoryFactory(database.Pool())
		userService := app.NewUserUseCase(repoFactory.UserRepository(), useCaseOpts...)

		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		var limiter *middleware.RateLimiter
		if cfg.RateLimit.Enabled() {
			log.Info(ctx, LogRateLimitEnabled,
				zap.Float64("rps", cfg.RateLimit.RPS),
				zap.Int("burst", cfg.RateLimit.Burst))
			limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
				Rate:  rate.Limit(cfg.RateLimit.RPS),
				Burst: cfg.RateLimit.Burst,
			})
			hooks = append(hooks, func(ctx context.Context) error {
				log.Info(ctx, LogStoppingRateLimiter)
				limiter.Stop()
				return nil
			})
		}

		log.Info(ctx, LogInitHTTPServer)
		fiberApp := fiber.New(fiber.Config{
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		})

		httpServer.SetupRouter(fiberApp, httpServer.RouterDeps{
			UserService: userService,
			Validator:   validation.New(),
			Metrics:     metrics.NewCollector(registry),
			Gatherer:    registry,
			RateLimiter: limiter,
		})

		log.Info(ctx, LogStartingHTTP, zap.String("address", cfg.HTTP.GetAddress()))
		go func() {
			if err := fiberApp.Listen(cfg.HTTP.GetAddress()); err != nil {
				log.Error(ctx, ErrStartHTTPServer, zap.Error(err))
			}
		}()

		// Пул закрывается только после того, как сервер перестал принимать запросы.
		hooks = append(hooks, func(ctx context.Context) error {
			log.Info(ctx, LogStoppingHTTP)
			err := fiberApp.Shutdown()

			log.Info(ctx, LogClosingDatabase)
			database.Close(ctx)
			return err
		})

		shutdown.Wait(ctx, cfg.Shutdown.GetTimeout(), hooks...)

		log.Info(ctx, LogServiceShutdownDone)
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
