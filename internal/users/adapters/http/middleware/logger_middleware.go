package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"userapi/pkg/logger"
)

// Константы для логирования запросов.
const (
	LogRequestStarted   = "request started"
	LogRequestCompleted = "request completed"
	LogRequestFailed    = "request failed"
)

// NewLoggerMiddleware пишет одну запись на запрос. Уровень зависит от статуса:
// 5xx - error, 4xx - warn, остальное - info.
func NewLoggerMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := RequestContext(ctx)
		start := time.Now()

		log := logger.Log(requestCtx).With(
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.String("ip", ctx.IP()),
		)
		log.Debug(requestCtx, LogRequestStarted)

		err := ctx.Next()

		status := ctx.Response().StatusCode()
		fields := []zap.Field{
			zap.String("route", metricsRoute(ctx)),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int("response_bytes", len(ctx.Response().Body())),
		}

		if err != nil {
			log.Error(requestCtx, LogRequestFailed, append(fields, zap.Error(err))...)
			return fmt.Errorf("request processing error: %w", err)
		}

		switch levelForStatus(status) {
		case zapcore.ErrorLevel:
			log.Error(requestCtx, LogRequestCompleted, fields...)
		case zapcore.WarnLevel:
			log.Warn(requestCtx, LogRequestCompleted, fields...)
		default:
			log.Info(requestCtx, LogRequestCompleted, fields...)
		}
		return nil
	}
}

func levelForStatus(status int) zapcore.Level {
	switch {
	case status >= fiber.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= fiber.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
