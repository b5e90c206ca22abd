package middleware

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"userapi/pkg/logger"
)

// Константы восстановления после паники.
const (
	LogHandlerPanic       = "handler panicked"
	DetailInternalFailure = "Internal Server Error"
)

// NewRecoveryMiddleware превращает панику обработчика в ответ 500
// с телом {"detail": "Internal Server Error"}; процесс продолжает работу.
func NewRecoveryMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) (err error) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			requestCtx := RequestContext(ctx)
			logger.Log(requestCtx).Error(requestCtx, LogHandlerPanic,
				zap.String("method", ctx.Method()),
				zap.String("path", ctx.Path()),
				zap.Any("panic", recovered),
				zap.ByteString("stack", debug.Stack()),
			)

			err = ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"detail": DetailInternalFailure,
			})
		}()

		return ctx.Next()
	}
}
