// Package middleware содержит промежуточное ПО для HTTP обработчиков.
package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"

	"userapi/pkg/logger"
)

// HeaderRequestID - заголовок с идентификатором запроса.
const HeaderRequestID = "X-Request-ID"

const localsRequestID = "requestID"

// NewRequestIDMiddleware берет идентификатор запроса из заголовка
// или генерирует новый и возвращает его в ответе.
func NewRequestIDMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		id := strings.Clone(ctx.Get(HeaderRequestID))
		if id == "" {
			id = logger.GenerateRequestID()
		}

		ctx.Locals(localsRequestID, id)
		ctx.Set(HeaderRequestID, id)

		return ctx.Next()
	}
}

// RequestContext возвращает контекст запроса с его идентификатором.
func RequestContext(ctx fiber.Ctx) context.Context {
	id, _ := ctx.Locals(localsRequestID).(string)
	return logger.NewRequestIDContext(ctx.Context(), id)
}
