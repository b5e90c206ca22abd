package middleware

import (
	"github.com/gofiber/fiber/v3"
)

// DetailNotFound - текст ответа для несуществующих маршрутов.
const DetailNotFound = "Not Found"

// NewNotFoundHandler отвечает 404 на запросы, не совпавшие ни с одним маршрутом.
// Регистрируется последним.
func NewNotFoundHandler() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		SetMetricsRoute(ctx, RouteUnmatched)
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": DetailNotFound,
		})
	}
}
