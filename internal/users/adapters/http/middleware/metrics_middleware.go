package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
)

// Метки маршрута для запросов, не дошедших до обработчика.
const (
	RouteUnmatched   = "unmatched"
	RouteRateLimited = "rate_limited"
)

const localsMetricsRoute = "metricsRoute"

// RequestRecorder принимает сведения о завершенном запросе.
type RequestRecorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
}

// SetMetricsRoute задает метку маршрута для запроса, который завершило
// промежуточное ПО: у таких запросов ctx.Route() указывает на app.Use с путем "/".
func SetMetricsRoute(ctx fiber.Ctx, route string) {
	ctx.Locals(localsMetricsRoute, route)
}

// NewMetricsMiddleware записывает статус и длительность каждого запроса.
// Маршрут берется из шаблона ("/users/:user_id"), а не из фактического пути.
func NewMetricsMiddleware(recorder RequestRecorder) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		start := time.Now()

		err := ctx.Next()

		recorder.RecordRequest(ctx.Method(), metricsRoute(ctx), ctx.Response().StatusCode(), time.Since(start))
		return err
	}
}

func metricsRoute(ctx fiber.Ctx) string {
	if route, ok := ctx.Locals(localsMetricsRoute).(string); ok && route != "" {
		return route
	}
	if r := ctx.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return RouteUnmatched
}
