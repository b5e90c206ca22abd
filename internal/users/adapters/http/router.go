// Package http содержит компоненты для HTTP сервера.
package http

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"

	"userapi/internal/users/adapters/http/middleware"
	"userapi/internal/users/adapters/http/users"
	"userapi/internal/users/adapters/http/validation"
	"userapi/internal/users/metrics"
	"userapi/internal/users/ports/api"
)

// RouterDeps - зависимости HTTP маршрутизатора.
type RouterDeps struct {
	UserService api.UserUseCase
	Validator   *validation.Validator
	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
	// RateLimiter необязателен; nil отключает ограничение частоты запросов.
	RateLimiter *middleware.RateLimiter
}

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(app *fiber.App, deps RouterDeps) {
	usersHandler := users.NewHandler(deps.UserService, deps.Validator)

	// Middleware для всех запросов.
	app.Use(middleware.NewRequestIDMiddleware())
	app.Use(middleware.NewLoggerMiddleware())
	if deps.Metrics != nil {
		app.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	app.Use(middleware.NewRecoveryMiddleware())
	if deps.RateLimiter != nil {
		app.Use(deps.RateLimiter.Middleware())
	}

	app.Get("/", usersHandler.Root)

	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(deps.Gatherer)))
	}

	userRoutes := app.Group("/users")
	userRoutes.Get("", usersHandler.ListUsers)
	userRoutes.Post("", usersHandler.CreateUser)
	userRoutes.Put("/:user_id", usersHandler.UpdateUser)
	userRoutes.Delete("/:user_id", usersHandler.DeleteUser)

	// Обработчик для несуществующих маршрутов.
	app.Use(middleware.NewNotFoundHandler())
}
