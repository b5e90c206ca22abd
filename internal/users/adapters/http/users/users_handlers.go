// Package users содержит HTTP обработчики CRUD-операций над пользователями.
package users

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"userapi/internal/users/adapters/http/middleware"
	"userapi/internal/users/adapters/http/validation"
	"userapi/internal/users/ports/api"
	"userapi/pkg/logger"
)

// RootMessage - приветствие корневого маршрута, используемое как проба живости.
const RootMessage = "Users API with PostgreSQL"

// Константы для логирования.
const (
	LogHandlerList   = "users handler: list"
	LogHandlerCreate = "users handler: create"
	LogHandlerUpdate = "users handler: update"
	LogHandlerDelete = "users handler: delete"

	ErrorInvalidRequest       = "invalid request"
	ErrorFailedToServeRequest = "failed to serve request"
	ErrorRequestRejected      = "request rejected"
)

var errNotJSONObject = errors.New("request body is not a JSON object")

// Handler содержит HTTP обработчики пользователей.
type Handler struct {
	userService api.UserUseCase
	validator   *validation.Validator
}

// NewHandler создает новый экземпляр обработчика.
func NewHandler(userService api.UserUseCase, validator *validation.Validator) *Handler {
	return &Handler{
		userService: userService,
		validator:   validator,
	}
}

// Root отвечает фиксированным приветствием.
func (h *Handler) Root(ctx fiber.Ctx) error {
	if err := ctx.Status(http.StatusOK).JSON(MessageResponse{Message: RootMessage}); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// ListUsers возвращает всех пользователей.
func (h *Handler) ListUsers(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerList)

	users, err := h.userService.ListUsers(requestCtx)
	if err != nil {
		return writeError(ctx, opList, err)
	}

	if err := ctx.Status(http.StatusOK).JSON(toUserResponses(users)); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// CreateUser создает пользователя.
func (h *Handler) CreateUser(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx)
	log.Debug(requestCtx, LogHandlerCreate)

	var req CreateUserRequest
	if err := bindJSONObject(ctx, &req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return writeError(ctx, opCreate, validation.Wrap(DetailInvalidJSON))
	}
	if err := h.validator.Struct(req); err != nil {
		return writeError(ctx, opCreate, err)
	}

	user, err := h.userService.CreateUser(requestCtx, req.Username, req.Email)
	if err != nil {
		return writeError(ctx, opCreate, err)
	}

	if err := ctx.Status(http.StatusCreated).JSON(toUserResponse(user)); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// UpdateUser частично обновляет пользователя.
func (h *Handler) UpdateUser(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx)
	log.Debug(requestCtx, LogHandlerUpdate)

	id, err := parseUserID(ctx)
	if err != nil {
		return writeError(ctx, opUpdate, err)
	}

	var req UpdateUserRequest
	if err := bindJSONObject(ctx, &req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return writeError(ctx, opUpdate, validation.Wrap(DetailInvalidJSON))
	}
	if err := h.validator.Struct(req); err != nil {
		return writeError(ctx, opUpdate, err)
	}

	user, err := h.userService.UpdateUser(requestCtx, id, req.toEntity())
	if err != nil {
		return writeError(ctx, opUpdate, err)
	}

	if err := ctx.Status(http.StatusOK).JSON(toUserResponse(user)); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// DeleteUser удаляет пользователя.
func (h *Handler) DeleteUser(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerDelete)

	id, err := parseUserID(ctx)
	if err != nil {
		return writeError(ctx, opDelete, err)
	}

	if err := h.userService.DeleteUser(requestCtx, id); err != nil {
		return writeError(ctx, opDelete, err)
	}

	ctx.Status(http.StatusNoContent)
	return nil
}

// bindJSONObject разбирает тело запроса, принимая только JSON-объект:
// литералы вроде null или [] дали бы пустую структуру.
func bindJSONObject(ctx fiber.Ctx, out any) error {
	body := bytes.TrimSpace(ctx.Body())
	if len(body) == 0 || body[0] != '{' {
		return errNotJSONObject
	}
	if err := ctx.Bind().JSON(out); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}
	return nil
}

func parseUserID(ctx fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(ctx.Params("user_id"), 10, 64)
	if err != nil {
		return 0, validation.Wrap(DetailInvalidUserID)
	}
	return id, nil
}
