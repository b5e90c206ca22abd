package users

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"userapi/internal/users/adapters/http/middleware"
	"userapi/internal/users/domain/entities"
	"userapi/pkg/logger"
)

// Тексты ошибок, видимые клиенту.
const (
	DetailUserNotFound       = "User not found"
	DetailEmailAlreadyExists = "Email already exists"
	DetailInvalidJSON        = "Invalid JSON body"
	DetailInvalidUserID      = "user_id: value is not a valid integer"
)

// Операции, префиксующие текст внутренних ошибок.
const (
	opList   = ""
	opCreate = "Failed to create user"
	opUpdate = "Failed to update user"
	opDelete = "Failed to delete user"
)

// statusFor сопоставляет тип ошибки со статусом HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entities.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrEmailAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// detailFor формирует текст ошибки для клиента. Для внутренних ошибок
// в ответ уходит сообщение первопричины с префиксом операции.
func detailFor(op string, err error, status int) string {
	switch status {
	case http.StatusNotFound:
		return DetailUserNotFound
	case http.StatusConflict:
		return DetailEmailAlreadyExists
	case http.StatusUnprocessableEntity:
		return err.Error()
	}

	message := rootCause(err).Error()
	if op == opList {
		return message
	}
	return fmt.Sprintf("%s: %s", op, message)
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// writeError пишет JSON-ответ {"detail": ...} со статусом, выведенным из ошибки.
func writeError(ctx fiber.Ctx, op string, err error) error {
	requestCtx := middleware.RequestContext(ctx)
	status := statusFor(err)
	detail := detailFor(op, err, status)

	log := logger.Log(requestCtx)
	if status == http.StatusInternalServerError {
		log.Error(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
	} else {
		log.Debug(requestCtx, ErrorRequestRejected, zap.Int("status", status), zap.String("detail", detail))
	}

	if err := ctx.Status(status).JSON(ErrorResponse{Detail: detail}); err != nil {
		return fmt.Errorf("error sending error response: %w", err)
	}
	return nil
}
