// Package api описывает входящие порты сервиса пользователей.
package api

import (
	"context"

	"userapi/internal/users/domain/entities"
)

// UserUseCase определяет сценарии работы с пользователями.
type UserUseCase interface {
	ListUsers(ctx context.Context) ([]entities.User, error)
	CreateUser(ctx context.Context, username, email string) (*entities.User, error)
	UpdateUser(ctx context.Context, id int64, update entities.UserUpdate) (*entities.User, error)
	DeleteUser(ctx context.Context, id int64) error
}
