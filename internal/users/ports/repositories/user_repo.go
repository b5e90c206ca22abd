// Package repositories описывает порты хранилища.
package repositories

import (
	"context"

	"userapi/internal/users/domain/entities"
)

// UserRepository определяет операции хранения пользователей.
type UserRepository interface {
	List(ctx context.Context) ([]entities.User, error)

	Create(ctx context.Context, username, email string) (*entities.User, error)

	// Update атомарно применяет частичное обновление и возвращает итоговую запись.
	Update(ctx context.Context, id int64, update entities.UserUpdate) (*entities.User, error)

	Delete(ctx context.Context, id int64) error
}
