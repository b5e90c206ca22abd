// Package entities содержит доменную модель сервиса пользователей.
package entities

import "errors"

// Ошибки домена пользователя.
var (
	ErrValidation         = errors.New("validation failed")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// User представляет пользователя. ID назначается хранилищем.
type User struct {
	ID       int64
	Username string
	Email    string
}

// UserUpdate описывает частичное обновление: nil означает "оставить как есть".
type UserUpdate struct {
	Username *string
	Email    *string
}
