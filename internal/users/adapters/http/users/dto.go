package users

import "userapi/internal/users/domain/entities"

// CreateUserRequest - тело POST /users.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
}

// UpdateUserRequest - тело PUT /users/{user_id}. Отсутствующее или null
// поле сохраняет текущее значение; присланное поле обязано быть валидным.
type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitnil,min=1,notblank"`
	Email    *string `json:"email" validate:"omitnil,email"`
}

// UserResponse - представление пользователя в ответах.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// MessageResponse - ответ корневого маршрута.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse - тело любого ответа с ошибкой.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func toUserResponse(u *entities.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

func toUserResponses(users []entities.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return out
}

func (r UpdateUserRequest) toEntity() entities.UserUpdate {
	return entities.UserUpdate{Username: r.Username, Email: r.Email}
}
