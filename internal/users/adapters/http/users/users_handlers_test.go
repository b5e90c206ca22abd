package users_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"userapi/internal/users/adapters/http/middleware"
	"userapi/internal/users/adapters/http/users"
	"userapi/internal/users/adapters/http/validation"
	"userapi/internal/users/domain/entities"
)

type mockUserUseCase struct {
	mock.Mock
}

func (m *mockUserUseCase) ListUsers(ctx context.Context) ([]entities.User, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]entities.User)
	return list, args.Error(1)
}

func (m *mockUserUseCase) CreateUser(ctx context.Context, username, email string) (*entities.User, error) {
	args := m.Called(ctx, username, email)
	user, _ := args.Get(0).(*entities.User)
	return user, args.Error(1)
}

func (m *mockUserUseCase) UpdateUser(ctx context.Context, id int64, update entities.UserUpdate) (*entities.User, error) {
	args := m.Called(ctx, id, update)
	user, _ := args.Get(0).(*entities.User)
	return user, args.Error(1)
}

func (m *mockUserUseCase) DeleteUser(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestApp(svc *mockUserUseCase) *fiber.App {
	h := users.NewHandler(svc, validation.New())

	app := fiber.New()
	app.Use(middleware.NewRequestIDMiddleware())
	app.Get("/", h.Root)
	app.Get("/users", h.ListUsers)
	app.Post("/users", h.CreateUser)
	app.Put("/users/:user_id", h.UpdateUser)
	app.Delete("/users/:user_id", h.DeleteUser)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func detailOf(t *testing.T, body string) string {
	t.Helper()

	var payload users.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	return payload.Detail
}

func strPtr(s string) *string { return &s }

func TestHandler_Root(t *testing.T) {
	svc := &mockUserUseCase{}
	status, body := doRequest(t, newTestApp(svc), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Users API with PostgreSQL"}`, body)
	svc.AssertExpectations(t)
}

func TestHandler_ListUsers(t *testing.T) {
	tests := []struct {
		name       string
		users      []entities.User
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name: "returns users",
			users: []entities.User{
				{ID: 1, Username: "alice", Email: "alice@example.com"},
				{ID: 2, Username: "bob", Email: "bob@example.com"},
			},
			wantStatus: http.StatusOK,
			wantBody:   `[{"id":1,"username":"alice","email":"alice@example.com"},{"id":2,"username":"bob","email":"bob@example.com"}]`,
		},
		{
			name:       "empty list is an array",
			users:      nil,
			wantStatus: http.StatusOK,
			wantBody:   `[]`,
		},
		{
			name:       "database failure exposes raw message",
			err:        fmt.Errorf("listing users: %w", errors.New("connection refused")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"detail":"connection refused"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserUseCase{}
			svc.On("ListUsers", mock.Anything).Return(tt.users, tt.err)

			status, body := doRequest(t, newTestApp(svc), http.MethodGet, "/users", "")

			assert.Equal(t, tt.wantStatus, status)
			assert.JSONEq(t, tt.wantBody, body)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_CreateUser(t *testing.T) {
	alice := &entities.User{ID: 1, Username: "alice", Email: "alice@example.com"}

	t.Run("created", func(t *testing.T) {
		svc := &mockUserUseCase{}
		svc.On("CreateUser", mock.Anything, "alice", "alice@example.com").Return(alice, nil)

		status, body := doRequest(t, newTestApp(svc), http.MethodPost, "/users",
			`{"username":"alice","email":"alice@example.com"}`)

		assert.Equal(t, http.StatusCreated, status)
		assert.JSONEq(t, `{"id":1,"username":"alice","email":"alice@example.com"}`, body)
		svc.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := &mockUserUseCase{}
		svc.On("CreateUser", mock.Anything, "alice", "alice@example.com").
			Return(nil, fmt.Errorf("creating user: %w", entities.ErrEmailAlreadyExists))

		status, body := doRequest(t, newTestApp(svc), http.MethodPost, "/users",
			`{"username":"alice","email":"alice@example.com"}`)

		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "Email already exists", detailOf(t, body))
	})

	t.Run("internal failure is prefixed", func(t *testing.T) {
		svc := &mockUserUseCase{}
		svc.On("CreateUser", mock.Anything, "alice", "alice@example.com").
			Return(nil, fmt.Errorf("creating user: %w", errors.New("disk full")))

		status, body := doRequest(t, newTestApp(svc), http.MethodPost, "/users",
			`{"username":"alice","email":"alice@example.com"}`)

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Failed to create user: disk full", detailOf(t, body))
	})

	invalid := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{name: "malformed json", body: `{"username":`, wantDetail: users.DetailInvalidJSON},
		{name: "null body", body: `null`, wantDetail: users.DetailInvalidJSON},
		{name: "array body", body: `[]`, wantDetail: users.DetailInvalidJSON},
		{name: "missing email", body: `{"username":"alice"}`, wantDetail: "email: field required"},
		{name: "empty username", body: `{"username":"","email":"alice@example.com"}`, wantDetail: "username: field required"},
		{name: "whitespace-only username", body: `{"username":"   ","email":"alice@example.com"}`, wantDetail: "username: must not be blank"},
		{name: "invalid email", body: `{"username":"alice","email":"not-an-email"}`, wantDetail: "email: value is not a valid email address"},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserUseCase{}

			status, body := doRequest(t, newTestApp(svc), http.MethodPost, "/users", tt.body)

			assert.Equal(t, http.StatusUnprocessableEntity, status)
			assert.Equal(t, tt.wantDetail, detailOf(t, body))
			svc.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_UpdateUser(t *testing.T) {
	t.Run("username only", func(t *testing.T) {
		svc := &mockUserUseCase{}
		svc.On("UpdateUser", mock.Anything, int64(1), entities.UserUpdate{Username: strPtr("alicia")}).
			Return(&entities.User{ID: 1, Username: "alicia", Email: "alice@example.com"}, nil)

		status, body := doRequest(t, newTestApp(svc), http.MethodPut, "/users/1", `{"username":"alicia"}`)

		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"id":1,"username":"alicia","email":"alice@example.com"}`, body)
		svc.AssertExpectations(t)
	})

	t.Run("null field keeps stored value", func(t *testing.T) {
		svc := &mockUserUseCase{}
		svc.On("UpdateUser", mock.Anything, int64(3), entities.UserUpdate{Email: strPtr("new@example.com")}).
			Return(&entities.User{ID: 3, Username: "carol", Email: "new@example.com"}, nil)

		status, _ := doRequest(t, newTestApp(svc), http.MethodPut, "/users/3",
			`{"username":null,"email":"new@example.com"}`)

		assert.Equal(t, http.StatusOK, status)
		svc.AssertExpectations(t)
	})

	errorCases := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "not found",
			err:        fmt.Errorf("updating user: %w", entities.ErrUserNotFound),
			wantStatus: http.StatusNotFound,
			wantDetail: "User not found",
		},
		{
			name:       "duplicate email",
			err:        fmt.Errorf("updating user: %w", entities.ErrEmailAlreadyExists),
			wantStatus: http.StatusConflict,
			wantDetail: "Email already exists",
		},
		{
			name:       "internal failure",
			err:        fmt.Errorf("updating user: %w", errors.New("timeout")),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Failed to update user: timeout",
		},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserUseCase{}
			svc.On("UpdateUser", mock.Anything, int64(99), mock.Anything).Return(nil, tt.err)

			status, body := doRequest(t, newTestApp(svc), http.MethodPut, "/users/99", `{"email":"x@example.com"}`)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantDetail, detailOf(t, body))
		})
	}

	invalid := []struct {
		name       string
		path       string
		body       string
		wantDetail string
	}{
		{name: "non-integer id", path: "/users/abc", body: `{"username":"x"}`, wantDetail: users.DetailInvalidUserID},
		{name: "empty username", path: "/users/1", body: `{"username":""}`, wantDetail: "username: must not be empty"},
		{name: "empty email", path: "/users/1", body: `{"email":""}`, wantDetail: "email: value is not a valid email address"},
		{name: "malformed json", path: "/users/1", body: `[1,2`, wantDetail: users.DetailInvalidJSON},
		{name: "null body", path: "/users/1", body: `null`, wantDetail: users.DetailInvalidJSON},
		{name: "string body", path: "/users/1", body: ` "x" `, wantDetail: users.DetailInvalidJSON},
		{name: "whitespace-only username", path: "/users/1", body: `{"username":"   "}`, wantDetail: "username: must not be blank"},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserUseCase{}

			status, body := doRequest(t, newTestApp(svc), http.MethodPut, tt.path, tt.body)

			assert.Equal(t, http.StatusUnprocessableEntity, status)
			assert.Equal(t, tt.wantDetail, detailOf(t, body))
			svc.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_DeleteUser(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		svc := &mockUserUseCase{}
		svc.On("DeleteUser", mock.Anything, int64(1)).Return(nil)

		status, body := doRequest(t, newTestApp(svc), http.MethodDelete, "/users/1", "")

		assert.Equal(t, http.StatusNoContent, status)
		assert.Empty(t, body)
		svc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockUserUseCase{}
		svc.On("DeleteUser", mock.Anything, int64(1)).
			Return(fmt.Errorf("deleting user: %w", entities.ErrUserNotFound))

		status, body := doRequest(t, newTestApp(svc), http.MethodDelete, "/users/1", "")

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "User not found", detailOf(t, body))
	})

	t.Run("internal failure", func(t *testing.T) {
		svc := &mockUserUseCase{}
		svc.On("DeleteUser", mock.Anything, int64(1)).
			Return(fmt.Errorf("deleting user: %w", errors.New("broken pipe")))

		status, body := doRequest(t, newTestApp(svc), http.MethodDelete, "/users/1", "")

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Failed to delete user: broken pipe", detailOf(t, body))
	})

	t.Run("non-integer id", func(t *testing.T) {
		svc := &mockUserUseCase{}

		status, body := doRequest(t, newTestApp(svc), http.MethodDelete, "/users/abc", "")

		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, users.DetailInvalidUserID, detailOf(t, body))
		svc.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})
}
