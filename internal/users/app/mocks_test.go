package app_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"userapi/internal/users/domain/entities"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) List(ctx context.Context) ([]entities.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]entities.User)
	return users, args.Error(1)
}

func (m *mockUserRepository) Create(ctx context.Context, username, email string) (*entities.User, error) {
	args := m.Called(ctx, username, email)
	user, _ := args.Get(0).(*entities.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, id int64, update entities.UserUpdate) (*entities.User, error) {
	args := m.Called(ctx, id, update)
	user, _ := args.Get(0).(*entities.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockCache) Incr(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCache) SetIfUnchanged(ctx context.Context, guardKey string, version int64, key, value string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, guardKey, version, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
