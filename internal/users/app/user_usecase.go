// Package app содержит сценарии работы с пользователями.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"userapi/internal/users/domain/entities"
	"userapi/internal/users/ports/api"
	"userapi/internal/users/ports/cache"
	"userapi/internal/users/ports/repositories"
	"userapi/pkg/logger"
)

// Ключи кэша. UsersVersionKey увеличивается при каждой записи; список
// кладется в кэш, только если версия не менялась с момента чтения из базы.
const (
	UsersCacheKey   = "users:all"
	UsersVersionKey = "users:version"
)

const (
	methodListUsers  = "ListUsers"
	methodCreateUser = "CreateUser"
	methodUpdateUser = "UpdateUser"
	methodDeleteUser = "DeleteUser"

	msgListingUsers   = "listing users"
	msgUsersFromCache = "users served from cache"
	msgUserCreated    = "user created"
	msgUserUpdated    = "user updated"
	msgUserDeleted    = "user deleted"

	msgErrReadCache       = "failed to read users cache, falling back to database"
	msgErrReadVersion     = "failed to read users cache version, skipping cache"
	msgStaleSnapshot      = "users changed while listing, snapshot not cached"
	msgErrBumpVersion     = "failed to bump users cache version"
	msgErrDecodeCache     = "failed to decode cached users, falling back to database"
	msgErrWriteCache      = "failed to write users cache"
	msgErrInvalidateCache = "failed to invalidate users cache"

	errCtxListingUsers = "listing users"
	errCtxCreatingUser = "creating user"
	errCtxUpdatingUser = "updating user"
	errCtxDeletingUser = "deleting user"
)

// UserUseCaseImpl реализует api.UserUseCase.
type UserUseCaseImpl struct {
	userRepo repositories.UserRepository
	cache    cache.Cache
	cacheTTL time.Duration
}

// Option настраивает UserUseCaseImpl.
type Option func(*UserUseCaseImpl)

// WithCache включает кэширование списка пользователей.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(u *UserUseCaseImpl) {
		u.cache = c
		u.cacheTTL = ttl
	}
}

// NewUserUseCase создает новый экземпляр сервиса пользователей.
func NewUserUseCase(userRepo repositories.UserRepository, opts ...Option) api.UserUseCase {
	u := &UserUseCaseImpl{userRepo: userRepo}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// ListUsers возвращает всех пользователей.
func (u *UserUseCaseImpl) ListUsers(ctx context.Context) ([]entities.User, error) {
	log := logger.Log(ctx).With(zap.String("method", methodListUsers))
	log.Debug(ctx, msgListingUsers)

	// Версия читается до обращения к базе: запись, завершившаяся после этого,
	// изменит ее, и устаревший снимок не попадет в кэш.
	version, versionOK := u.cacheVersion(ctx, log)

	if versionOK {
		if users, ok := u.cachedUsers(ctx, log); ok {
			log.Debug(ctx, msgUsersFromCache, zap.Int("count", len(users)))
			return users, nil
		}
	}

	users, err := u.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxListingUsers, err)
	}

	if versionOK {
		u.storeUsers(ctx, log, version, users)
	}
	return users, nil
}

// CreateUser создает пользователя.
func (u *UserUseCaseImpl) CreateUser(ctx context.Context, username, email string) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("method", methodCreateUser))

	user, err := u.userRepo.Create(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxCreatingUser, err)
	}

	u.invalidate(ctx, log)
	log.Info(ctx, msgUserCreated, zap.Int64("id", user.ID))
	return user, nil
}

// UpdateUser частично обновляет пользователя.
func (u *UserUseCaseImpl) UpdateUser(ctx context.Context, id int64, update entities.UserUpdate) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("method", methodUpdateUser), zap.Int64("id", id))

	user, err := u.userRepo.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxUpdatingUser, err)
	}

	u.invalidate(ctx, log)
	log.Info(ctx, msgUserUpdated)
	return user, nil
}

// DeleteUser удаляет пользователя.
func (u *UserUseCaseImpl) DeleteUser(ctx context.Context, id int64) error {
	log := logger.Log(ctx).With(zap.String("method", methodDeleteUser), zap.Int64("id", id))

	if err := u.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", errCtxDeletingUser, err)
	}

	u.invalidate(ctx, log)
	log.Info(ctx, msgUserDeleted)
	return nil
}

// Ошибки кэша не прерывают запрос: источником истины остается база.
func (u *UserUseCaseImpl) cacheVersion(ctx context.Context, log *logger.Logger) (int64, bool) {
	if u.cache == nil {
		return 0, false
	}

	raw, err := u.cache.Get(ctx, UsersVersionKey)
	if err != nil {
		log.Warn(ctx, msgErrReadVersion, zap.Error(err))
		return 0, false
	}
	if raw == "" {
		return 0, true
	}

	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Warn(ctx, msgErrReadVersion, zap.Error(err))
		return 0, false
	}
	return version, true
}

func (u *UserUseCaseImpl) cachedUsers(ctx context.Context, log *logger.Logger) ([]entities.User, bool) {
	if u.cache == nil {
		return nil, false
	}

	raw, err := u.cache.Get(ctx, UsersCacheKey)
	if err != nil {
		log.Warn(ctx, msgErrReadCache, zap.Error(err))
		return nil, false
	}
	if raw == "" {
		return nil, false
	}

	var users []entities.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		log.Warn(ctx, msgErrDecodeCache, zap.Error(err))
		return nil, false
	}
	if users == nil {
		users = make([]entities.User, 0)
	}
	return users, true
}

func (u *UserUseCaseImpl) storeUsers(ctx context.Context, log *logger.Logger, version int64, users []entities.User) {
	raw, err := json.Marshal(users)
	if err != nil {
		log.Warn(ctx, msgErrWriteCache, zap.Error(err))
		return
	}

	stored, err := u.cache.SetIfUnchanged(ctx, UsersVersionKey, version, UsersCacheKey, string(raw), u.cacheTTL)
	if err != nil {
		log.Warn(ctx, msgErrWriteCache, zap.Error(err))
		return
	}
	if !stored {
		log.Debug(ctx, msgStaleSnapshot, zap.Int64("version", version))
	}
}

// invalidate сначала увеличивает версию, затем удаляет список: чтение,
// начатое до записи, уже не сможет положить в кэш свой снимок.
func (u *UserUseCaseImpl) invalidate(ctx context.Context, log *logger.Logger) {
	if u.cache == nil {
		return
	}
	if _, err := u.cache.Incr(ctx, UsersVersionKey); err != nil {
		log.Warn(ctx, msgErrBumpVersion, zap.Error(err))
	}
	if err := u.cache.Delete(ctx, UsersCacheKey); err != nil {
		log.Warn(ctx, msgErrInvalidateCache, zap.Error(err))
	}
}
