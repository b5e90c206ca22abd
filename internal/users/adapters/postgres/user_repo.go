// Package postgres реализует хранилище пользователей поверх pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"userapi/internal/users/domain/entities"
	"userapi/internal/users/ports/repositories"
	"userapi/pkg/logger"
)

// uniqueViolation - SQLSTATE нарушения ограничения уникальности.
const uniqueViolation = "23505"

const (
	ErrListingUsers  = "error listing users"
	ErrScanningUser  = "error scanning user row"
	ErrCreatingUser  = "error creating user"
	ErrUpdatingUser  = "error updating user"
	ErrDeletingUser  = "error deleting user"
	LogUserNotFound  = "user not found"
	LogEmailConflict = "email already exists"
)

const (
	queryListUsers = `
        SELECT id, username, email
        FROM users
    `

	queryCreateUser = `
        INSERT INTO users (username, email)
        VALUES ($1, $2)
        RETURNING id, username, email
    `

	queryUpdateUser = `
        UPDATE users
        SET username = COALESCE($2, username), email = COALESCE($3, email)
        WHERE id = $1
        RETURNING id, username, email
    `

	queryDeleteUser = `
        DELETE FROM users
        WHERE id = $1
    `
)

// PgxPoolInterface - подмножество методов пула, которым пользуется репозиторий.
// Каждый вызов сам берет соединение из пула и возвращает его.
type PgxPoolInterface interface {
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

// UserRepository реализует repositories.UserRepository для Postgres.
type UserRepository struct {
	pool PgxPoolInterface
}

// NewUserRepository создает новый экземпляр репозитория пользователей.
func NewUserRepository(pool PgxPoolInterface) repositories.UserRepository {
	return &UserRepository{pool: pool}
}

// List возвращает всех пользователей в порядке хранения.
func (r *UserRepository) List(ctx context.Context) ([]entities.User, error) {
	log := logger.Log(ctx).With(zap.String("repository", "user"), zap.String("method", "List"))

	rows, err := r.pool.Query(ctx, queryListUsers)
	if err != nil {
		log.Error(ctx, ErrListingUsers, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrListingUsers, err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		var user entities.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email); err != nil {
			log.Error(ctx, ErrScanningUser, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", ErrScanningUser, err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		log.Error(ctx, ErrListingUsers, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrListingUsers, err)
	}

	return users, nil
}

// Create вставляет пользователя; id назначает база.
func (r *UserRepository) Create(ctx context.Context, username, email string) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("repository", "user"), zap.String("method", "Create"))

	var created entities.User
	err := r.pool.QueryRow(ctx, queryCreateUser, username, email).Scan(
		&created.ID,
		&created.Username,
		&created.Email,
	)
	if err != nil {
		if isUniqueViolation(err) {
			log.Debug(ctx, LogEmailConflict, zap.String("email", email))
			return nil, fmt.Errorf("%s: %w", ErrCreatingUser, errors.Join(entities.ErrEmailAlreadyExists, err))
		}
		log.Error(ctx, ErrCreatingUser, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrCreatingUser, err)
	}

	return &created, nil
}

// Update применяет частичное обновление одним оператором.
func (r *UserRepository) Update(ctx context.Context, id int64, update entities.UserUpdate) (*entities.User, error) {
	log := logger.Log(ctx).With(
		zap.String("repository", "user"),
		zap.String("method", "Update"),
		zap.Int64("id", id))

	var updated entities.User
	err := r.pool.QueryRow(ctx, queryUpdateUser, id, update.Username, update.Email).Scan(
		&updated.ID,
		&updated.Username,
		&updated.Email,
	)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			log.Debug(ctx, LogUserNotFound)
			return nil, entities.ErrUserNotFound
		case isUniqueViolation(err):
			log.Debug(ctx, LogEmailConflict)
			return nil, fmt.Errorf("%s: %w", ErrUpdatingUser, errors.Join(entities.ErrEmailAlreadyExists, err))
		}
		log.Error(ctx, ErrUpdatingUser, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrUpdatingUser, err)
	}

	return &updated, nil
}

// Delete удаляет пользователя по id.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	log := logger.Log(ctx).With(
		zap.String("repository", "user"),
		zap.String("method", "Delete"),
		zap.Int64("id", id))

	result, err := r.pool.Exec(ctx, queryDeleteUser, id)
	if err != nil {
		log.Error(ctx, ErrDeletingUser, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrDeletingUser, err)
	}

	if result.RowsAffected() == 0 {
		log.Debug(ctx, LogUserNotFound)
		return entities.ErrUserNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
