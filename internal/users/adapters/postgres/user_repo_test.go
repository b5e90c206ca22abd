package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userapi/internal/users/adapters/postgres"
	"userapi/internal/users/domain/entities"
	"userapi/internal/users/ports/repositories"
	"userapi/pkg/logger"
)

var (
	userColumns = []string{"id", "username", "email"}

	errDatabaseConnection = errors.New("database connection error")
	errDuplicateEmail     = &pgconn.PgError{
		Code:    "23505",
		Message: `duplicate key value violates unique constraint "users_email_key"`,
	}

	selectUsersSQL = regexp.QuoteMeta("SELECT id, username, email FROM users")
	insertUserSQL  = regexp.QuoteMeta("INSERT INTO users (username, email)")
	updateUserSQL  = regexp.QuoteMeta("UPDATE users SET username = COALESCE($2, username), email = COALESCE($3, email) WHERE id = $1")
	deleteUserSQL  = regexp.QuoteMeta("DELETE FROM users WHERE id = $1")
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	testLogger, err := logger.NewLogger(logger.Development, "debug")
	require.NoError(t, err)
	return logger.NewContext(context.Background(), testLogger)
}

func strPtr(s string) *string { return &s }

func TestUserRepository_List(t *testing.T) {
	ctx := testContext(t)

	t.Run("returns rows in storage order", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(selectUsersSQL).
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow(int64(2), "bob", "bob@example.com").
				AddRow(int64(1), "alice", "alice@example.com"))

		users, err := postgres.NewUserRepository(mock).List(ctx)

		require.NoError(t, err)
		assert.Equal(t, []entities.User{
			{ID: 2, Username: "bob", Email: "bob@example.com"},
			{ID: 1, Username: "alice", Email: "alice@example.com"},
		}, users)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty table yields empty non-nil slice", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(selectUsersSQL).WillReturnRows(pgxmock.NewRows(userColumns))

		users, err := postgres.NewUserRepository(mock).List(ctx)

		require.NoError(t, err)
		require.NotNil(t, users)
		assert.Empty(t, users)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(selectUsersSQL).WillReturnError(errDatabaseConnection)

		users, err := postgres.NewUserRepository(mock).List(ctx)

		assert.Nil(t, users)
		require.ErrorIs(t, err, errDatabaseConnection)
		assert.Contains(t, err.Error(), postgres.ErrListingUsers)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row iteration error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(selectUsersSQL).
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow(int64(1), "alice", "alice@example.com").
				RowError(0, errDatabaseConnection))

		users, err := postgres.NewUserRepository(mock).List(ctx)

		assert.Nil(t, users)
		require.ErrorIs(t, err, errDatabaseConnection)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Create(t *testing.T) {
	ctx := testContext(t)

	t.Run("store assigns id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(insertUserSQL).
			WithArgs("alice", "alice@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns).AddRow(int64(1), "alice", "alice@example.com"))

		user, err := postgres.NewUserRepository(mock).Create(ctx, "alice", "alice@example.com")

		require.NoError(t, err)
		assert.Equal(t, &entities.User{ID: 1, Username: "alice", Email: "alice@example.com"}, user)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email maps to ErrEmailAlreadyExists", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(insertUserSQL).
			WithArgs("alice", "alice@example.com").
			WillReturnError(errDuplicateEmail)

		user, err := postgres.NewUserRepository(mock).Create(ctx, "alice", "alice@example.com")

		assert.Nil(t, user)
		require.ErrorIs(t, err, entities.ErrEmailAlreadyExists)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other unique-looking errors are not conflicts", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(insertUserSQL).
			WithArgs("alice", "alice@example.com").
			WillReturnError(&pgconn.PgError{Code: "23502", Message: "null value in column"})

		_, err = postgres.NewUserRepository(mock).Create(ctx, "alice", "alice@example.com")

		require.Error(t, err)
		assert.NotErrorIs(t, err, entities.ErrEmailAlreadyExists)
		assert.Contains(t, err.Error(), postgres.ErrCreatingUser)
	})

	t.Run("generic database error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(insertUserSQL).
			WithArgs("alice", "alice@example.com").
			WillReturnError(errDatabaseConnection)

		user, err := postgres.NewUserRepository(mock).Create(ctx, "alice", "alice@example.com")

		assert.Nil(t, user)
		require.ErrorIs(t, err, errDatabaseConnection)
		assert.Contains(t, err.Error(), postgres.ErrCreatingUser)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Update(t *testing.T) {
	ctx := testContext(t)

	t.Run("only username supplied", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		update := entities.UserUpdate{Username: strPtr("alicia")}

		mock.ExpectQuery(updateUserSQL).
			WithArgs(int64(1), update.Username, (*string)(nil)).
			WillReturnRows(pgxmock.NewRows(userColumns).AddRow(int64(1), "alicia", "alice@example.com"))

		user, err := postgres.NewUserRepository(mock).Update(ctx, 1, update)

		require.NoError(t, err)
		assert.Equal(t, &entities.User{ID: 1, Username: "alicia", Email: "alice@example.com"}, user)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("only email supplied", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		update := entities.UserUpdate{Email: strPtr("new@example.com")}

		mock.ExpectQuery(updateUserSQL).
			WithArgs(int64(1), (*string)(nil), update.Email).
			WillReturnRows(pgxmock.NewRows(userColumns).AddRow(int64(1), "alice", "new@example.com"))

		user, err := postgres.NewUserRepository(mock).Update(ctx, 1, update)

		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "new@example.com", user.Email)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row maps to ErrUserNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		update := entities.UserUpdate{Username: strPtr("ghost")}

		mock.ExpectQuery(updateUserSQL).
			WithArgs(int64(42), update.Username, (*string)(nil)).
			WillReturnError(pgx.ErrNoRows)

		user, err := postgres.NewUserRepository(mock).Update(ctx, 42, update)

		assert.Nil(t, user)
		require.ErrorIs(t, err, entities.ErrUserNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email maps to ErrEmailAlreadyExists", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		update := entities.UserUpdate{Email: strPtr("taken@example.com")}

		mock.ExpectQuery(updateUserSQL).
			WithArgs(int64(1), (*string)(nil), update.Email).
			WillReturnError(errDuplicateEmail)

		_, err = postgres.NewUserRepository(mock).Update(ctx, 1, update)

		require.ErrorIs(t, err, entities.ErrEmailAlreadyExists)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("generic database error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		update := entities.UserUpdate{Username: strPtr("alicia")}

		mock.ExpectQuery(updateUserSQL).
			WithArgs(int64(1), update.Username, (*string)(nil)).
			WillReturnError(errDatabaseConnection)

		_, err = postgres.NewUserRepository(mock).Update(ctx, 1, update)

		require.ErrorIs(t, err, errDatabaseConnection)
		assert.Contains(t, err.Error(), postgres.ErrUpdatingUser)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := testContext(t)

	t.Run("removes exactly one row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(deleteUserSQL).
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, postgres.NewUserRepository(mock).Delete(ctx, 1))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected maps to ErrUserNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(deleteUserSQL).
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = postgres.NewUserRepository(mock).Delete(ctx, 1)

		require.ErrorIs(t, err, entities.ErrUserNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(deleteUserSQL).
			WithArgs(int64(1)).
			WillReturnError(errDatabaseConnection)

		err = postgres.NewUserRepository(mock).Delete(ctx, 1)

		require.ErrorIs(t, err, errDatabaseConnection)
		assert.Contains(t, err.Error(), postgres.ErrDeletingUser)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryFactory(t *testing.T) {
	factory := postgres.NewRepositoryFactory(&pgxpool.Pool{})

	require.NotNil(t, factory)
	assert.Implements(t, (*repositories.UserRepository)(nil), factory.UserRepository())
}
