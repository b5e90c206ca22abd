package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"userapi/pkg/logger"
)

const (
	LogEnsuringSchema = "ensuring users table exists"
	LogSchemaReady    = "users table is ready"
	ErrEnsureSchema   = "failed to ensure users table"
)

// CreateUsersTable - идемпотентный DDL таблицы пользователей.
const CreateUsersTable = `
    CREATE TABLE IF NOT EXISTS users (
        id SERIAL PRIMARY KEY,
        username TEXT NOT NULL,
        email TEXT UNIQUE NOT NULL
    )
`

// Execer выполняет оператор без результата; им может быть соединение
// из пула или сам пул.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
}

// EnsureSchema создает таблицу users, если ее еще нет.
func EnsureSchema(ctx context.Context, conn Execer) error {
	log := logger.Log(ctx)
	log.Info(ctx, LogEnsuringSchema)

	if _, err := conn.Exec(ctx, CreateUsersTable); err != nil {
		log.Error(ctx, ErrEnsureSchema, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrEnsureSchema, err)
	}

	log.Info(ctx, LogSchemaReady)
	return nil
}
