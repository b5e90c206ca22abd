// Package db инициализирует базу данных сервиса пользователей.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	userspg "userapi/internal/users/adapters/postgres"
	"userapi/internal/users/config"
	"userapi/pkg/db/postgres"
	"userapi/pkg/logger"
)

// Константы для сообщений логгера.
const (
	LogDBInitializing = "initializing users database"
	LogDBInitialized  = "users database initialized successfully"
)

// Константы для сообщений об ошибках.
const (
	ErrDBConnection = "failed to connect to users database"
	ErrDBSchema     = "failed to prepare users schema"
)

// DB представляет соединение с базой данных сервиса пользователей.
type DB struct {
	database *postgres.Database
}

// New открывает пул соединений и создает таблицу users, если ее нет.
// При ошибке схемы пул закрывается.
func New(ctx context.Context, cfg *config.PostgresConfig) (*DB, error) {
	log := logger.Log(ctx)

	log.Info(ctx, LogDBInitializing,
		zap.String("dsn", cfg.RedactedURL()),
		zap.Int("min_conn", cfg.MinConn),
		zap.Int("max_conn", cfg.MaxConn))

	database, err := postgres.New(ctx, cfg.GetDSN(), cfg.MinConn, cfg.MaxConn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrDBConnection, err)
	}

	if err := initSchema(ctx, database); err != nil {
		database.Close(ctx)
		return nil, fmt.Errorf("%s: %w", ErrDBSchema, err)
	}

	log.Info(ctx, LogDBInitialized)

	return &DB{
		database: database,
	}, nil
}

func initSchema(ctx context.Context, database *postgres.Database) error {
	conn, err := database.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return userspg.EnsureSchema(ctx, conn)
}

// Close закрывает соединение с базой данных.
func (db *DB) Close(ctx context.Context) {
	db.database.Close(ctx)
}

// Pool возвращает пул соединений с базой данных.
func (db *DB) Pool() *pgxpool.Pool {
	return db.database.Pool()
}

// Ping проверяет соединение с базой данных.
func (db *DB) Ping(ctx context.Context) error {
	return db.database.Ping(ctx)
}
