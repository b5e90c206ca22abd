// Package postgres управляет пулом соединений с PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"userapi/pkg/logger"
)

// Константы для сообщений logger.
const (
	LogConnecting = "connecting to Postgres database"
	LogConnected  = "successfully connected to Postgres"
	LogClosing    = "closing Postgres connection pool"
)

// Константы для сообщений об ошибках.
const (
	ErrParseConfig     = "failed to parse connection config"
	ErrInvalidPoolSize = "invalid pool size"
	ErrCreatePool      = "failed to create connection pool"
	ErrPingDatabase    = "failed to ping database"
	ErrAcquireConn     = "failed to acquire connection"
)

// Database владеет пулом соединений с Postgres.
type Database struct {
	pool *pgxpool.Pool
}

// New создает пул соединений и проверяет его доступность.
func New(ctx context.Context, dsn string, minConn, maxConn int) (*Database, error) {
	log := logger.Log(ctx)

	log.Info(ctx, LogConnecting, zap.Int("min_conn", minConn), zap.Int("max_conn", maxConn))

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Error(ctx, ErrParseConfig, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrParseConfig, err)
	}

	if minConn < 0 || maxConn < 1 || minConn > maxConn {
		return nil, fmt.Errorf("%s: min=%d max=%d", ErrInvalidPoolSize, minConn, maxConn)
	}

	poolCfg.MinConns = int32(minConn) // #nosec G115 - bounded above
	poolCfg.MaxConns = int32(maxConn) // #nosec G115 - bounded above

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error(ctx, ErrCreatePool, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrCreatePool, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		log.Error(ctx, ErrPingDatabase, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrPingDatabase, err)
	}

	log.Info(ctx, LogConnected)
	return &Database{pool: pool}, nil
}

// Pool возвращает пул соединений.
func (db *Database) Pool() *pgxpool.Pool {
	return db.pool
}

// Acquire выдает соединение в монопольное пользование, ожидая освобождения,
// если пул исчерпан. Вызывающий обязан вернуть его через Release.
func (db *Database) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrAcquireConn, err)
	}
	return conn, nil
}

// Close закрывает пул.
func (db *Database) Close(ctx context.Context) {
	logger.Log(ctx).Info(ctx, LogClosing)
	db.pool.Close()
}

// Ping проверяет доступность базы данных.
func (db *Database) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}
