// Package postgres implements storage.Store backed by PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"

	"elementalVault/internal/storage"
)

// Config holds connection settings.
type Config struct {
	DSN          string
	MaxRetries   int
	RetryBackoff time.Duration
}

// Store provides Postgres persistence for vault state and custody balances.
// Update serializes on a transaction-scoped advisory lock per LockKey.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ storage.Store = (*Store)(nil)

func NewStore(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse pg dsn: %w", err)
	}
	poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
		LogLevel: tracelog.LogLevelWarn,
		Logger:   &pgxLogger{logger: logger.With(zap.String("db", poolCfg.ConnConfig.Database))},
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := newRetryPolicy(cfg, logger).do(ctx, "postgres ping", pool.Ping); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Update runs fn in a read-write transaction holding the advisory lock for key.
func (s *Store) Update(ctx context.Context, key storage.LockKey, fn func(tx storage.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer s.rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, string(key)); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// View runs fn in a read-only repeatable-read transaction.
func (s *Store) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer s.rollback(ctx, tx)

	return fn(&pgTx{tx: tx, readOnly: true})
}

func (s *Store) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.logger.Warn("rollback failed", zap.Error(err))
	}
}

// pgxLogger routes pgx trace output to zap.
type pgxLogger struct {
	logger *zap.Logger
}

func (l *pgxLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]interface{}) {
	fields := make([]zap.Field, 0, len(data))
	for k, v := range data {
		fields = append(fields, zap.Any(k, v))
	}

	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		l.logger.Debug(msg, fields...)
	case tracelog.LogLevelInfo:
		l.logger.Info(msg, fields...)
	case tracelog.LogLevelWarn:
		l.logger.Warn(msg, fields...)
	default:
		l.logger.Error(msg, fields...)
	}
}
