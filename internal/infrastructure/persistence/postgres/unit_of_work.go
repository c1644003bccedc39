// Package postgres - UnitOfWork implementation для PostgreSQL.
//
// Unit of Work Pattern:
// - Управляет границами транзакций
// - Обеспечивает атомарность операций
// - Автоматический ROLLBACK при ошибках, COMMIT при успехе
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/coinvault/internal/application/ports"
)

// Compile-time check
var (
	_ ports.UnitOfWork             = (*UnitOfWork)(nil)
	_ ports.SerializableUnitOfWork = (*SerializableUnitOfWork)(nil)
)

// Таймауты serializable транзакций ядра.
// statement_timeout ограничивает всю транзакцию, lock_timeout - ожидание
// каждой строчной блокировки внутри БД.
const (
	DefaultStatementTimeout = 10 * time.Second
	DefaultLockTimeout      = 5 * time.Second
)

// UnitOfWork реализует ports.UnitOfWork с PostgreSQL транзакциями.
//
// Thread-safe: использует connection pool.
// Transaction isolation: по умолчанию READ COMMITTED.
type UnitOfWork struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewUnitOfWork создаёт новый UnitOfWork.
func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{
		pool: pool,
		opts: pgx.TxOptions{
			IsoLevel: pgx.ReadCommitted,
		},
	}
}

// Execute выполняет функцию внутри транзакции.
//
// Поведение:
// - Начинает транзакцию и внедряет её в context
// - Если fn возвращает nil: COMMIT
// - Если fn возвращает error: ROLLBACK
// - Если panic: ROLLBACK + re-panic
//
// ВАЖНО: Все repositories внутри fn должны использовать переданный txCtx!
func (u *UnitOfWork) Execute(ctx context.Context, fn func(context.Context) error) error {
	return executeInTx(ctx, u.pool, u.opts, nil, fn)
}

// SerializableUnitOfWork открывает транзакции ядра:
// SERIALIZABLE изоляция + statement_timeout + lock_timeout.
//
// Вторая линия защиты после распределённых блокировок: даже если
// блокировки отказали, аномалию поймает сериализация (SQLSTATE 40001).
type SerializableUnitOfWork struct {
	pool             *pgxpool.Pool
	statementTimeout time.Duration
	lockTimeout      time.Duration
}

// NewSerializableUnitOfWork создаёт serializable UnitOfWork.
// Нулевые таймауты заменяются дефолтными.
func NewSerializableUnitOfWork(pool *pgxpool.Pool, statementTimeout, lockTimeout time.Duration) *SerializableUnitOfWork {
	if statementTimeout <= 0 {
		statementTimeout = DefaultStatementTimeout
	}
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &SerializableUnitOfWork{
		pool:             pool,
		statementTimeout: statementTimeout,
		lockTimeout:      lockTimeout,
	}
}

// Execute выполняет fn в SERIALIZABLE транзакции с таймаутами.
func (u *SerializableUnitOfWork) Execute(ctx context.Context, fn func(context.Context) error) error {
	setup := func(ctx context.Context, tx pgx.Tx) error {
		// SET LOCAL действует до конца транзакции
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", u.statementTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("failed to set statement timeout: %w", err)
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
		return nil
	}

	return executeInTx(ctx, u.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, setup, fn)
}

// executeInTx - общий каркас транзакции: begin, setup, fn, commit/rollback.
func executeInTx(
	ctx context.Context,
	pool *pgxpool.Pool,
	opts pgx.TxOptions,
	setup func(context.Context, pgx.Tx) error,
	fn func(context.Context) error,
) error {
	// Уже внутри транзакции - просто выполняем функцию
	// (PostgreSQL не поддерживает true nested transactions)
	if hasTx(ctx) {
		return fn(ctx)
	}

	tx, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if setup != nil {
		if err := setup(ctx, tx); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}

	txCtx := injectTx(ctx, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
