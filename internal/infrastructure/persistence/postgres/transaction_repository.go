// Package postgres - TransactionRepository: заголовки транзакций.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinvault/internal/domain/errors"
)

// Compile-time check
var _ ports.TransactionRepository = (*TransactionRepository)(nil)

// TransactionRepository реализует ports.TransactionRepository.
//
// Unique index на idempotency_key - каноничная, долговечная защита
// от повторного исполнения. Redis-кэш поверх него - только оптимизация.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository создаёт новый TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Insert вставляет заголовок транзакции.
func (r *TransactionRepository) Insert(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	metadata, err := tx.MetadataJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize metadata: %w", err)
	}

	query := `
		INSERT INTO transactions (
			id, idempotency_key, type, status, metadata, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = q.Exec(ctx, query,
		tx.ID(),
		tx.IdempotencyKey(),
		string(tx.Type()),
		string(tx.Status()),
		metadata,
		tx.CreatedAt(),
		tx.CompletedAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "transactions_idempotency_key") {
			return fmt.Errorf("%w: idempotency key %q", domainErrors.ErrRequestAlreadyProcessing, tx.IdempotencyKey())
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// FindByID загружает транзакцию по ID.
func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, idempotency_key, type, status, metadata, created_at, completed_at
		FROM transactions
		WHERE id = $1
	`

	return scanTransaction(q.QueryRow(ctx, query, id))
}

// FindByIdempotencyKey находит транзакцию по ключу идемпотентности.
func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, idempotency_key, type, status, metadata, created_at, completed_at
		FROM transactions
		WHERE idempotency_key = $1
	`

	return scanTransaction(q.QueryRow(ctx, query, key))
}

func scanTransaction(row pgx.Row) (*entities.Transaction, error) {
	var (
		id          uuid.UUID
		key         string
		txType      string
		status      string
		metadata    []byte
		createdAt   time.Time
		completedAt *time.Time
	)

	err := row.Scan(&id, &key, &txType, &status, &metadata, &createdAt, &completedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	var metadataMap map[string]interface{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &metadataMap); err != nil {
			return nil, fmt.Errorf("corrupt metadata for transaction %s: %w", id, err)
		}
	}

	return entities.ReconstructTransaction(
		id, key,
		entities.TransactionType(txType),
		entities.TransactionStatus(status),
		metadataMap, createdAt, completedAt,
	), nil
}
