// Package postgres - LedgerEntryRepository: append-only журнал.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.LedgerEntryRepository = (*LedgerEntryRepository)(nil)

// LedgerEntryRepository реализует ports.LedgerEntryRepository.
// Записи только добавляются; UPDATE и DELETE по журналу не существуют.
type LedgerEntryRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerEntryRepository создаёт новый LedgerEntryRepository.
func NewLedgerEntryRepository(pool *pgxpool.Pool) *LedgerEntryRepository {
	return &LedgerEntryRepository{pool: pool}
}

func (r *LedgerEntryRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Append записывает одну ledger entry.
func (r *LedgerEntryRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO ledger_entries (
			id, transaction_id, wallet_id, asset_type_id, entry_type,
			amount, running_balance, counterparty_wallet_id, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := q.Exec(ctx, query,
		entry.ID(),
		entry.TransactionID(),
		entry.WalletID(),
		entry.AssetTypeID(),
		string(entry.EntryType()),
		entry.Amount().Decimal(),
		entry.RunningBalance().Decimal(),
		entry.CounterpartyWalletID(),
		entry.Description(),
		entry.CreatedAt(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: referenced wallet or transaction missing", domainErrors.ErrEntityNotFound)
		}
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return nil
}

// FindByTransaction возвращает записи транзакции (обычно ровно две).
func (r *LedgerEntryRepository) FindByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, transaction_id, wallet_id, asset_type_id, entry_type,
		       amount, running_balance, counterparty_wallet_id, description, created_at
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY entry_type
	`

	return r.queryEntries(ctx, q, query, transactionID)
}

// FindByWallet возвращает историю кошелька, новые записи первыми.
func (r *LedgerEntryRepository) FindByWallet(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]*entities.LedgerEntry, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, transaction_id, wallet_id, asset_type_id, entry_type,
		       amount, running_balance, counterparty_wallet_id, description, created_at
		FROM ledger_entries
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3
	`

	return r.queryEntries(ctx, q, query, walletID, offset, limit)
}

// SumByWallet возвращает суммы CREDIT и DEBIT записей кошелька.
func (r *LedgerEntryRepository) SumByWallet(ctx context.Context, walletID uuid.UUID) (valueobjects.Amount, valueobjects.Amount, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'CREDIT'), 0),
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'DEBIT'), 0)
		FROM ledger_entries
		WHERE wallet_id = $1
	`

	var credits, debits decimal.Decimal
	if err := q.QueryRow(ctx, query, walletID).Scan(&credits, &debits); err != nil {
		return valueobjects.Amount{}, valueobjects.Amount{}, fmt.Errorf("failed to sum ledger entries: %w", err)
	}

	creditAmount, err := valueobjects.AmountFromDecimal(credits)
	if err != nil {
		return valueobjects.Amount{}, valueobjects.Amount{}, fmt.Errorf("corrupt credit sum: %w", err)
	}
	debitAmount, err := valueobjects.AmountFromDecimal(debits)
	if err != nil {
		return valueobjects.Amount{}, valueobjects.Amount{}, fmt.Errorf("corrupt debit sum: %w", err)
	}

	return creditAmount, debitAmount, nil
}

// CountByWallet возвращает число записей кошелька.
func (r *LedgerEntryRepository) CountByWallet(ctx context.Context, walletID uuid.UUID) (int64, error) {
	q := r.getQuerier(ctx)

	var count int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries WHERE wallet_id = $1`, walletID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return count, nil
}

func (r *LedgerEntryRepository) queryEntries(ctx context.Context, q querier, query string, args ...any) ([]*entities.LedgerEntry, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*entities.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanLedgerEntry(row pgx.Row) (*entities.LedgerEntry, error) {
	var (
		id             uuid.UUID
		transactionID  uuid.UUID
		walletID       uuid.UUID
		assetTypeID    uuid.UUID
		entryType      string
		amount         decimal.Decimal
		runningBalance decimal.Decimal
		counterparty   *uuid.UUID
		description    string
		createdAt      time.Time
	)

	err := row.Scan(&id, &transactionID, &walletID, &assetTypeID, &entryType,
		&amount, &runningBalance, &counterparty, &description, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
	}

	amountVO, err := valueobjects.AmountFromDecimal(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount for entry %s: %w", id, err)
	}
	balanceVO, err := valueobjects.AmountFromDecimal(runningBalance)
	if err != nil {
		return nil, fmt.Errorf("corrupt running balance for entry %s: %w", id, err)
	}

	return entities.ReconstructLedgerEntry(
		id, transactionID, walletID, assetTypeID,
		entities.EntryType(entryType),
		amountVO, balanceVO,
		counterparty, description, createdAt,
	), nil
}
