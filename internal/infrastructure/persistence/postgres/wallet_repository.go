// Package postgres - WalletRepository implementation with optimistic locking.
package postgres

import (
	"context"
	"errors"
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
var _ ports.WalletRepository = (*WalletRepository)(nil)

// WalletRepository реализует ports.WalletRepository.
//
// Особенности:
// - Optimistic Locking через version
// - Баланс хранится как NUMERIC(19,8), маппится в decimal
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository создаёт новый WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// getQuerier возвращает querier из context (transaction) или pool.
func (r *WalletRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Insert создаёт новый кошелёк.
func (r *WalletRepository) Insert(ctx context.Context, wallet *entities.Wallet) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO wallets (
			id, owner_id, owner_type, asset_type_id,
			balance, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query,
		wallet.ID(),
		wallet.OwnerID(),
		string(wallet.OwnerType()),
		wallet.AssetTypeID(),
		wallet.Balance().Decimal(),
		wallet.Version(),
		wallet.CreatedAt(),
		wallet.UpdatedAt(),
	)

	if err != nil {
		if isUniqueViolation(err, "wallets_owner_asset_unique") {
			return fmt.Errorf("%w: wallet for owner %s and asset %s",
				domainErrors.ErrEntityAlreadyExists, wallet.OwnerID(), wallet.AssetTypeID())
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: asset type %s", domainErrors.ErrAssetTypeNotFound, wallet.AssetTypeID())
		}
		return fmt.Errorf("failed to insert wallet: %w", err)
	}

	return nil
}

// FindByID загружает кошелёк по ID.
func (r *WalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, owner_id, owner_type, asset_type_id, balance, version, created_at, updated_at
		FROM wallets
		WHERE id = $1
	`

	return r.scanWallet(q.QueryRow(ctx, query, id))
}

// FindByOwnerAndAsset находит кошелёк по тройке (owner, ownerType, asset).
func (r *WalletRepository) FindByOwnerAndAsset(ctx context.Context, ownerID string, ownerType entities.OwnerType, assetTypeID uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, owner_id, owner_type, asset_type_id, balance, version, created_at, updated_at
		FROM wallets
		WHERE owner_id = $1 AND owner_type = $2 AND asset_type_id = $3
	`

	return r.scanWallet(q.QueryRow(ctx, query, ownerID, string(ownerType), assetTypeID))
}

// FindByOwner возвращает все кошельки владельца.
func (r *WalletRepository) FindByOwner(ctx context.Context, ownerID string, ownerType entities.OwnerType) ([]*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, owner_id, owner_type, asset_type_id, balance, version, created_at, updated_at
		FROM wallets
		WHERE owner_id = $1 AND owner_type = $2
		ORDER BY created_at
	`

	rows, err := q.Query(ctx, query, ownerID, string(ownerType))
	if err != nil {
		return nil, fmt.Errorf("failed to query wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*entities.Wallet
	for rows.Next() {
		wallet, err := r.scanWalletRow(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}
	return wallets, rows.Err()
}

// CompareAndSwapBalance выполняет оптимистичное обновление баланса.
//
// UPDATE обновляет строку только если версия не изменилась с момента
// чтения. RowsAffected == 0 означает конкурентное изменение.
func (r *WalletRepository) CompareAndSwapBalance(ctx context.Context, walletID uuid.UUID, newBalance valueobjects.Amount, expectedVersion int64) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE wallets SET
			balance = $2,
			version = $3,
			updated_at = $4
		WHERE id = $1 AND version = $5
	`

	result, err := q.Exec(ctx, query,
		walletID,
		newBalance.Decimal(),
		expectedVersion+1,
		time.Now(),
		expectedVersion,
	)
	if err != nil {
		if isCheckViolation(err) {
			// CHECK (balance >= 0) - последний рубеж против отрицательного баланса
			return fmt.Errorf("%w: wallet %s", domainErrors.ErrInsufficientBalance, walletID)
		}
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.NewConcurrencyError(
			"Wallet",
			walletID.String(),
			fmt.Sprintf("version %d no longer current", expectedVersion),
		)
	}

	return nil
}

// scanWallet сканирует одну строку в entity.
func (r *WalletRepository) scanWallet(row pgx.Row) (*entities.Wallet, error) {
	return r.scanWalletRow(row)
}

func (r *WalletRepository) scanWalletRow(row pgx.Row) (*entities.Wallet, error) {
	var (
		id          uuid.UUID
		ownerID     string
		ownerType   string
		assetTypeID uuid.UUID
		balance     decimal.Decimal
		version     int64
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := row.Scan(&id, &ownerID, &ownerType, &assetTypeID, &balance, &version, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}

	amount, err := valueobjects.AmountFromDecimal(balance)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance for wallet %s: %w", id, err)
	}

	return entities.ReconstructWallet(
		id, ownerID, entities.OwnerType(ownerType), assetTypeID,
		amount, version, createdAt, updatedAt,
	), nil
}
