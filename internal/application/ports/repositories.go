// Package ports определяет интерфейсы (порты) для внешних зависимостей.
// Эти интерфейсы реализуются в Infrastructure Layer.
//
// Pattern: Repository Pattern + Ports & Adapters (Hexagonal Architecture)
package ports

import (
	"context"
	"time"

	"github.com/Haleralex/coinvault/internal/domain/entities"
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// AssetTypeRepository определяет контракт для чтения asset types.
// Asset types сидируются при деплое; ядро их не изменяет.
type AssetTypeRepository interface {
	// FindByID загружает asset type по ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.AssetType, error)

	// FindByCode загружает asset type по уникальному коду ("GOLD").
	FindByCode(ctx context.Context, code string) (*entities.AssetType, error)

	// List возвращает все asset types.
	List(ctx context.Context) ([]*entities.AssetType, error)
}

// WalletRepository определяет контракт для хранения кошельков.
//
// Важно: баланс кошелька изменяется ТОЛЬКО через CompareAndSwapBalance,
// всегда под каноничной блокировкой кошелька (см. WalletLocker).
type WalletRepository interface {
	// Insert создаёт новый кошелёк (balance 0, version 0).
	// При нарушении unique (owner_id, owner_type, asset_type_id)
	// возвращает ErrEntityAlreadyExists.
	Insert(ctx context.Context, wallet *entities.Wallet) error

	// FindByID загружает кошелёк по ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)

	// FindByOwnerAndAsset находит кошелёк по тройке (owner, ownerType, asset).
	FindByOwnerAndAsset(ctx context.Context, ownerID string, ownerType entities.OwnerType, assetTypeID uuid.UUID) (*entities.Wallet, error)

	// FindByOwner возвращает все кошельки владельца.
	FindByOwner(ctx context.Context, ownerID string, ownerType entities.OwnerType) ([]*entities.Wallet, error)

	// CompareAndSwapBalance выполняет оптимистичное обновление баланса:
	//
	//   UPDATE wallets SET balance = $new, version = $expected + 1
	//   WHERE id = $id AND version = $expected
	//
	// Если ни одна строка не обновлена - версия изменилась конкурентно -
	// возвращает ConcurrencyError.
	CompareAndSwapBalance(ctx context.Context, walletID uuid.UUID, newBalance valueobjects.Amount, expectedVersion int64) error
}

// LedgerEntryRepository определяет контракт для append-only журнала.
type LedgerEntryRepository interface {
	// Append записывает одну ledger entry. Записи никогда не изменяются.
	Append(ctx context.Context, entry *entities.LedgerEntry) error

	// FindByTransaction возвращает записи транзакции (обычно ровно две).
	FindByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error)

	// FindByWallet возвращает историю кошелька, отсортированную по
	// (created_at, id), с пагинацией.
	FindByWallet(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]*entities.LedgerEntry, error)

	// SumByWallet возвращает суммы CREDIT и DEBIT записей кошелька.
	// Используется для статистики и сверки баланса (balance == credits - debits).
	SumByWallet(ctx context.Context, walletID uuid.UUID) (credits, debits valueobjects.Amount, err error)

	// CountByWallet возвращает число записей кошелька.
	CountByWallet(ctx context.Context, walletID uuid.UUID) (int64, error)
}

// TransactionRepository определяет контракт для хранения заголовков транзакций.
type TransactionRepository interface {
	// Insert вставляет заголовок транзакции.
	// Unique index на idempotency_key - долговечная защита от повторного
	// выполнения; при нарушении возвращает ErrRequestAlreadyProcessing.
	Insert(ctx context.Context, tx *entities.Transaction) error

	// FindByID загружает транзакцию по ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)

	// FindByIdempotencyKey находит транзакцию по ключу идемпотентности.
	// Нужна для восстановления результата при потере кэша идемпотентности.
	FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error)
}

// WalletStats агрегирует обороты кошелька для read-side запросов.
type WalletStats struct {
	WalletID     uuid.UUID
	TotalCredits valueobjects.Amount
	TotalDebits  valueobjects.Amount
	EntryCount   int64
}

// BalanceCache - read-through кэш балансов для query layer.
// Не участвует в ядре: инвалидируется после коммита, может быть потерян.
type BalanceCache interface {
	Get(ctx context.Context, walletID uuid.UUID) (valueobjects.Amount, bool, error)
	Set(ctx context.Context, walletID uuid.UUID, balance valueobjects.Amount, ttl time.Duration) error
	Invalidate(ctx context.Context, walletID uuid.UUID) error
}
