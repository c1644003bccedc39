// Package entities - Wallet is the core entity of the ledger: the balance
// record for one (owner, asset) pair. It enforces non-negativity and carries
// the version counter used for optimistic locking.
package entities

import (
	"time"

	"github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// OwnerType distinguishes user wallets from system wallets (Treasury, Revenue).
type OwnerType string

const (
	OwnerTypeUser   OwnerType = "USER"
	OwnerTypeSystem OwnerType = "SYSTEM"
)

// IsValid checks if the owner type is valid.
func (t OwnerType) IsValid() bool {
	return t == OwnerTypeUser || t == OwnerTypeSystem
}

// Wallet represents the balance record for one (ownerID, ownerType, assetType)
// triple. Уникальность тройки гарантируется unique index в БД.
//
// Entity Pattern:
// - Has identity (ID)
// - Enforces invariants (non-negative balance, version monotonicity)
// - Mutated only by the double-entry writer, never deleted
type Wallet struct {
	id          uuid.UUID
	ownerID     string // Opaque owner identity, e.g. "user-rich-001" or "treasury"
	ownerType   OwnerType
	assetTypeID uuid.UUID

	balance valueobjects.Amount
	version int64 // Optimistic locking version, starts at 0

	createdAt time.Time
	updatedAt time.Time
}

// NewWallet creates a new wallet with zero balance and version 0.
// Called on first use of a (user, asset) pair; system wallets are seeded.
func NewWallet(ownerID string, ownerType OwnerType, assetTypeID uuid.UUID) (*Wallet, error) {
	if ownerID == "" {
		return nil, errors.ValidationError{
			Field:   "ownerId",
			Message: "owner ID is required",
		}
	}
	if !ownerType.IsValid() {
		return nil, errors.ValidationError{
			Field:   "ownerType",
			Message: "owner type must be USER or SYSTEM",
		}
	}
	if assetTypeID == uuid.Nil {
		return nil, errors.ValidationError{
			Field:   "assetTypeId",
			Message: "asset type ID is required",
		}
	}

	now := time.Now()
	return &Wallet{
		id:          uuid.New(),
		ownerID:     ownerID,
		ownerType:   ownerType,
		assetTypeID: assetTypeID,
		balance:     valueobjects.ZeroAmount(),
		version:     0,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructWallet reconstructs a Wallet from stored data.
// Used by repository to hydrate entities from database.
func ReconstructWallet(
	id uuid.UUID,
	ownerID string,
	ownerType OwnerType,
	assetTypeID uuid.UUID,
	balance valueobjects.Amount,
	version int64,
	createdAt, updatedAt time.Time,
) *Wallet {
	return &Wallet{
		id:          id,
		ownerID:     ownerID,
		ownerType:   ownerType,
		assetTypeID: assetTypeID,
		balance:     balance,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// Getters

func (w *Wallet) ID() uuid.UUID                { return w.id }
func (w *Wallet) OwnerID() string              { return w.ownerID }
func (w *Wallet) OwnerType() OwnerType         { return w.ownerType }
func (w *Wallet) AssetTypeID() uuid.UUID       { return w.assetTypeID }
func (w *Wallet) Balance() valueobjects.Amount { return w.balance }
func (w *Wallet) Version() int64               { return w.version }
func (w *Wallet) CreatedAt() time.Time         { return w.createdAt }
func (w *Wallet) UpdatedAt() time.Time         { return w.updatedAt }

// Business Methods

// HasSufficientBalance checks if the wallet can cover the given amount.
func (w *Wallet) HasSufficientBalance(amount valueobjects.Amount) bool {
	return w.balance.GreaterThanOrEqual(amount)
}

// Credit adds funds to the wallet and bumps the version.
// Returns the new balance for running-balance bookkeeping.
func (w *Wallet) Credit(amount valueobjects.Amount) (valueobjects.Amount, error) {
	if !amount.IsPositive() {
		return valueobjects.Amount{}, errors.ValidationError{
			Field:   "amount",
			Message: "credit amount must be positive",
		}
	}

	w.balance = w.balance.Add(amount)
	w.version++ // Increment version for optimistic locking
	w.updatedAt = time.Now()

	return w.balance, nil
}

// Debit subtracts funds from the wallet and bumps the version.
//
// Business rule: balances never go negative, user and system wallets alike.
func (w *Wallet) Debit(amount valueobjects.Amount) (valueobjects.Amount, error) {
	if !amount.IsPositive() {
		return valueobjects.Amount{}, errors.ValidationError{
			Field:   "amount",
			Message: "debit amount must be positive",
		}
	}

	if !w.HasSufficientBalance(amount) {
		return valueobjects.Amount{}, errors.ErrInsufficientBalance
	}

	newBalance, err := w.balance.Sub(amount)
	if err != nil {
		return valueobjects.Amount{}, err
	}

	w.balance = newBalance
	w.version++
	w.updatedAt = time.Now()

	return w.balance, nil
}
