// Package entities - LedgerEntry is an immutable, append-only DEBIT or CREDIT
// record for a wallet, carrying a running-balance snapshot.
package entities

import (
	"time"

	"github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// EntryType marks the direction of a ledger entry.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// IsValid checks if the entry type is valid.
func (t EntryType) IsValid() bool {
	return t == EntryTypeDebit || t == EntryTypeCredit
}

// LedgerEntry represents one side of a double-entry movement.
//
// Инварианты:
// - Immutable once written, append-only
// - runningBalance равен балансу кошелька сразу после применения записи
// - Каждая транзакция порождает ровно одну DEBIT и одну CREDIT запись
type LedgerEntry struct {
	id                   uuid.UUID
	transactionID        uuid.UUID
	walletID             uuid.UUID
	assetTypeID          uuid.UUID
	entryType            EntryType
	amount               valueobjects.Amount
	runningBalance       valueobjects.Amount
	counterpartyWalletID *uuid.UUID
	description          string
	createdAt            time.Time
}

// NewLedgerEntry creates a ledger entry for one side of a movement.
// Both entries of a transaction must share the same createdAt timestamp;
// the double-entry writer passes it explicitly.
func NewLedgerEntry(
	transactionID, walletID, assetTypeID uuid.UUID,
	entryType EntryType,
	amount, runningBalance valueobjects.Amount,
	counterpartyWalletID *uuid.UUID,
	description string,
	createdAt time.Time,
) (*LedgerEntry, error) {
	if !entryType.IsValid() {
		return nil, errors.ValidationError{
			Field:   "entryType",
			Message: "entry type must be DEBIT or CREDIT",
		}
	}
	if !amount.IsPositive() {
		return nil, errors.ValidationError{
			Field:   "amount",
			Message: "entry amount must be positive",
		}
	}

	return &LedgerEntry{
		id:                   uuid.New(),
		transactionID:        transactionID,
		walletID:             walletID,
		assetTypeID:          assetTypeID,
		entryType:            entryType,
		amount:               amount,
		runningBalance:       runningBalance,
		counterpartyWalletID: counterpartyWalletID,
		description:          description,
		createdAt:            createdAt,
	}, nil
}

// ReconstructLedgerEntry reconstructs a LedgerEntry from stored data.
func ReconstructLedgerEntry(
	id, transactionID, walletID, assetTypeID uuid.UUID,
	entryType EntryType,
	amount, runningBalance valueobjects.Amount,
	counterpartyWalletID *uuid.UUID,
	description string,
	createdAt time.Time,
) *LedgerEntry {
	return &LedgerEntry{
		id:                   id,
		transactionID:        transactionID,
		walletID:             walletID,
		assetTypeID:          assetTypeID,
		entryType:            entryType,
		amount:               amount,
		runningBalance:       runningBalance,
		counterpartyWalletID: counterpartyWalletID,
		description:          description,
		createdAt:            createdAt,
	}
}

func (e *LedgerEntry) ID() uuid.UUID                         { return e.id }
func (e *LedgerEntry) TransactionID() uuid.UUID              { return e.transactionID }
func (e *LedgerEntry) WalletID() uuid.UUID                   { return e.walletID }
func (e *LedgerEntry) AssetTypeID() uuid.UUID                { return e.assetTypeID }
func (e *LedgerEntry) EntryType() EntryType                  { return e.entryType }
func (e *LedgerEntry) Amount() valueobjects.Amount           { return e.amount }
func (e *LedgerEntry) RunningBalance() valueobjects.Amount   { return e.runningBalance }
func (e *LedgerEntry) CounterpartyWalletID() *uuid.UUID      { return e.counterpartyWalletID }
func (e *LedgerEntry) Description() string                   { return e.description }
func (e *LedgerEntry) CreatedAt() time.Time                  { return e.createdAt }
