// Package entities - Transaction is the header row anchoring exactly two
// ledger entries. One Transaction per business action.
package entities

import (
	"encoding/json"
	"time"

	"github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/google/uuid"
)

// TransactionType represents the kind of business action.
type TransactionType string

const (
	TransactionTypeTopup    TransactionType = "TOPUP"    // Treasury -> user wallet
	TransactionTypeBonus    TransactionType = "BONUS"    // Revenue -> user wallet
	TransactionTypePurchase TransactionType = "PURCHASE" // User wallet -> Revenue
	TransactionTypeTransfer TransactionType = "TRANSFER" // Reserved, not constructed by the core
)

// IsValid checks if the transaction type is valid.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeTopup, TransactionTypeBonus, TransactionTypePurchase, TransactionTypeTransfer:
		return true
	default:
		return false
	}
}

// TransactionStatus represents the state of a transaction header.
// Ядро пишет только COMPLETED: header и обе записи коммитятся атомарно.
// FAILED и ROLLED_BACK зарезервированы для будущих расширений.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
	TransactionStatusRolledBack TransactionStatus = "ROLLED_BACK"
)

// IsValid checks if the transaction status is valid.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusRolledBack:
		return true
	default:
		return false
	}
}

// Transaction is the header of a ledger movement.
//
// Patterns Applied:
// - Idempotency: unique idempotency key per transaction (client-provided)
// - Immutability: inserted once with terminal status, never updated
type Transaction struct {
	id             uuid.UUID
	idempotencyKey string
	txType         TransactionType
	status         TransactionStatus
	metadata       map[string]interface{}
	createdAt      time.Time
	completedAt    *time.Time
}

// NewCompletedTransaction creates a transaction header in COMPLETED status.
// The header is inserted inside the same serializable database transaction as
// both ledger entries, so a committed header always has its entries.
func NewCompletedTransaction(
	id uuid.UUID,
	idempotencyKey string,
	txType TransactionType,
	metadata map[string]interface{},
) (*Transaction, error) {
	if id == uuid.Nil {
		return nil, errors.ValidationError{
			Field:   "id",
			Message: "transaction ID is required",
		}
	}
	if idempotencyKey == "" {
		return nil, errors.ErrIdempotencyKeyRequired
	}
	if !txType.IsValid() {
		return nil, errors.ValidationError{
			Field:   "type",
			Message: "invalid transaction type",
		}
	}

	now := time.Now()
	return &Transaction{
		id:             id,
		idempotencyKey: idempotencyKey,
		txType:         txType,
		status:         TransactionStatusCompleted,
		metadata:       metadata,
		createdAt:      now,
		completedAt:    &now,
	}, nil
}

// ReconstructTransaction reconstructs a Transaction from stored data.
func ReconstructTransaction(
	id uuid.UUID,
	idempotencyKey string,
	txType TransactionType,
	status TransactionStatus,
	metadata map[string]interface{},
	createdAt time.Time,
	completedAt *time.Time,
) *Transaction {
	return &Transaction{
		id:             id,
		idempotencyKey: idempotencyKey,
		txType:         txType,
		status:         status,
		metadata:       metadata,
		createdAt:      createdAt,
		completedAt:    completedAt,
	}
}

func (t *Transaction) ID() uuid.UUID                    { return t.id }
func (t *Transaction) IdempotencyKey() string           { return t.idempotencyKey }
func (t *Transaction) Type() TransactionType            { return t.txType }
func (t *Transaction) Status() TransactionStatus        { return t.status }
func (t *Transaction) Metadata() map[string]interface{} { return t.metadata }
func (t *Transaction) CreatedAt() time.Time             { return t.createdAt }
func (t *Transaction) CompletedAt() *time.Time          { return t.completedAt }

// MetadataJSON serialises the metadata map for storage. Nil map -> nil.
func (t *Transaction) MetadataJSON() ([]byte, error) {
	if t.metadata == nil {
		return nil, nil
	}
	return json.Marshal(t.metadata)
}
