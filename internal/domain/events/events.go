// Package events defines domain events that represent significant business occurrences.
// Events are immutable facts about what happened in the past.
//
// Pattern: Domain Events
// - Raised by the transaction executor after the ledger rows are staged
// - Persisted through the transactional outbox in the same database transaction
// - Relayed to NATS by a background publisher
package events

import (
	"time"

	"github.com/Haleralex/coinvault/internal/domain/entities"
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID // ID of the entity that raised this event
}

// BaseEvent provides common fields for all events.
// Embedded in specific event types to avoid duplication.
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID uuid.UUID
}

func newBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID {
	return e.eventID
}

func (e BaseEvent) EventType() string {
	return e.eventType
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

func (e BaseEvent) AggregateID() uuid.UUID {
	return e.aggregateID
}

// Event Types (constants for type checking and NATS subjects)
const (
	EventTypeWalletCreated        = "wallet.created"
	EventTypeWalletBalanceChanged = "wallet.balance.changed"
	EventTypeTransactionRecorded  = "transaction.recorded"
)

// WalletCreated is raised when a wallet is provisioned for an (owner, asset) pair.
type WalletCreated struct {
	BaseEvent
	OwnerID     string
	OwnerType   entities.OwnerType
	AssetTypeID uuid.UUID
}

func NewWalletCreated(walletID uuid.UUID, ownerID string, ownerType entities.OwnerType, assetTypeID uuid.UUID) *WalletCreated {
	return &WalletCreated{
		BaseEvent:   newBaseEvent(EventTypeWalletCreated, walletID),
		OwnerID:     ownerID,
		OwnerType:   ownerType,
		AssetTypeID: assetTypeID,
	}
}

// WalletBalanceChanged is raised for each wallet touched by a committed
// ledger transaction. Carries the post-commit balance snapshot.
type WalletBalanceChanged struct {
	BaseEvent
	TransactionID uuid.UUID
	EntryType     entities.EntryType
	Amount        valueobjects.Amount
	NewBalance    valueobjects.Amount
}

func NewWalletBalanceChanged(
	walletID, transactionID uuid.UUID,
	entryType entities.EntryType,
	amount, newBalance valueobjects.Amount,
) *WalletBalanceChanged {
	return &WalletBalanceChanged{
		BaseEvent:     newBaseEvent(EventTypeWalletBalanceChanged, walletID),
		TransactionID: transactionID,
		EntryType:     entryType,
		Amount:        amount,
		NewBalance:    newBalance,
	}
}

// TransactionRecorded is raised when a ledger transaction commits.
type TransactionRecorded struct {
	BaseEvent
	Type           entities.TransactionType
	IdempotencyKey string
	Amount         valueobjects.Amount
	FromWalletID   *uuid.UUID
	ToWalletID     uuid.UUID
}

func NewTransactionRecorded(
	transactionID uuid.UUID,
	txType entities.TransactionType,
	idempotencyKey string,
	amount valueobjects.Amount,
	fromWalletID *uuid.UUID,
	toWalletID uuid.UUID,
) *TransactionRecorded {
	return &TransactionRecorded{
		BaseEvent:      newBaseEvent(EventTypeTransactionRecorded, transactionID),
		Type:           txType,
		IdempotencyKey: idempotencyKey,
		Amount:         amount,
		FromWalletID:   fromWalletID,
		ToWalletID:     toWalletID,
	}
}
