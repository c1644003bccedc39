package events_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/Haleralex/coinvault/internal/domain/entities"
	"github.com/Haleralex/coinvault/internal/domain/events"
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
)

// TestNewWalletCreated tests the wallet provisioning event.
func TestNewWalletCreated(t *testing.T) {
	walletID := uuid.New()
	assetTypeID := uuid.New()

	event := events.NewWalletCreated(walletID, "user-42", entities.OwnerTypeUser, assetTypeID)

	if event.EventType() != events.EventTypeWalletCreated {
		t.Errorf("EventType() = %q, want %q", event.EventType(), events.EventTypeWalletCreated)
	}
	if event.AggregateID() != walletID {
		t.Error("AggregateID must be the wallet ID")
	}
	if event.EventID() == uuid.Nil {
		t.Error("EventID must be generated")
	}
	if event.OccurredAt().IsZero() {
		t.Error("OccurredAt must be set")
	}
	if event.OwnerID != "user-42" {
		t.Errorf("OwnerID = %q", event.OwnerID)
	}
}

// TestNewWalletBalanceChanged tests the balance change event.
func TestNewWalletBalanceChanged(t *testing.T) {
	walletID := uuid.New()
	transactionID := uuid.New()

	event := events.NewWalletBalanceChanged(
		walletID, transactionID,
		entities.EntryTypeCredit,
		valueobjects.MustParseAmount("500"),
		valueobjects.MustParseAmount("1500"),
	)

	if event.EventType() != events.EventTypeWalletBalanceChanged {
		t.Errorf("EventType() = %q", event.EventType())
	}
	if event.AggregateID() != walletID {
		t.Error("AggregateID must be the wallet ID")
	}
	if event.TransactionID != transactionID {
		t.Error("TransactionID mismatch")
	}
	if event.NewBalance.String() != "1500" {
		t.Errorf("NewBalance = %q", event.NewBalance.String())
	}
}

// TestNewTransactionRecorded tests the transaction commit event.
func TestNewTransactionRecorded(t *testing.T) {
	transactionID := uuid.New()
	fromWalletID := uuid.New()
	toWalletID := uuid.New()

	event := events.NewTransactionRecorded(
		transactionID,
		entities.TransactionTypePurchase,
		"idem-key-7",
		valueobjects.MustParseAmount("250"),
		&fromWalletID,
		toWalletID,
	)

	if event.EventType() != events.EventTypeTransactionRecorded {
		t.Errorf("EventType() = %q", event.EventType())
	}
	if event.AggregateID() != transactionID {
		t.Error("AggregateID must be the transaction ID")
	}
	if event.IdempotencyKey != "idem-key-7" {
		t.Errorf("IdempotencyKey = %q", event.IdempotencyKey)
	}
	if event.FromWalletID == nil || *event.FromWalletID != fromWalletID {
		t.Error("FromWalletID mismatch")
	}
	if event.ToWalletID != toWalletID {
		t.Error("ToWalletID mismatch")
	}
}

// TestEventIDs_AreUnique tests that each event gets its own identity.
func TestEventIDs_AreUnique(t *testing.T) {
	a := events.NewWalletCreated(uuid.New(), "user-1", entities.OwnerTypeUser, uuid.New())
	b := events.NewWalletCreated(uuid.New(), "user-1", entities.OwnerTypeUser, uuid.New())

	if a.EventID() == b.EventID() {
		t.Error("Two events must not share an EventID")
	}
}
