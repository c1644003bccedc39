package entities_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Haleralex/coinvault/internal/domain/entities"
	domainerrors "github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
)

// TestNewWallet_Success tests wallet creation.
func TestNewWallet_Success(t *testing.T) {
	assetTypeID := uuid.New()

	wallet, err := entities.NewWallet("user-rich-001", entities.OwnerTypeUser, assetTypeID)
	if err != nil {
		t.Fatalf("NewWallet() error = %v", err)
	}

	if wallet.OwnerID() != "user-rich-001" {
		t.Errorf("OwnerID() = %q, want %q", wallet.OwnerID(), "user-rich-001")
	}
	if wallet.OwnerType() != entities.OwnerTypeUser {
		t.Errorf("OwnerType() = %q, want USER", wallet.OwnerType())
	}
	if wallet.AssetTypeID() != assetTypeID {
		t.Errorf("AssetTypeID() mismatch")
	}
	if !wallet.Balance().IsZero() {
		t.Errorf("New wallet balance = %q, want zero", wallet.Balance().String())
	}
	if wallet.Version() != 0 {
		t.Errorf("New wallet version = %d, want 0", wallet.Version())
	}
}

// TestNewWallet_Validation tests creation invariants.
func TestNewWallet_Validation(t *testing.T) {
	tests := []struct {
		name        string
		ownerID     string
		ownerType   entities.OwnerType
		assetTypeID uuid.UUID
	}{
		{"empty owner ID", "", entities.OwnerTypeUser, uuid.New()},
		{"invalid owner type", "user-1", entities.OwnerType("ROBOT"), uuid.New()},
		{"nil asset type", "user-1", entities.OwnerTypeUser, uuid.Nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := entities.NewWallet(tt.ownerID, tt.ownerType, tt.assetTypeID)
			if err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !domainerrors.IsValidation(err) {
				t.Errorf("Expected ValidationError, got %T", err)
			}
		})
	}
}

// TestWallet_Credit tests crediting and version increment.
func TestWallet_Credit(t *testing.T) {
	wallet := newTestWallet(t, "0")

	newBalance, err := wallet.Credit(valueobjects.MustParseAmount("500"))
	if err != nil {
		t.Fatalf("Credit() error = %v", err)
	}

	if newBalance.String() != "500" {
		t.Errorf("Credit() returned balance %q, want %q", newBalance.String(), "500")
	}
	if wallet.Balance().String() != "500" {
		t.Errorf("Balance() = %q, want %q", wallet.Balance().String(), "500")
	}
	if wallet.Version() != 1 {
		t.Errorf("Version after credit = %d, want 1", wallet.Version())
	}
}

// TestWallet_Credit_NonPositive tests that zero credits are rejected.
func TestWallet_Credit_NonPositive(t *testing.T) {
	wallet := newTestWallet(t, "100")

	_, err := wallet.Credit(valueobjects.ZeroAmount())
	if err == nil {
		t.Error("Expected error for zero credit, got nil")
	}
	if wallet.Version() != 0 {
		t.Errorf("Version changed on rejected credit: %d", wallet.Version())
	}
}

// TestWallet_Debit tests debiting.
func TestWallet_Debit(t *testing.T) {
	wallet := newTestWallet(t, "100")

	newBalance, err := wallet.Debit(valueobjects.MustParseAmount("30.5"))
	if err != nil {
		t.Fatalf("Debit() error = %v", err)
	}

	if newBalance.String() != "69.5" {
		t.Errorf("Debit() returned balance %q, want %q", newBalance.String(), "69.5")
	}
	if wallet.Version() != 1 {
		t.Errorf("Version after debit = %d, want 1", wallet.Version())
	}
}

// TestWallet_Debit_Insufficient tests the insufficient balance rule.
// Business Rule: Balances never go negative - user and system wallets alike.
func TestWallet_Debit_Insufficient(t *testing.T) {
	wallet := newTestWallet(t, "10")

	_, err := wallet.Debit(valueobjects.MustParseAmount("10.00000001"))
	if !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Errorf("Expected ErrInsufficientBalance, got %v", err)
	}

	// Rejected debit must not change state
	if wallet.Balance().String() != "10" {
		t.Errorf("Balance changed on rejected debit: %q", wallet.Balance().String())
	}
	if wallet.Version() != 0 {
		t.Errorf("Version changed on rejected debit: %d", wallet.Version())
	}
}

// TestWallet_Debit_ExactBalance tests debiting the full balance.
func TestWallet_Debit_ExactBalance(t *testing.T) {
	wallet := newTestWallet(t, "10")

	newBalance, err := wallet.Debit(valueobjects.MustParseAmount("10"))
	if err != nil {
		t.Fatalf("Debit() error = %v", err)
	}
	if !newBalance.IsZero() {
		t.Errorf("Expected zero balance, got %q", newBalance.String())
	}
}

// TestWallet_VersionMonotonicity tests that every mutation bumps the version.
// The version is the CAS token of the optimistic locking layer.
func TestWallet_VersionMonotonicity(t *testing.T) {
	wallet := newTestWallet(t, "0")

	for i := 1; i <= 5; i++ {
		if _, err := wallet.Credit(valueobjects.MustParseAmount("1")); err != nil {
			t.Fatalf("Credit() error = %v", err)
		}
		if wallet.Version() != int64(i) {
			t.Fatalf("Version after %d credits = %d", i, wallet.Version())
		}
	}
}

// newTestWallet creates a wallet with the given balance via Reconstruct.
func newTestWallet(t *testing.T, balance string) *entities.Wallet {
	t.Helper()

	wallet, err := entities.NewWallet("user-test", entities.OwnerTypeUser, uuid.New())
	if err != nil {
		t.Fatalf("NewWallet() error = %v", err)
	}
	if balance == "0" {
		return wallet
	}

	return entities.ReconstructWallet(
		wallet.ID(),
		wallet.OwnerID(),
		wallet.OwnerType(),
		wallet.AssetTypeID(),
		valueobjects.MustParseAmount(balance),
		0,
		wallet.CreatedAt(),
		wallet.UpdatedAt(),
	)
}
