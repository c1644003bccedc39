// Package wallet - helper mocks for testing
//go:build integration || !integration

package wallet

import (
	"context"
	"time"

	"github.com/Haleralex/coinvault/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/Haleralex/coinvault/internal/domain/events"
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
	"github.com/google/uuid"
)

type mockWalletRepo struct {
	insertFunc              func(ctx context.Context, wallet *entities.Wallet) error
	findByIDFunc            func(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)
	findByOwnerAndAssetFunc func(ctx context.Context, ownerID string, ownerType entities.OwnerType, assetTypeID uuid.UUID) (*entities.Wallet, error)
	findByOwnerFunc         func(ctx context.Context, ownerID string, ownerType entities.OwnerType) ([]*entities.Wallet, error)
}

func (m *mockWalletRepo) Insert(ctx context.Context, wallet *entities.Wallet) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, wallet)
	}
	return nil
}

func (m *mockWalletRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockWalletRepo) FindByOwnerAndAsset(ctx context.Context, ownerID string, ownerType entities.OwnerType, assetTypeID uuid.UUID) (*entities.Wallet, error) {
	if m.findByOwnerAndAssetFunc != nil {
		return m.findByOwnerAndAssetFunc(ctx, ownerID, ownerType, assetTypeID)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockWalletRepo) FindByOwner(ctx context.Context, ownerID string, ownerType entities.OwnerType) ([]*entities.Wallet, error) {
	if m.findByOwnerFunc != nil {
		return m.findByOwnerFunc(ctx, ownerID, ownerType)
	}
	return nil, nil
}

func (m *mockWalletRepo) CompareAndSwapBalance(ctx context.Context, walletID uuid.UUID, newBalance valueobjects.Amount, expectedVersion int64) error {
	return nil
}

type mockAssetRepo struct {
	findByIDFunc func(ctx context.Context, id uuid.UUID) (*entities.AssetType, error)
	listFunc     func(ctx context.Context) ([]*entities.AssetType, error)
}

func (m *mockAssetRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.AssetType, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockAssetRepo) FindByCode(ctx context.Context, code string) (*entities.AssetType, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockAssetRepo) List(ctx context.Context) ([]*entities.AssetType, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

type mockEntryRepo struct {
	findByWalletFunc func(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]*entities.LedgerEntry, error)
	sumFunc          func(ctx context.Context, walletID uuid.UUID) (valueobjects.Amount, valueobjects.Amount, error)
	countFunc        func(ctx context.Context, walletID uuid.UUID) (int64, error)
}

func (m *mockEntryRepo) Append(ctx context.Context, entry *entities.LedgerEntry) error { return nil }

func (m *mockEntryRepo) FindByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error) {
	return nil, nil
}

func (m *mockEntryRepo) FindByWallet(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]*entities.LedgerEntry, error) {
	if m.findByWalletFunc != nil {
		return m.findByWalletFunc(ctx, walletID, offset, limit)
	}
	return nil, nil
}

func (m *mockEntryRepo) SumByWallet(ctx context.Context, walletID uuid.UUID) (valueobjects.Amount, valueobjects.Amount, error) {
	if m.sumFunc != nil {
		return m.sumFunc(ctx, walletID)
	}
	return valueobjects.ZeroAmount(), valueobjects.ZeroAmount(), nil
}

func (m *mockEntryRepo) CountByWallet(ctx context.Context, walletID uuid.UUID) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, walletID)
	}
	return 0, nil
}

type noopPublisher struct {
	published []events.DomainEvent
}

func (p *noopPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.published = append(p.published, event)
	return nil
}

func (p *noopPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	p.published = append(p.published, evts...)
	return nil
}

func testWallet(ownerID string, assetTypeID uuid.UUID, balance string) *entities.Wallet {
	now := time.Now()
	return entities.ReconstructWallet(
		uuid.New(), ownerID, entities.OwnerTypeUser, assetTypeID,
		valueobjects.MustParseAmount(balance), 0, now, now,
	)
}
