// Package wallet - read-side use cases и provisioning кошельков.
package wallet

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	"github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/Haleralex/coinvault/internal/domain/events"
	"github.com/google/uuid"
)

// EnsureWalletUseCase выдаёт кошелёк (owner, asset), создавая при первом
// касании. Auto-provisioning: у пользователя нет "регистрации кошелька",
// первый topup создаёт его.
type EnsureWalletUseCase struct {
	walletRepo     ports.WalletRepository
	eventPublisher ports.EventPublisher
}

// NewEnsureWalletUseCase создаёт use case.
func NewEnsureWalletUseCase(walletRepo ports.WalletRepository, eventPublisher ports.EventPublisher) *EnsureWalletUseCase {
	return &EnsureWalletUseCase{
		walletRepo:     walletRepo,
		eventPublisher: eventPublisher,
	}
}

// EnsureWallet возвращает существующий кошелёк или создаёт новый.
//
// Race между двумя первыми пополнениями разрешает unique index на
// (owner_id, owner_type, asset_type_id): проигравший insert перечитывает.
func (uc *EnsureWalletUseCase) EnsureWallet(ctx context.Context, ownerID string, ownerType entities.OwnerType, assetTypeID uuid.UUID) (*entities.Wallet, error) {
	existing, err := uc.walletRepo.FindByOwnerAndAsset(ctx, ownerID, ownerType, assetTypeID)
	if err == nil {
		return existing, nil
	}
	if !errors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up wallet: %w", err)
	}

	created, err := entities.NewWallet(ownerID, ownerType, assetTypeID)
	if err != nil {
		return nil, err
	}

	if err := uc.walletRepo.Insert(ctx, created); err != nil {
		if stderrors.Is(err, errors.ErrEntityAlreadyExists) {
			// Конкурент успел первым: его кошелёк - канонический
			return uc.walletRepo.FindByOwnerAndAsset(ctx, ownerID, ownerType, assetTypeID)
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	if uc.eventPublisher != nil {
		_ = uc.eventPublisher.Publish(ctx, events.NewWalletCreated(created.ID(), ownerID, ownerType, assetTypeID))
	}

	return created, nil
}
