// Package ledger - OperationService: бизнес-операции поверх исполнителя.
// Каждая операция - это выбор пары кошельков для двойной записи.
package ledger

import (
	"context"
	"fmt"

	"github.com/Haleralex/coinvault/internal/application/dtos"
	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	"github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/google/uuid"
)

// Системные владельцы. Кошельки сидируются миграциями, по одному на asset.
const (
	SystemOwnerTreasury = "treasury" // Источник эмиссии (topup)
	SystemOwnerRevenue  = "revenue"  // Выручка (spend) и фонд бонусов (bonus)
)

// WalletProvisioner выдаёт кошелёк пользователя, создавая при первом касании.
type WalletProvisioner interface {
	EnsureWallet(ctx context.Context, ownerID string, ownerType entities.OwnerType, assetTypeID uuid.UUID) (*entities.Wallet, error)
}

// OperationService транслирует бизнес-операции в ledger-движения:
//
//	TOPUP    treasury -> user      (покупка валюты за реальные деньги)
//	BONUS    revenue  -> user      (начисление бонуса)
//	PURCHASE user     -> revenue   (трата внутри системы)
//
// TRANSFER user -> user зарезервирован и намеренно не реализован.
type OperationService struct {
	executor    *TransactionExecutor
	provisioner WalletProvisioner
	walletRepo  ports.WalletRepository
	assetRepo   ports.AssetTypeRepository
}

// NewOperationService создаёт сервис операций.
func NewOperationService(
	executor *TransactionExecutor,
	provisioner WalletProvisioner,
	walletRepo ports.WalletRepository,
	assetRepo ports.AssetTypeRepository,
) *OperationService {
	return &OperationService{
		executor:    executor,
		provisioner: provisioner,
		walletRepo:  walletRepo,
		assetRepo:   assetRepo,
	}
}

// Topup зачисляет пользователю валюту из Treasury.
// Кошелёк пользователя создаётся при первом пополнении.
func (s *OperationService) Topup(ctx context.Context, idempotencyKey string, cmd dtos.OperationCommand) (*dtos.TransactionResult, error) {
	if err := s.checkAsset(ctx, cmd.AssetTypeID); err != nil {
		return nil, err
	}

	userWallet, err := s.provisioner.EnsureWallet(ctx, cmd.UserID, entities.OwnerTypeUser, cmd.AssetTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to provision user wallet: %w", err)
	}

	treasury, err := s.systemWallet(ctx, SystemOwnerTreasury, cmd.AssetTypeID, errors.ErrSourceWalletNotFound)
	if err != nil {
		return nil, err
	}

	return s.executor.Execute(ctx, idempotencyKey, entities.TransactionTypeTopup, s.movement(treasury, userWallet, cmd))
}

// Bonus зачисляет пользователю валюту из Revenue.
func (s *OperationService) Bonus(ctx context.Context, idempotencyKey string, cmd dtos.OperationCommand) (*dtos.TransactionResult, error) {
	if err := s.checkAsset(ctx, cmd.AssetTypeID); err != nil {
		return nil, err
	}

	userWallet, err := s.provisioner.EnsureWallet(ctx, cmd.UserID, entities.OwnerTypeUser, cmd.AssetTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to provision user wallet: %w", err)
	}

	revenue, err := s.systemWallet(ctx, SystemOwnerRevenue, cmd.AssetTypeID, errors.ErrSourceWalletNotFound)
	if err != nil {
		return nil, err
	}

	return s.executor.Execute(ctx, idempotencyKey, entities.TransactionTypeBonus, s.movement(revenue, userWallet, cmd))
}

// Spend списывает с кошелька пользователя в Revenue.
// Кошелёк НЕ создаётся: трата без пополнения - это SOURCE_WALLET_NOT_FOUND.
func (s *OperationService) Spend(ctx context.Context, idempotencyKey string, cmd dtos.OperationCommand) (*dtos.TransactionResult, error) {
	if err := s.checkAsset(ctx, cmd.AssetTypeID); err != nil {
		return nil, err
	}

	userWallet, err := s.walletRepo.FindByOwnerAndAsset(ctx, cmd.UserID, entities.OwnerTypeUser, cmd.AssetTypeID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user %s has no wallet for asset %s",
				errors.ErrSourceWalletNotFound, cmd.UserID, cmd.AssetTypeID)
		}
		return nil, fmt.Errorf("failed to load user wallet: %w", err)
	}

	revenue, err := s.systemWallet(ctx, SystemOwnerRevenue, cmd.AssetTypeID, errors.ErrDestinationWalletNotFound)
	if err != nil {
		return nil, err
	}

	return s.executor.Execute(ctx, idempotencyKey, entities.TransactionTypePurchase, s.movement(userWallet, revenue, cmd))
}

// checkAsset валидирует asset type до каких-либо движений.
func (s *OperationService) checkAsset(ctx context.Context, assetTypeID uuid.UUID) error {
	asset, err := s.assetRepo.FindByID(ctx, assetTypeID)
	if err != nil {
		if errors.IsNotFound(err) {
			return fmt.Errorf("%w: %s", errors.ErrAssetTypeNotFound, assetTypeID)
		}
		return fmt.Errorf("failed to load asset type: %w", err)
	}
	if !asset.IsActive() {
		return fmt.Errorf("%w: %s", errors.ErrAssetTypeInactive, asset.Code())
	}
	return nil
}

// systemWallet загружает сидированный системный кошелёк.
// Его отсутствие - ошибка деплоя, маппится в missing sentinel стороны.
func (s *OperationService) systemWallet(ctx context.Context, owner string, assetTypeID uuid.UUID, missing error) (*entities.Wallet, error) {
	wallet, err := s.walletRepo.FindByOwnerAndAsset(ctx, owner, entities.OwnerTypeSystem, assetTypeID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: system wallet %q for asset %s", missing, owner, assetTypeID)
		}
		return nil, fmt.Errorf("failed to load system wallet %q: %w", owner, err)
	}
	return wallet, nil
}

func (s *OperationService) movement(from, to *entities.Wallet, cmd dtos.OperationCommand) dtos.LedgerOperation {
	fromID := from.ID()
	return dtos.LedgerOperation{
		FromWalletID: &fromID,
		ToWalletID:   to.ID(),
		AssetTypeID:  cmd.AssetTypeID,
		Amount:       cmd.Amount,
		Description:  cmd.Description,
		Metadata:     cmd.Metadata,
	}
}
