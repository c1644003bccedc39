// Package wallet - GetBalance use case с read-through кэшем.
package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/Haleralex/coinvault/internal/application/dtos"
	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	"github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/google/uuid"
)

// DefaultBalanceCacheTTL - короткий TTL: баланс инвалидируется исполнителем
// после каждого коммита, TTL лишь страхует пропущенную инвалидацию.
const DefaultBalanceCacheTTL = 30 * time.Second

// GetBalanceUseCase - запрос баланса кошелька.
// Чтение балансов не проходит через ledger-ядро и не берёт блокировок.
type GetBalanceUseCase struct {
	walletRepo ports.WalletRepository
	assetRepo  ports.AssetTypeRepository
	cache      ports.BalanceCache
	cacheTTL   time.Duration
}

// NewGetBalanceUseCase создаёт use case. cache опционален.
func NewGetBalanceUseCase(walletRepo ports.WalletRepository, assetRepo ports.AssetTypeRepository, cache ports.BalanceCache) *GetBalanceUseCase {
	return &GetBalanceUseCase{
		walletRepo: walletRepo,
		assetRepo:  assetRepo,
		cache:      cache,
		cacheTTL:   DefaultBalanceCacheTTL,
	}
}

// Execute возвращает балансы всех кошельков пользователя.
func (uc *GetBalanceUseCase) Execute(ctx context.Context, userID string) ([]*dtos.WalletBalanceDTO, error) {
	wallets, err := uc.walletRepo.FindByOwner(ctx, userID, entities.OwnerTypeUser)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallets: %w", err)
	}

	result := make([]*dtos.WalletBalanceDTO, 0, len(wallets))
	for _, w := range wallets {
		assetCode := ""
		if asset, err := uc.assetRepo.FindByID(ctx, w.AssetTypeID()); err == nil {
			assetCode = asset.Code()
		}
		result = append(result, dtos.MapWalletToBalanceDTO(w, assetCode))
	}
	return result, nil
}

// ExecuteByWallet возвращает баланс одного кошелька, сперва из кэша.
func (uc *GetBalanceUseCase) ExecuteByWallet(ctx context.Context, walletID uuid.UUID) (*dtos.WalletBalanceDTO, error) {
	if uc.cache != nil {
		if balance, found, err := uc.cache.Get(ctx, walletID); err == nil && found {
			return &dtos.WalletBalanceDTO{
				WalletID: walletID.String(),
				Balance:  balance.String(),
			}, nil
		}
		// Промах или ошибка кэша: идём в БД
	}

	w, err := uc.walletRepo.FindByID(ctx, walletID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: wallet %s", errors.ErrEntityNotFound, walletID)
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	if uc.cache != nil {
		_ = uc.cache.Set(ctx, walletID, w.Balance(), uc.cacheTTL)
	}

	assetCode := ""
	if asset, err := uc.assetRepo.FindByID(ctx, w.AssetTypeID()); err == nil {
		assetCode = asset.Code()
	}
	return dtos.MapWalletToBalanceDTO(w, assetCode), nil
}
