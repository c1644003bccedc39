// Package wallet - GetStats use case: обороты и сверка баланса.
package wallet

import (
	"context"
	"fmt"

	"github.com/Haleralex/coinvault/internal/application/dtos"
	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/google/uuid"
)

// GetStatsUseCase агрегирует обороты кошелька по журналу.
type GetStatsUseCase struct {
	walletRepo ports.WalletRepository
	entryRepo  ports.LedgerEntryRepository
}

// NewGetStatsUseCase создаёт use case.
func NewGetStatsUseCase(walletRepo ports.WalletRepository, entryRepo ports.LedgerEntryRepository) *GetStatsUseCase {
	return &GetStatsUseCase{
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
	}
}

// Execute возвращает статистику кошелька.
func (uc *GetStatsUseCase) Execute(ctx context.Context, walletID uuid.UUID) (*dtos.WalletStatsDTO, error) {
	w, err := uc.walletRepo.FindByID(ctx, walletID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: wallet %s", errors.ErrEntityNotFound, walletID)
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	credits, debits, err := uc.entryRepo.SumByWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger: %w", err)
	}

	count, err := uc.entryRepo.CountByWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	stats := ports.WalletStats{
		WalletID:     walletID,
		TotalCredits: credits,
		TotalDebits:  debits,
		EntryCount:   count,
	}
	return dtos.MapStatsToDTO(w, stats), nil
}
