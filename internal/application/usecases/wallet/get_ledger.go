// Package wallet - GetLedger use case: постраничная история кошелька.
package wallet

import (
	"context"
	"fmt"

	"github.com/Haleralex/coinvault/internal/application/dtos"
	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/google/uuid"
)

// Пагинация по умолчанию.
const (
	DefaultLedgerPageSize = 50
	MaxLedgerPageSize     = 200
)

// GetLedgerUseCase возвращает журнал кошелька, новые записи первыми.
type GetLedgerUseCase struct {
	walletRepo ports.WalletRepository
	entryRepo  ports.LedgerEntryRepository
}

// NewGetLedgerUseCase создаёт use case.
func NewGetLedgerUseCase(walletRepo ports.WalletRepository, entryRepo ports.LedgerEntryRepository) *GetLedgerUseCase {
	return &GetLedgerUseCase{
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
	}
}

// Execute возвращает страницу истории кошелька.
func (uc *GetLedgerUseCase) Execute(ctx context.Context, walletID uuid.UUID, offset, limit int) (*dtos.LedgerPageDTO, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLedgerPageSize
	}
	if limit > MaxLedgerPageSize {
		limit = MaxLedgerPageSize
	}

	// Существование кошелька проверяем явно: пустая страница для
	// несуществующего ID вводила бы в заблуждение
	if _, err := uc.walletRepo.FindByID(ctx, walletID); err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: wallet %s", errors.ErrEntityNotFound, walletID)
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	entries, err := uc.entryRepo.FindByWallet(ctx, walletID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries: %w", err)
	}

	page := &dtos.LedgerPageDTO{
		Entries: make([]*dtos.LedgerEntryDTO, 0, len(entries)),
		Offset:  offset,
		Limit:   limit,
	}
	for _, e := range entries {
		page.Entries = append(page.Entries, dtos.MapLedgerEntryToDTO(e))
	}
	return page, nil
}
