// Package dtos - wallet read-side DTO и мапперы.
package dtos

import (
	"time"

	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
)

// WalletBalanceDTO - баланс одного кошелька.
type WalletBalanceDTO struct {
	WalletID    string `json:"walletId"`
	OwnerID     string `json:"ownerId,omitempty"`
	OwnerType   string `json:"ownerType,omitempty"`
	AssetTypeID string `json:"assetTypeId,omitempty"`
	AssetCode   string `json:"assetCode,omitempty"`
	Balance     string `json:"balance"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// MapWalletToBalanceDTO преобразует Wallet entity в DTO.
func MapWalletToBalanceDTO(w *entities.Wallet, assetCode string) *WalletBalanceDTO {
	return &WalletBalanceDTO{
		WalletID:    w.ID().String(),
		OwnerID:     w.OwnerID(),
		OwnerType:   string(w.OwnerType()),
		AssetTypeID: w.AssetTypeID().String(),
		AssetCode:   assetCode,
		Balance:     w.Balance().String(),
		UpdatedAt:   w.UpdatedAt().Format(time.RFC3339),
	}
}

// LedgerEntryDTO - одна строка истории кошелька.
type LedgerEntryDTO struct {
	EntryID        string `json:"entryId"`
	TransactionID  string `json:"transactionId"`
	EntryType      string `json:"entryType"` // DEBIT | CREDIT
	Amount         string `json:"amount"`
	RunningBalance string `json:"runningBalance"`
	Counterparty   string `json:"counterpartyWalletId,omitempty"`
	Description    string `json:"description,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

// MapLedgerEntryToDTO преобразует LedgerEntry entity в DTO.
func MapLedgerEntryToDTO(e *entities.LedgerEntry) *LedgerEntryDTO {
	dto := &LedgerEntryDTO{
		EntryID:        e.ID().String(),
		TransactionID:  e.TransactionID().String(),
		EntryType:      string(e.EntryType()),
		Amount:         e.Amount().String(),
		RunningBalance: e.RunningBalance().String(),
		Description:    e.Description(),
		CreatedAt:      e.CreatedAt().Format(time.RFC3339Nano),
	}
	if cp := e.CounterpartyWalletID(); cp != nil {
		dto.Counterparty = cp.String()
	}
	return dto
}

// LedgerPageDTO - страница истории с пагинацией.
type LedgerPageDTO struct {
	Entries []*LedgerEntryDTO `json:"entries"`
	Offset  int               `json:"offset"`
	Limit   int               `json:"limit"`
}

// WalletStatsDTO - обороты кошелька.
// Инвариант сверки: Balance == TotalCredits - TotalDebits.
type WalletStatsDTO struct {
	WalletID     string `json:"walletId"`
	Balance      string `json:"balance"`
	TotalCredits string `json:"totalCredits"`
	TotalDebits  string `json:"totalDebits"`
	EntryCount   int64  `json:"entryCount"`
	Consistent   bool   `json:"consistent"`
}

// MapStatsToDTO преобразует агрегат статистики в DTO.
// Consistent осмыслен для кошельков, созданных с нулевым балансом;
// у сидированных системных кошельков есть opening balance вне журнала.
func MapStatsToDTO(w *entities.Wallet, stats ports.WalletStats) *WalletStatsDTO {
	derived := stats.TotalCredits.Decimal().Sub(stats.TotalDebits.Decimal())
	consistent := derived.Equal(w.Balance().Decimal())
	return &WalletStatsDTO{
		WalletID:     w.ID().String(),
		Balance:      w.Balance().String(),
		TotalCredits: stats.TotalCredits.String(),
		TotalDebits:  stats.TotalDebits.String(),
		EntryCount:   stats.EntryCount,
		Consistent:   consistent,
	}
}

// AssetTypeDTO - справочник валют.
type AssetTypeDTO struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// MapAssetTypeToDTO преобразует AssetType entity в DTO.
func MapAssetTypeToDTO(a *entities.AssetType) *AssetTypeDTO {
	return &AssetTypeDTO{
		ID:     a.ID().String(),
		Code:   a.Code(),
		Name:   a.Name(),
		Active: a.IsActive(),
	}
}
