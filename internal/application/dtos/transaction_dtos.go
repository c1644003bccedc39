// Package dtos - Data Transfer Objects для Application Layer.
// DTO изолируют домен от транспорта: handlers видят только эти структуры.
package dtos

import (
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// LedgerOperation - запрос одной ledger-операции к исполнителю.
// Source wallet опционален (mint-вариант); в этой системе Treasury/Revenue
// смоделированы как настоящие кошельки, поэтому он практически всегда задан.
type LedgerOperation struct {
	FromWalletID *uuid.UUID
	ToWalletID   uuid.UUID
	AssetTypeID  uuid.UUID
	Amount       valueobjects.Amount
	Description  string
	Metadata     map[string]interface{}
}

// WalletIDs возвращает набор идентификаторов кошельков операции
// (1 или 2 элемента) для ordered-lock координатора.
func (op LedgerOperation) WalletIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 2)
	if op.FromWalletID != nil {
		ids = append(ids, *op.FromWalletID)
	}
	ids = append(ids, op.ToWalletID)
	return ids
}

// TransactionResult - wire-формат результата исполнителя.
// FromBalance отсутствует для чистого mint (нет source wallet).
type TransactionResult struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"` // COMPLETED | FAILED
	FromBalance   string `json:"fromBalance,omitempty"`
	ToBalance     string `json:"toBalance"`
	Error         string `json:"error,omitempty"`
}

// Statuses of TransactionResult.
const (
	ResultStatusCompleted = "COMPLETED"
	ResultStatusFailed    = "FAILED"
)

// TopupRequest - тело POST /api/v1/wallet/topup.
type TopupRequest struct {
	UserID      string                 `json:"userId" binding:"required"`
	AssetTypeID string                 `json:"assetTypeId" binding:"required,uuid"`
	Amount      string                 `json:"amount" binding:"required,money_amount"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// BonusRequest - тело POST /api/v1/wallet/bonus.
type BonusRequest = TopupRequest

// SpendRequest - тело POST /api/v1/wallet/spend.
type SpendRequest = TopupRequest
