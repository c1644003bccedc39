// Package dtos - команды бизнес-операций кошелька.
package dtos

import (
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// OperationCommand - разобранная команда topup/bonus/spend.
// IdempotencyKey приходит отдельным заголовком и передаётся исполнителю.
type OperationCommand struct {
	UserID      string
	AssetTypeID uuid.UUID
	Amount      valueobjects.Amount
	Description string
	Metadata    map[string]interface{}
}
