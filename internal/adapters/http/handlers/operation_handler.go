// Package handlers - бизнес-операции кошелька (topup / bonus / spend).
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Haleralex/coinvault/internal/adapters/http/common"
	"github.com/Haleralex/coinvault/internal/adapters/http/middleware"
	"github.com/Haleralex/coinvault/internal/application/dtos"
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
)

// Заголовки с клиентским ключом идемпотентности. Каноничное имя -
// Idempotency-Key; X-вариант принимается ради старых клиентов.
const (
	IdempotencyKeyHeader       = "Idempotency-Key"
	LegacyIdempotencyKeyHeader = "X-Idempotency-Key"
)

// idempotencyKeyFromHeader достаёт ключ идемпотентности, сначала из
// каноничного заголовка, затем из legacy-варианта.
func idempotencyKeyFromHeader(c *gin.Context) string {
	if key := c.GetHeader(IdempotencyKeyHeader); key != "" {
		return key
	}
	return c.GetHeader(LegacyIdempotencyKeyHeader)
}

// ============================================
// Use Case Interfaces
// ============================================

// TopupUseCase - начисление игровой валюты из Treasury.
type TopupUseCase interface {
	Topup(ctx context.Context, idempotencyKey string, cmd dtos.OperationCommand) (*dtos.TransactionResult, error)
}

// BonusUseCase - начисление бонуса из Revenue.
type BonusUseCase interface {
	Bonus(ctx context.Context, idempotencyKey string, cmd dtos.OperationCommand) (*dtos.TransactionResult, error)
}

// SpendUseCase - списание за покупку в Revenue.
type SpendUseCase interface {
	Spend(ctx context.Context, idempotencyKey string, cmd dtos.OperationCommand) (*dtos.TransactionResult, error)
}

// ============================================
// Operation Handler
// ============================================

// OperationHandler обрабатывает денежные операции.
//
// Все три endpoint'а требуют Idempotency-Key: повтор с тем же ключом
// возвращает записанный результат, а не исполняет операцию заново.
type OperationHandler struct {
	topup TopupUseCase
	bonus BonusUseCase
	spend SpendUseCase
}

// NewOperationHandler создаёт новый OperationHandler.
func NewOperationHandler(topup TopupUseCase, bonus BonusUseCase, spend SpendUseCase) *OperationHandler {
	return &OperationHandler{
		topup: topup,
		bonus: bonus,
		spend: spend,
	}
}

// Topup начисляет валюту пользователю из Treasury.
//
// @Summary Top up user wallet
// @Tags Operations
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body dtos.TopupRequest true "Topup data"
// @Success 200 {object} common.APIResponse{data=dtos.TransactionResult}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Asset or treasury wallet not found"
// @Failure 409 {object} common.APIResponse "Duplicate in flight / version conflict"
// @Failure 422 {object} common.APIResponse
// @Failure 503 {object} common.APIResponse "Wallet locks unavailable"
// @Router /api/v1/wallet/topup [post]
func (h *OperationHandler) Topup(c *gin.Context) {
	h.execute(c, "TOPUP", func(ctx context.Context, key string, cmd dtos.OperationCommand) (*dtos.TransactionResult, error) {
		return h.topup.Topup(ctx, key, cmd)
	})
}

// Bonus начисляет бонус пользователю из Revenue.
//
// @Summary Grant bonus to user wallet
// @Tags Operations
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body dtos.BonusRequest true "Bonus data"
// @Success 200 {object} common.APIResponse{data=dtos.TransactionResult}
// @Router /api/v1/wallet/bonus [post]
func (h *OperationHandler) Bonus(c *gin.Context) {
	h.execute(c, "BONUS", func(ctx context.Context, key string, cmd dtos.OperationCommand) (*dtos.TransactionResult, error) {
		return h.bonus.Bonus(ctx, key, cmd)
	})
}

// Spend списывает валюту пользователя за покупку.
//
// @Summary Spend from user wallet
// @Tags Operations
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body dtos.SpendRequest true "Spend data"
// @Success 200 {object} common.APIResponse{data=dtos.TransactionResult}
// @Failure 422 {object} common.APIResponse "Insufficient balance"
// @Router /api/v1/wallet/spend [post]
func (h *OperationHandler) Spend(c *gin.Context) {
	h.execute(c, "PURCHASE", func(ctx context.Context, key string, cmd dtos.OperationCommand) (*dtos.TransactionResult, error) {
		return h.spend.Spend(ctx, key, cmd)
	})
}

// execute - общий каркас: header + body -> команда -> use case -> ответ.
func (h *OperationHandler) execute(
	c *gin.Context,
	txType string,
	op func(ctx context.Context, key string, cmd dtos.OperationCommand) (*dtos.TransactionResult, error),
) {
	idempotencyKey := idempotencyKeyFromHeader(c)
	if idempotencyKey == "" {
		common.Error(c, http.StatusBadRequest, &common.APIError{
			Code:    "IDEMPOTENCY_KEY_REQUIRED",
			Message: IdempotencyKeyHeader + " header is required",
		})
		return
	}

	var req dtos.TopupRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd, ok := buildCommand(c, req)
	if !ok {
		return
	}

	result, err := op(c.Request.Context(), idempotencyKey, cmd)
	if err != nil {
		middleware.RecordTransaction(txType, dtos.ResultStatusFailed)
		common.HandleDomainError(c, err)
		return
	}

	middleware.RecordTransaction(txType, result.Status)

	// Закэшированный FAILED replay приходит без ошибки: возвращаем
	// записанный исход с тем же статусом, что и первый ответ.
	if result.Status == dtos.ResultStatusFailed {
		common.Error(c, http.StatusUnprocessableEntity, &common.APIError{
			Code:    result.Error,
			Message: "Operation previously failed with this idempotency key",
		})
		return
	}

	common.Success(c, http.StatusOK, result)
}

// buildCommand валидирует и конвертирует запрос в команду уровня приложения.
func buildCommand(c *gin.Context, req dtos.TopupRequest) (dtos.OperationCommand, bool) {
	assetTypeID, err := uuid.Parse(req.AssetTypeID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "assetTypeId", Message: "Invalid UUID format", Code: "uuid"},
		})
		return dtos.OperationCommand{}, false
	}

	amount, err := valueobjects.ParseAmount(req.Amount)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "amount", Message: err.Error(), Code: "money_amount"},
		})
		return dtos.OperationCommand{}, false
	}

	return dtos.OperationCommand{
		UserID:      req.UserID,
		AssetTypeID: assetTypeID,
		Amount:      amount,
		Description: req.Description,
		Metadata:    req.Metadata,
	}, true
}
