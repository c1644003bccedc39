// Package handlers - read-only endpoints кошельков и журнала.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Haleralex/coinvault/internal/adapters/http/common"
	"github.com/Haleralex/coinvault/internal/application/dtos"
)

// ============================================
// Use Case Interfaces
// ============================================

// GetBalanceUseCase - чтение балансов.
type GetBalanceUseCase interface {
	Execute(ctx context.Context, userID string) ([]*dtos.WalletBalanceDTO, error)
	ExecuteByWallet(ctx context.Context, walletID uuid.UUID) (*dtos.WalletBalanceDTO, error)
}

// GetLedgerUseCase - постраничное чтение журнала кошелька.
type GetLedgerUseCase interface {
	Execute(ctx context.Context, walletID uuid.UUID, offset, limit int) (*dtos.LedgerPageDTO, error)
}

// GetStatsUseCase - агрегаты по журналу + сверка с балансом.
type GetStatsUseCase interface {
	Execute(ctx context.Context, walletID uuid.UUID) (*dtos.WalletStatsDTO, error)
}

// ListAssetTypesUseCase - справочник типов активов.
type ListAssetTypesUseCase interface {
	Execute(ctx context.Context) ([]*dtos.AssetTypeDTO, error)
}

// ============================================
// Wallet Handler
// ============================================

// WalletHandler обрабатывает read-only запросы кошельков.
type WalletHandler struct {
	getBalance GetBalanceUseCase
	getLedger  GetLedgerUseCase
	getStats   GetStatsUseCase
	listAssets ListAssetTypesUseCase
}

// NewWalletHandler создаёт новый WalletHandler.
func NewWalletHandler(
	getBalance GetBalanceUseCase,
	getLedger GetLedgerUseCase,
	getStats GetStatsUseCase,
	listAssets ListAssetTypesUseCase,
) *WalletHandler {
	return &WalletHandler{
		getBalance: getBalance,
		getLedger:  getLedger,
		getStats:   getStats,
		listAssets: listAssets,
	}
}

// ============================================
// Request DTOs
// ============================================

// WalletIDParam - параметр ID кошелька из URL.
type WalletIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// UserIDParam - параметр ID пользователя из URL.
type UserIDParam struct {
	UserID string `uri:"user_id" binding:"required"`
}

// ============================================
// HTTP Handlers
// ============================================

// ListUserBalances возвращает все кошельки пользователя.
//
// @Summary List user wallet balances
// @Tags Wallets
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} common.APIResponse{data=[]dtos.WalletBalanceDTO}
// @Router /api/v1/users/{user_id}/balances [get]
func (h *WalletHandler) ListUserBalances(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}

	result, err := h.getBalance.Execute(c.Request.Context(), params.UserID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetWalletBalance возвращает баланс одного кошелька.
//
// @Summary Get wallet balance
// @Tags Wallets
// @Produce json
// @Param id path string true "Wallet ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.WalletBalanceDTO}
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/wallets/{id}/balance [get]
func (h *WalletHandler) GetWalletBalance(c *gin.Context) {
	walletID, ok := parseWalletID(c)
	if !ok {
		return
	}

	result, err := h.getBalance.ExecuteByWallet(c.Request.Context(), walletID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetWalletLedger возвращает страницу журнала кошелька.
//
// @Summary Get wallet ledger page
// @Tags Wallets
// @Produce json
// @Param id path string true "Wallet ID" format(uuid)
// @Param offset query int false "Page offset"
// @Param limit query int false "Page size (max 200)"
// @Success 200 {object} common.APIResponse{data=dtos.LedgerPageDTO}
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/wallets/{id}/ledger [get]
func (h *WalletHandler) GetWalletLedger(c *gin.Context) {
	walletID, ok := parseWalletID(c)
	if !ok {
		return
	}

	pagination := ParsePagination(c)

	result, err := h.getLedger.Execute(c.Request.Context(), walletID, pagination.Offset, pagination.Limit)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.SuccessWithMeta(c, http.StatusOK, result, &common.APIMeta{
		Offset: result.Offset,
		Limit:  result.Limit,
		Count:  len(result.Entries),
	})
}

// GetWalletStats возвращает агрегаты журнала и результат сверки.
//
// @Summary Get wallet journal stats
// @Tags Wallets
// @Produce json
// @Param id path string true "Wallet ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.WalletStatsDTO}
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/wallets/{id}/stats [get]
func (h *WalletHandler) GetWalletStats(c *gin.Context) {
	walletID, ok := parseWalletID(c)
	if !ok {
		return
	}

	result, err := h.getStats.Execute(c.Request.Context(), walletID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// ListAssetTypes возвращает справочник типов активов.
//
// @Summary List asset types
// @Tags Assets
// @Produce json
// @Success 200 {object} common.APIResponse{data=[]dtos.AssetTypeDTO}
// @Router /api/v1/assets [get]
func (h *WalletHandler) ListAssetTypes(c *gin.Context) {
	result, err := h.listAssets.Execute(c.Request.Context())
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// parseWalletID достаёт и валидирует :id из URL.
func parseWalletID(c *gin.Context) (uuid.UUID, bool) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return uuid.Nil, false
	}

	walletID, err := uuid.Parse(params.ID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return uuid.Nil, false
	}
	return walletID, true
}
