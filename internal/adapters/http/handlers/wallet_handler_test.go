package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/coinvault/internal/application/dtos"
	domerrors "github.com/Haleralex/coinvault/internal/domain/errors"
)

// ============================================
// Mock Use Cases
// ============================================

type mockGetBalance struct {
	ExecuteFn         func(ctx context.Context, userID string) ([]*dtos.WalletBalanceDTO, error)
	ExecuteByWalletFn func(ctx context.Context, walletID uuid.UUID) (*dtos.WalletBalanceDTO, error)
}

func (m *mockGetBalance) Execute(ctx context.Context, userID string) ([]*dtos.WalletBalanceDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockGetBalance) ExecuteByWallet(ctx context.Context, walletID uuid.UUID) (*dtos.WalletBalanceDTO, error) {
	if m.ExecuteByWalletFn != nil {
		return m.ExecuteByWalletFn(ctx, walletID)
	}
	return nil, nil
}

type mockGetLedger struct {
	ExecuteFn func(ctx context.Context, walletID uuid.UUID, offset, limit int) (*dtos.LedgerPageDTO, error)
}

func (m *mockGetLedger) Execute(ctx context.Context, walletID uuid.UUID, offset, limit int) (*dtos.LedgerPageDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, walletID, offset, limit)
	}
	return nil, nil
}

type mockGetStats struct {
	ExecuteFn func(ctx context.Context, walletID uuid.UUID) (*dtos.WalletStatsDTO, error)
}

func (m *mockGetStats) Execute(ctx context.Context, walletID uuid.UUID) (*dtos.WalletStatsDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, walletID)
	}
	return nil, nil
}

type mockListAssets struct {
	ExecuteFn func(ctx context.Context) ([]*dtos.AssetTypeDTO, error)
}

func (m *mockListAssets) Execute(ctx context.Context) ([]*dtos.AssetTypeDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx)
	}
	return nil, nil
}

// ============================================
// Helper Functions
// ============================================

func setupWalletTestRouter(handler *WalletHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	router := gin.New()
	v1 := router.Group("/api/v1")
	{
		v1.GET("/users/:user_id/balances", handler.ListUserBalances)
		v1.GET("/wallets/:id/balance", handler.GetWalletBalance)
		v1.GET("/wallets/:id/ledger", handler.GetWalletLedger)
		v1.GET("/wallets/:id/stats", handler.GetWalletStats)
		v1.GET("/assets", handler.ListAssetTypes)
	}
	return router
}

func doGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ============================================
// Test Cases
// ============================================

func TestWalletHandler_ListUserBalances(t *testing.T) {
	handler := NewWalletHandler(&mockGetBalance{
		ExecuteFn: func(ctx context.Context, userID string) ([]*dtos.WalletBalanceDTO, error) {
			assert.Equal(t, "user-42", userID)
			return []*dtos.WalletBalanceDTO{
				{WalletID: uuid.New().String(), AssetCode: "GOLD", Balance: "150"},
				{WalletID: uuid.New().String(), AssetCode: "DIAMOND", Balance: "3"},
			}, nil
		},
	}, nil, nil, nil)
	router := setupWalletTestRouter(handler)

	w := doGet(router, "/api/v1/users/user-42/balances")

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].([]interface{})
	assert.Len(t, data, 2)
}

func TestWalletHandler_GetWalletBalance(t *testing.T) {
	walletID := uuid.New()
	handler := NewWalletHandler(&mockGetBalance{
		ExecuteByWalletFn: func(ctx context.Context, id uuid.UUID) (*dtos.WalletBalanceDTO, error) {
			assert.Equal(t, walletID, id)
			return &dtos.WalletBalanceDTO{WalletID: id.String(), Balance: "777"}, nil
		},
	}, nil, nil, nil)
	router := setupWalletTestRouter(handler)

	w := doGet(router, "/api/v1/wallets/"+walletID.String()+"/balance")

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "777", data["balance"])
}

func TestWalletHandler_GetWalletBalance_InvalidID(t *testing.T) {
	handler := NewWalletHandler(&mockGetBalance{}, nil, nil, nil)
	router := setupWalletTestRouter(handler)

	w := doGet(router, "/api/v1/wallets/not-a-uuid/balance")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletHandler_GetWalletBalance_NotFound(t *testing.T) {
	handler := NewWalletHandler(&mockGetBalance{
		ExecuteByWalletFn: func(ctx context.Context, id uuid.UUID) (*dtos.WalletBalanceDTO, error) {
			return nil, domerrors.ErrEntityNotFound
		},
	}, nil, nil, nil)
	router := setupWalletTestRouter(handler)

	w := doGet(router, "/api/v1/wallets/"+uuid.New().String()+"/balance")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWalletHandler_GetWalletLedger(t *testing.T) {
	walletID := uuid.New()
	handler := NewWalletHandler(nil, &mockGetLedger{
		ExecuteFn: func(ctx context.Context, id uuid.UUID, offset, limit int) (*dtos.LedgerPageDTO, error) {
			assert.Equal(t, walletID, id)
			assert.Equal(t, 10, offset)
			assert.Equal(t, 25, limit)
			return &dtos.LedgerPageDTO{
				Entries: []*dtos.LedgerEntryDTO{
					{EntryID: uuid.New().String(), EntryType: "CREDIT", Amount: "500"},
				},
				Offset: offset,
				Limit:  25,
			}, nil
		},
	}, nil, nil)
	router := setupWalletTestRouter(handler)

	w := doGet(router, "/api/v1/wallets/"+walletID.String()+"/ledger?offset=10&limit=25")

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	meta := response["meta"].(map[string]interface{})
	assert.Equal(t, float64(10), meta["offset"])
	assert.Equal(t, float64(1), meta["count"])
}

func TestWalletHandler_GetWalletStats(t *testing.T) {
	walletID := uuid.New()
	handler := NewWalletHandler(nil, nil, &mockGetStats{
		ExecuteFn: func(ctx context.Context, id uuid.UUID) (*dtos.WalletStatsDTO, error) {
			return &dtos.WalletStatsDTO{
				WalletID:     id.String(),
				Balance:      "700",
				TotalCredits: "1000",
				TotalDebits:  "300",
				EntryCount:   5,
				Consistent:   true,
			}, nil
		},
	}, nil)
	router := setupWalletTestRouter(handler)

	w := doGet(router, "/api/v1/wallets/"+walletID.String()+"/stats")

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, true, data["consistent"])
	assert.Equal(t, float64(5), data["entryCount"])
}

func TestWalletHandler_ListAssetTypes(t *testing.T) {
	handler := NewWalletHandler(nil, nil, nil, &mockListAssets{
		ExecuteFn: func(ctx context.Context) ([]*dtos.AssetTypeDTO, error) {
			return []*dtos.AssetTypeDTO{
				{ID: uuid.New().String(), Code: "GOLD", Name: "Gold Coins", Active: true},
				{ID: uuid.New().String(), Code: "DIAMOND", Name: "Diamonds", Active: true},
			}, nil
		},
	})
	router := setupWalletTestRouter(handler)

	w := doGet(router, "/api/v1/assets")

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].([]interface{})
	assert.Len(t, data, 2)
}
