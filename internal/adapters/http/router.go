// Package http - Router configuration for REST API.
//
// Router собирает все handlers и middleware в единую точку входа.
//
// Pattern: Composition Root
// - Все зависимости собираются здесь
// - Handlers получают только нужные им use cases
// - Middleware применяется к соответствующим группам routes
package http

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Haleralex/coinvault/internal/adapters/http/common"
	"github.com/Haleralex/coinvault/internal/adapters/http/handlers"
	"github.com/Haleralex/coinvault/internal/adapters/http/middleware"
)

// ============================================
// Router Configuration
// ============================================

// RouterConfig - конфигурация роутера.
type RouterConfig struct {
	// Logger для middleware
	Logger *slog.Logger
	// Database pool для health checks
	Pool *pgxpool.Pool
	// RedisPing для readiness probe (nil = не проверять)
	RedisPing func(ctx context.Context) error
	// NATSAlive для readiness probe (nil = не проверять)
	NATSAlive func() bool
	// Version приложения
	Version string
	// BuildTime время сборки
	BuildTime string
	// Environment (development, staging, production)
	Environment string
	// AllowedOrigins для CORS (production)
	AllowedOrigins []string
}

// DefaultRouterConfig - конфигурация по умолчанию для development.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:         slog.Default(),
		Version:        "dev",
		BuildTime:      "unknown",
		Environment:    "development",
		AllowedOrigins: []string{"*"},
	}
}

// ============================================
// Use Case Providers
// ============================================

// OperationUseCases - provider для денежных операций.
type OperationUseCases struct {
	Topup handlers.TopupUseCase
	Bonus handlers.BonusUseCase
	Spend handlers.SpendUseCase
}

// WalletUseCases - provider для read-only запросов.
type WalletUseCases struct {
	GetBalance GetBalanceProvider
	GetLedger  handlers.GetLedgerUseCase
	GetStats   handlers.GetStatsUseCase
	ListAssets handlers.ListAssetTypesUseCase
}

// GetBalanceProvider - alias для читаемости provider-структуры.
type GetBalanceProvider = handlers.GetBalanceUseCase

// ============================================
// Router Builder
// ============================================

// RouterBuilder - builder для создания роутера.
type RouterBuilder struct {
	config     *RouterConfig
	operations *OperationUseCases
	wallets    *WalletUseCases
}

// NewRouterBuilder создаёт новый builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	return &RouterBuilder{
		config: config,
	}
}

// WithOperationUseCases добавляет денежные операции.
func (b *RouterBuilder) WithOperationUseCases(useCases *OperationUseCases) *RouterBuilder {
	b.operations = useCases
	return b
}

// WithWalletUseCases добавляет read-only запросы кошельков.
func (b *RouterBuilder) WithWalletUseCases(useCases *WalletUseCases) *RouterBuilder {
	b.wallets = useCases
	return b
}

// Build создаёт сконфигурированный Gin Engine.
func (b *RouterBuilder) Build() *gin.Engine {
	if b.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Создаём router без default middleware
	router := gin.New()

	// Настраиваем кастомные валидаторы
	handlers.SetupValidator()

	// ============================================
	// Global Middleware
	// ============================================

	// 1. Recovery - должен быть первым
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: b.config.Environment != "production",
	}))

	// 2. Request ID
	router.Use(middleware.RequestID())

	// 3. CORS
	if b.config.Environment == "production" {
		router.Use(middleware.CORS(middleware.ProductionCORSConfig(b.config.AllowedOrigins)))
	} else {
		router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	}

	// 4. Logging
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    b.config.Logger,
		SkipPaths: []string{"/health", "/live", "/ready", "/metrics"},
	}))

	// 5. Rate Limiting (global)
	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	// 6. Metrics (Prometheus)
	router.Use(middleware.Metrics())

	// ============================================
	// Metrics Endpoint
	// ============================================

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============================================
	// Health Check Routes
	// ============================================

	healthHandler := handlers.NewHealthHandler(
		b.config.Pool,
		b.config.RedisPing,
		b.config.NATSAlive,
		b.config.Version,
		b.config.BuildTime,
	)
	healthHandler.RegisterRoutes(router)

	// ============================================
	// API v1 Routes
	// ============================================

	v1 := router.Group("/api/v1")
	{
		// Денежные операции: отдельный, более строгий лимит
		if b.operations != nil {
			operationHandler := handlers.NewOperationHandler(
				b.operations.Topup,
				b.operations.Bonus,
				b.operations.Spend,
			)
			wallet := v1.Group("/wallet")
			wallet.Use(middleware.OperationRateLimit())
			{
				wallet.POST("/topup", operationHandler.Topup)
				wallet.POST("/bonus", operationHandler.Bonus)
				wallet.POST("/spend", operationHandler.Spend)
			}
		}

		// Read-only запросы
		if b.wallets != nil {
			walletHandler := handlers.NewWalletHandler(
				b.wallets.GetBalance,
				b.wallets.GetLedger,
				b.wallets.GetStats,
				b.wallets.ListAssets,
			)

			v1.GET("/users/:user_id/balances", walletHandler.ListUserBalances)

			wallets := v1.Group("/wallets")
			{
				wallets.GET("/:id/balance", walletHandler.GetWalletBalance)
				wallets.GET("/:id/ledger", walletHandler.GetWalletLedger)
				wallets.GET("/:id/stats", walletHandler.GetWalletStats)
			}

			v1.GET("/assets", walletHandler.ListAssetTypes)
		}
	}

	// ============================================
	// 404 Handler
	// ============================================

	router.NoRoute(func(c *gin.Context) {
		common.Error(c, 404, &common.APIError{
			Code:    common.ErrCodeNotFound,
			Message: "Endpoint not found",
			Details: map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			},
		})
	})

	return router
}

// NewRouter создаёт роутер с базовой конфигурацией (для простых случаев).
func NewRouter(config *RouterConfig) *gin.Engine {
	return NewRouterBuilder(config).Build()
}
