package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Haleralex/coinvault/internal/adapters/http"
	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/application/usecases/ledger"
	"github.com/Haleralex/coinvault/internal/application/usecases/wallet"
	"github.com/Haleralex/coinvault/internal/config"
	natsx "github.com/Haleralex/coinvault/internal/infrastructure/messaging/nats"
	"github.com/Haleralex/coinvault/internal/infrastructure/persistence/postgres"
	redisx "github.com/Haleralex/coinvault/internal/infrastructure/redis"
	"github.com/Haleralex/coinvault/internal/pkg/logger"
)

func main() {
	// .env удобен для локальной разработки; в production его нет
	_ = godotenv.Load()

	// 1. Configuration
	cfg, err := config.Load("configs", "config")
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// 2. Logger
	appLogger := logger.New(&logger.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    logOutput(cfg.Log.Output),
		AddSource: cfg.Log.AddSource,
	})
	slog.SetDefault(appLogger)

	appLogger.Info("🚀 Starting CoinVault API Server...",
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Контекст процесса: отменяется по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. PostgreSQL - источник истины
	pool, err := postgres.NewConnectionPool(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Database,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConnections,
		MinConns:        cfg.Database.MinConnections,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer pool.Close()
	appLogger.Info("✅ Database connected successfully")

	// 4. Redis - блокировки, идемпотентность, кэш балансов
	redisClient, err := redisx.NewClient(ctx, redisx.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.Fatal("Failed to connect to redis:", err)
	}
	defer redisClient.Close()
	appLogger.Info("✅ Redis connected successfully")

	// 5. NATS - доставка событий из outbox
	natsConn, err := natsx.Connect(natsx.Config{
		URL:           cfg.NATS.URL,
		Name:          cfg.NATS.Name,
		MaxReconnects: cfg.NATS.MaxReconnects,
		ReconnectWait: cfg.NATS.ReconnectWait,
		Timeout:       cfg.NATS.Timeout,
	})
	if err != nil {
		log.Fatal("Failed to connect to NATS:", err)
	}
	defer natsConn.Close()
	appLogger.Info("✅ NATS connected successfully")

	// 6. Repositories
	walletRepo := postgres.NewWalletRepository(pool)
	assetRepo := postgres.NewAssetTypeRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	entryRepo := postgres.NewLedgerEntryRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)

	// Unit of Work: обычный для relay, serializable для ядра
	uow := postgres.NewUnitOfWork(pool)
	serializableUow := postgres.NewSerializableUnitOfWork(pool, 0, 0)

	// Event Publisher - пишет события в outbox той же транзакцией
	var eventPublisher ports.EventPublisher = outboxRepo

	// 7. Redis adapters
	lockManager := redisx.NewLockManager(redisClient)
	idempotencyStore := redisx.NewIdempotencyStore(redisClient)
	balanceCache := redisx.NewBalanceCache(redisClient)

	// 8. Ledger core
	coordinator := ledger.NewLockCoordinator(lockManager, cfg.Lock.TTL)
	writer := ledger.NewDoubleEntryWriter(walletRepo, entryRepo)
	executor := ledger.NewTransactionExecutor(
		transactionRepo,
		entryRepo,
		writer,
		coordinator,
		idempotencyStore,
		eventPublisher,
		serializableUow,
		balanceCache,
		ledger.ExecutorConfig{
			SuccessTTL: cfg.Idempotency.SuccessTTL,
			FailureTTL: cfg.Idempotency.FailureTTL,
			ClaimTTL:   cfg.Idempotency.ClaimTTL,
		},
	)

	// 9. Use Cases
	ensureWalletUC := wallet.NewEnsureWalletUseCase(walletRepo, eventPublisher)
	operations := ledger.NewOperationService(executor, ensureWalletUC, walletRepo, assetRepo)

	getBalanceUC := wallet.NewGetBalanceUseCase(walletRepo, assetRepo, balanceCache)
	getLedgerUC := wallet.NewGetLedgerUseCase(walletRepo, entryRepo)
	getStatsUC := wallet.NewGetStatsUseCase(walletRepo, entryRepo)
	listAssetsUC := wallet.NewListAssetTypesUseCase(assetRepo)

	appLogger.Info("✅ Use cases initialized")

	// 10. Outbox relay: at-least-once доставка событий в NATS
	relay := natsx.NewOutboxRelay(
		outboxRepo,
		uow,
		natsConn,
		appLogger,
		cfg.Outbox.PollInterval,
		cfg.Outbox.BatchSize,
	)
	go relay.Run(ctx)

	// 11. Router Configuration
	routerConfig := &http.RouterConfig{
		Logger:         appLogger,
		Pool:           pool,
		RedisPing:      func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		NATSAlive:      natsConn.IsConnected,
		Version:        cfg.App.Version,
		BuildTime:      cfg.App.BuildTime,
		Environment:    cfg.App.Environment,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}

	router := http.NewRouterBuilder(routerConfig).
		WithOperationUseCases(&http.OperationUseCases{
			Topup: operations,
			Bonus: operations,
			Spend: operations,
		}).
		WithWalletUseCases(&http.WalletUseCases{
			GetBalance: getBalanceUC,
			GetLedger:  getLedgerUC,
			GetStats:   getStatsUC,
			ListAssets: listAssetsUC,
		}).
		Build()

	appLogger.Info("✅ HTTP router configured")

	// 12. HTTP Server
	serverConfig := &http.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            fmt.Sprintf("%d", cfg.Server.Port),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          appLogger,
	}

	server := http.NewServer(serverConfig, router)

	// 13. Start Server
	appLogger.Info(fmt.Sprintf("🌍 Server starting on http://%s", serverConfig.Address()))
	appLogger.Info("Press Ctrl+C to stop")

	if err := server.RunWithContext(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("👋 Server stopped gracefully")
}

func logOutput(name string) *os.File {
	if name == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}
