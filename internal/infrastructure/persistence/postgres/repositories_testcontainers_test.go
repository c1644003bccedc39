//go:build integration

// Интеграционные тесты repositories с testcontainers.
//
// Запуск:
//
//	go test -tags integration ./internal/infrastructure/persistence/postgres/...
//
// Требования:
//   - Docker запущен
package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/google/uuid"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/Haleralex/coinvault/internal/domain/events"
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
)

func newTestEvent(t *testing.T) *events.WalletCreated {
	t.Helper()
	return events.NewWalletCreated(uuid.New(), "user-outbox", entities.OwnerTypeUser, uuid.New())
}

// testContainer хранит контейнер и pool для тестов.
type testContainer struct {
	container *pgcontainer.PostgresContainer
	pool      *pgxpool.Pool
}

// Shared container for all tests (performance optimization)
var sharedTestContainer *testContainer

func setupSharedTestDB(t *testing.T) *testContainer {
	t.Helper()

	if sharedTestContainer != nil {
		cleanupTables(t, sharedTestContainer.pool)
		return sharedTestContainer
	}

	ctx := context.Background()
	migrationsPath := filepath.Join("..", "..", "..", "..", "migrations")

	container, err := pgcontainer.Run(ctx,
		"postgres:16-alpine",
		pgcontainer.WithDatabase("testdb"),
		pgcontainer.WithUsername("testuser"),
		pgcontainer.WithPassword("testpass"),
		pgcontainer.WithInitScripts(
			filepath.Join(migrationsPath, "000001_create_asset_types.up.sql"),
			filepath.Join(migrationsPath, "000002_create_wallets.up.sql"),
			filepath.Join(migrationsPath, "000003_create_transactions.up.sql"),
			filepath.Join(migrationsPath, "000004_create_ledger_entries.up.sql"),
			filepath.Join(migrationsPath, "000005_create_outbox_events.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))

	sharedTestContainer = &testContainer{container: container, pool: pool}
	return sharedTestContainer
}

func cleanupTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`TRUNCATE outbox_events, ledger_entries, transactions, wallets, asset_types CASCADE`)
	require.NoError(t, err)
}

// seedAsset создаёт asset type напрямую в БД.
func seedAsset(t *testing.T, pool *pgxpool.Pool, code string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO asset_types (id, code, name, active) VALUES ($1, $2, $3, TRUE)`,
		id, code, code+" test asset")
	require.NoError(t, err)
	return id
}

func TestWalletRepository_InsertAndFind(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()
	repo := NewWalletRepository(tc.pool)

	assetID := seedAsset(t, tc.pool, "GOLD")

	wallet, err := entities.NewWallet("user-001", entities.OwnerTypeUser, assetID)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, wallet))

	found, err := repo.FindByID(ctx, wallet.ID())
	require.NoError(t, err)
	assert.Equal(t, wallet.ID(), found.ID())
	assert.Equal(t, "user-001", found.OwnerID())
	assert.True(t, found.Balance().IsZero())
	assert.Equal(t, int64(0), found.Version())

	byOwner, err := repo.FindByOwnerAndAsset(ctx, "user-001", entities.OwnerTypeUser, assetID)
	require.NoError(t, err)
	assert.Equal(t, wallet.ID(), byOwner.ID())

	// Дубликат тройки (owner, ownerType, asset)
	dup, err := entities.NewWallet("user-001", entities.OwnerTypeUser, assetID)
	require.NoError(t, err)
	err = repo.Insert(ctx, dup)
	assert.ErrorIs(t, err, domainErrors.ErrEntityAlreadyExists)
}

func TestWalletRepository_CompareAndSwapBalance(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()
	repo := NewWalletRepository(tc.pool)

	assetID := seedAsset(t, tc.pool, "GOLD")
	wallet, err := entities.NewWallet("user-cas", entities.OwnerTypeUser, assetID)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, wallet))

	// CAS с правильной версией проходит
	err = repo.CompareAndSwapBalance(ctx, wallet.ID(), valueobjects.MustParseAmount("100.5"), 0)
	require.NoError(t, err)

	updated, err := repo.FindByID(ctx, wallet.ID())
	require.NoError(t, err)
	assert.Equal(t, "100.5", updated.Balance().String())
	assert.Equal(t, int64(1), updated.Version())

	// CAS с устаревшей версией - конфликт
	err = repo.CompareAndSwapBalance(ctx, wallet.ID(), valueobjects.MustParseAmount("200"), 0)
	require.Error(t, err)
	assert.True(t, domainErrors.IsConcurrencyError(err))
}

func TestTransactionRepository_IdempotencyKeyUnique(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()
	repo := NewTransactionRepository(tc.pool)

	tx1, err := entities.NewCompletedTransaction(uuid.New(), "dup-key", entities.TransactionTypeTopup, map[string]interface{}{"source": "test"})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, tx1))

	// Второй заголовок с тем же ключом отбивается durable-слоем
	tx2, err := entities.NewCompletedTransaction(uuid.New(), "dup-key", entities.TransactionTypeTopup, nil)
	require.NoError(t, err)
	err = repo.Insert(ctx, tx2)
	assert.ErrorIs(t, err, domainErrors.ErrRequestAlreadyProcessing)

	found, err := repo.FindByIdempotencyKey(ctx, "dup-key")
	require.NoError(t, err)
	assert.Equal(t, tx1.ID(), found.ID())
	assert.Equal(t, entities.TransactionStatusCompleted, found.Status())
	assert.Equal(t, "test", found.Metadata()["source"])
}

func TestLedgerEntryRepository_AppendAndAggregate(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()

	assetID := seedAsset(t, tc.pool, "GOLD")
	walletRepo := NewWalletRepository(tc.pool)
	txRepo := NewTransactionRepository(tc.pool)
	entryRepo := NewLedgerEntryRepository(tc.pool)

	src, _ := entities.NewWallet("treasury-test", entities.OwnerTypeSystem, assetID)
	dst, _ := entities.NewWallet("user-agg", entities.OwnerTypeUser, assetID)
	require.NoError(t, walletRepo.Insert(ctx, src))
	require.NoError(t, walletRepo.Insert(ctx, dst))

	tx, err := entities.NewCompletedTransaction(uuid.New(), "agg-key", entities.TransactionTypeTopup, nil)
	require.NoError(t, err)
	require.NoError(t, txRepo.Insert(ctx, tx))

	now := time.Now()
	srcID, dstID := src.ID(), dst.ID()
	credit, err := entities.NewLedgerEntry(tx.ID(), dstID, assetID, entities.EntryTypeCredit,
		valueobjects.MustParseAmount("250.75"), valueobjects.MustParseAmount("250.75"), &srcID, "topup", now)
	require.NoError(t, err)
	debit, err := entities.NewLedgerEntry(tx.ID(), srcID, assetID, entities.EntryTypeDebit,
		valueobjects.MustParseAmount("250.75"), valueobjects.MustParseAmount("0"), &dstID, "topup", now)
	require.NoError(t, err)

	require.NoError(t, entryRepo.Append(ctx, credit))
	require.NoError(t, entryRepo.Append(ctx, debit))

	byTx, err := entryRepo.FindByTransaction(ctx, tx.ID())
	require.NoError(t, err)
	require.Len(t, byTx, 2)

	credits, debits, err := entryRepo.SumByWallet(ctx, dstID)
	require.NoError(t, err)
	assert.Equal(t, "250.75", credits.String())
	assert.True(t, debits.IsZero())

	count, err := entryRepo.CountByWallet(ctx, dstID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	page, err := entryRepo.FindByWallet(ctx, dstID, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, entities.EntryTypeCredit, page[0].EntryType())
}

func TestSerializableUnitOfWork_CommitAndRollback(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()

	assetID := seedAsset(t, tc.pool, "GOLD")
	walletRepo := NewWalletRepository(tc.pool)
	uow := NewSerializableUnitOfWork(tc.pool, 0, 0)

	wallet, _ := entities.NewWallet("user-uow", entities.OwnerTypeUser, assetID)

	// Ошибка внутри fn откатывает insert
	err := uow.Execute(ctx, func(txCtx context.Context) error {
		if err := walletRepo.Insert(txCtx, wallet); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = walletRepo.FindByID(ctx, wallet.ID())
	assert.ErrorIs(t, err, domainErrors.ErrEntityNotFound)

	// Успех коммитит
	err = uow.Execute(ctx, func(txCtx context.Context) error {
		return walletRepo.Insert(txCtx, wallet)
	})
	require.NoError(t, err)

	found, err := walletRepo.FindByID(ctx, wallet.ID())
	require.NoError(t, err)
	assert.Equal(t, wallet.ID(), found.ID())
}

func TestOutboxRepository_RoundTrip(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()
	repo := NewOutboxRepository(tc.pool)

	event := newTestEvent(t)
	require.NoError(t, repo.Publish(ctx, event))

	uow := NewUnitOfWork(tc.pool)
	err := uow.Execute(ctx, func(txCtx context.Context) error {
		messages, err := repo.FindUnpublished(txCtx, 10)
		if err != nil {
			return err
		}
		require.Len(t, messages, 1)
		assert.Equal(t, event.EventID(), messages[0].EventID)
		assert.Equal(t, event.EventType(), messages[0].EventType)
		return repo.MarkPublished(txCtx, messages[0].EventID)
	})
	require.NoError(t, err)

	err = uow.Execute(ctx, func(txCtx context.Context) error {
		messages, err := repo.FindUnpublished(txCtx, 10)
		if err != nil {
			return err
		}
		assert.Empty(t, messages)
		return nil
	})
	require.NoError(t, err)
}
