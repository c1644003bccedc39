// Package ledger - TransactionExecutor: идемпотентное исполнение одной
// ledger-операции под ordered locks, в serializable транзакции.
package ledger

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/Haleralex/coinvault/internal/application/dtos"
	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	"github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/Haleralex/coinvault/internal/domain/events"
	"github.com/google/uuid"
)

// TTL записей идемпотентности и in-flight маркера.
const (
	DefaultSuccessTTL = 24 * time.Hour
	DefaultFailureTTL = 1 * time.Hour
	DefaultClaimTTL   = 30 * time.Second
)

// ExecutorConfig - таймауты исполнителя. Zero value -> дефолты.
type ExecutorConfig struct {
	SuccessTTL time.Duration
	FailureTTL time.Duration
	ClaimTTL   time.Duration
}

func (c ExecutorConfig) withDefaults() ExecutorConfig {
	if c.SuccessTTL <= 0 {
		c.SuccessTTL = DefaultSuccessTTL
	}
	if c.FailureTTL <= 0 {
		c.FailureTTL = DefaultFailureTTL
	}
	if c.ClaimTTL <= 0 {
		c.ClaimTTL = DefaultClaimTTL
	}
	return c
}

// TransactionExecutor - точка входа ядра.
//
// Defence in depth, три независимых слоя:
// 1. Ordered distributed locks сериализуют конкурентов до БД
// 2. SERIALIZABLE изоляция ловит то, что пропустили блокировки
// 3. Version CAS на каждой строке кошелька ловит то, что пропустили оба
//
// Идемпотентность, два слоя:
// 1. Redis-кэш запрос -> результат (advisory, может быть потерян)
// 2. Unique index на transactions.idempotency_key (каноничный)
type TransactionExecutor struct {
	transactionRepo ports.TransactionRepository
	entryRepo       ports.LedgerEntryRepository
	writer          *DoubleEntryWriter
	coordinator     *LockCoordinator
	idempotency     ports.IdempotencyStore
	eventPublisher  ports.EventPublisher
	uow             ports.SerializableUnitOfWork
	balanceCache    ports.BalanceCache
	cfg             ExecutorConfig
}

// NewTransactionExecutor создаёт исполнитель.
// balanceCache опционален (nil -> без инвалидации read-кэша).
func NewTransactionExecutor(
	transactionRepo ports.TransactionRepository,
	entryRepo ports.LedgerEntryRepository,
	writer *DoubleEntryWriter,
	coordinator *LockCoordinator,
	idempotency ports.IdempotencyStore,
	eventPublisher ports.EventPublisher,
	uow ports.SerializableUnitOfWork,
	balanceCache ports.BalanceCache,
	cfg ExecutorConfig,
) *TransactionExecutor {
	return &TransactionExecutor{
		transactionRepo: transactionRepo,
		entryRepo:       entryRepo,
		writer:          writer,
		coordinator:     coordinator,
		idempotency:     idempotency,
		eventPublisher:  eventPublisher,
		uow:             uow,
		balanceCache:    balanceCache,
		cfg:             cfg.withDefaults(),
	}
}

// Execute выполняет одну ledger-операцию с ключом идемпотентности.
//
// Сценарий:
//  1. Пустой ключ -> IDEMPOTENCY_KEY_REQUIRED
//  2. Кэш-хит -> вернуть сохранённый результат, ничего не исполняя
//  3. Claim in-flight маркера -> иначе REQUEST_ALREADY_PROCESSING
//  4. Ordered locks -> serializable транзакция:
//     header insert, двойная запись, события в outbox
//  5. Duplicate idempotency_key в БД -> восстановить результат из строк
//  6. Успех кэшируется 24h, доменная ошибка 1h, инфраструктурная - никогда
//
// Возврат: (result, nil) для успеха и replay'а; (nil, err) для свежей
// ошибки. Replay кэшированной FAILED-записи возвращает result со
// Status=FAILED и кодом ошибки в Error.
func (e *TransactionExecutor) Execute(
	ctx context.Context,
	idempotencyKey string,
	txType entities.TransactionType,
	op dtos.LedgerOperation,
) (*dtos.TransactionResult, error) {
	if idempotencyKey == "" {
		return nil, errors.ErrIdempotencyKeyRequired
	}

	// 2. Advisory-кэш: replay без исполнения
	if record, found, err := e.idempotency.Check(ctx, idempotencyKey); err == nil && found {
		return recordToResult(record), nil
	}
	// Ошибка Check не фатальна: unique index в БД подстрахует

	// 3. In-flight маркер отсекает конкурентный повтор того же запроса
	claimed, err := e.idempotency.Claim(ctx, idempotencyKey, e.cfg.ClaimTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if !claimed {
		return nil, fmt.Errorf("%w: key %q", errors.ErrRequestAlreadyProcessing, idempotencyKey)
	}
	defer func() {
		// Best effort: маркер истечёт сам через ClaimTTL
		_ = e.idempotency.Unclaim(context.WithoutCancel(ctx), idempotencyKey)
	}()

	result, execErr := e.executeOnce(ctx, idempotencyKey, txType, op)

	switch {
	case execErr == nil:
		e.storeRecord(ctx, idempotencyKey, resultToRecord(result), e.cfg.SuccessTTL)
		e.invalidateBalances(ctx, op)
		return result, nil

	case stderrors.Is(execErr, errors.ErrRequestAlreadyProcessing):
		// Durable-слой сработал: строка с этим ключом уже есть.
		// Кэш был потерян или запись туда не успела - восстанавливаем.
		return e.reconstructResult(ctx, idempotencyKey)

	case errors.IsDomain(execErr):
		// Кэшируем только доменные отказы: повтор даст тот же ответ.
		// Инфраструктурные ошибки должны оставаться retryable.
		e.storeRecord(ctx, idempotencyKey, failureRecord(execErr), e.cfg.FailureTTL)
		return nil, execErr

	default:
		return nil, execErr
	}
}

// executeOnce - одна попытка исполнения: locks -> serializable tx.
func (e *TransactionExecutor) executeOnce(
	ctx context.Context,
	idempotencyKey string,
	txType entities.TransactionType,
	op dtos.LedgerOperation,
) (*dtos.TransactionResult, error) {
	transaction, err := entities.NewCompletedTransaction(uuid.New(), idempotencyKey, txType, op.Metadata)
	if err != nil {
		return nil, err
	}

	var result *dtos.TransactionResult

	lockErr := e.coordinator.WithLocks(ctx, op.WalletIDs(), func(lockedCtx context.Context) error {
		return e.uow.Execute(lockedCtx, func(txCtx context.Context) error {
			// Header первым: unique violation на idempotency_key
			// прерывает транзакцию до каких-либо движений
			if err := e.transactionRepo.Insert(txCtx, transaction); err != nil {
				return err
			}

			written, err := e.writer.Write(txCtx, transaction, op)
			if err != nil {
				return err
			}

			eventList := []events.DomainEvent{
				events.NewTransactionRecorded(
					transaction.ID(), txType, idempotencyKey,
					op.Amount, op.FromWalletID, op.ToWalletID,
				),
				events.NewWalletBalanceChanged(
					written.FromWalletID, transaction.ID(),
					entities.EntryTypeDebit, op.Amount, written.FromBalance,
				),
				events.NewWalletBalanceChanged(
					written.ToWalletID, transaction.ID(),
					entities.EntryTypeCredit, op.Amount, written.ToBalance,
				),
			}
			if err := e.eventPublisher.PublishBatch(txCtx, eventList); err != nil {
				return fmt.Errorf("failed to stage events: %w", err)
			}

			result = &dtos.TransactionResult{
				TransactionID: transaction.ID().String(),
				Status:        dtos.ResultStatusCompleted,
				FromBalance:   written.FromBalance.String(),
				ToBalance:     written.ToBalance.String(),
			}
			return nil
		})
	})
	if lockErr != nil {
		return nil, lockErr
	}

	return result, nil
}

// reconstructResult восстанавливает ответ из durable-строк, когда
// idempotency-кэш промахнулся, но транзакция с этим ключом уже закоммичена.
func (e *TransactionExecutor) reconstructResult(ctx context.Context, idempotencyKey string) (*dtos.TransactionResult, error) {
	existing, err := e.transactionRepo.FindByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		if errors.IsNotFound(err) {
			// Строки нет, но insert упал на unique: конкурент ещё в полёте
			return nil, fmt.Errorf("%w: key %q", errors.ErrRequestAlreadyProcessing, idempotencyKey)
		}
		return nil, fmt.Errorf("failed to load transaction by idempotency key: %w", err)
	}

	if existing.Status() != entities.TransactionStatusCompleted {
		return nil, fmt.Errorf("%w: key %q", errors.ErrRequestAlreadyProcessing, idempotencyKey)
	}

	entries, err := e.entryRepo.FindByTransaction(ctx, existing.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries for reconstruction: %w", err)
	}

	result := &dtos.TransactionResult{
		TransactionID: existing.ID().String(),
		Status:        dtos.ResultStatusCompleted,
	}
	for _, entry := range entries {
		switch entry.EntryType() {
		case entities.EntryTypeDebit:
			result.FromBalance = entry.RunningBalance().String()
		case entities.EntryTypeCredit:
			result.ToBalance = entry.RunningBalance().String()
		}
	}

	e.storeRecord(ctx, idempotencyKey, resultToRecord(result), e.cfg.SuccessTTL)
	return result, nil
}

// storeRecord пишет в advisory-кэш; ошибка не влияет на исход операции.
func (e *TransactionExecutor) storeRecord(ctx context.Context, key string, record ports.IdempotencyRecord, ttl time.Duration) {
	_ = e.idempotency.Store(context.WithoutCancel(ctx), key, record, ttl)
}

// invalidateBalances сбрасывает read-through кэш затронутых кошельков.
func (e *TransactionExecutor) invalidateBalances(ctx context.Context, op dtos.LedgerOperation) {
	if e.balanceCache == nil {
		return
	}
	for _, id := range op.WalletIDs() {
		_ = e.balanceCache.Invalidate(context.WithoutCancel(ctx), id)
	}
}

func recordToResult(record ports.IdempotencyRecord) *dtos.TransactionResult {
	errCode := record.ErrorCode
	if errCode == "" {
		errCode = record.Error
	}
	return &dtos.TransactionResult{
		TransactionID: record.TransactionID,
		Status:        record.Status,
		FromBalance:   record.FromBalance,
		ToBalance:     record.ToBalance,
		Error:         errCode,
	}
}

func resultToRecord(result *dtos.TransactionResult) ports.IdempotencyRecord {
	return ports.IdempotencyRecord{
		Status:        result.Status,
		TransactionID: result.TransactionID,
		FromBalance:   result.FromBalance,
		ToBalance:     result.ToBalance,
	}
}

func failureRecord(err error) ports.IdempotencyRecord {
	return ports.IdempotencyRecord{
		Status:    dtos.ResultStatusFailed,
		Error:     err.Error(),
		ErrorCode: errors.Code(err),
	}
}
