// Package ledger - DoubleEntryWriter пишет согласованную пару ledger entries
// и обновляет оба баланса через optimistic CAS.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/Haleralex/coinvault/internal/application/dtos"
	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	"github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// DoubleEntryWriter выполняет один ledger-движение внутри уже открытой
// БД-транзакции (txCtx обязан содержать транзакцию UnitOfWork).
//
// Инварианты:
// - Ровно одна DEBIT и одна CREDIT запись, равные по amount и asset
// - Обе записи разделяют один created_at timestamp
// - Баланс изменяется только через CompareAndSwapBalance по версии,
//   прочитанной в этой же транзакции
type DoubleEntryWriter struct {
	walletRepo ports.WalletRepository
	entryRepo  ports.LedgerEntryRepository
}

// NewDoubleEntryWriter создаёт writer.
func NewDoubleEntryWriter(walletRepo ports.WalletRepository, entryRepo ports.LedgerEntryRepository) *DoubleEntryWriter {
	return &DoubleEntryWriter{
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
	}
}

// WriteResult - балансы после движения, для ответа и событий.
type WriteResult struct {
	FromWalletID uuid.UUID
	ToWalletID   uuid.UUID
	FromBalance  valueobjects.Amount
	ToBalance    valueobjects.Amount
}

// Write применяет движение op к обоим кошелькам.
//
// Сценарий:
// 1. Загрузить source wallet -> SOURCE_WALLET_NOT_FOUND
// 2. Загрузить destination wallet -> DESTINATION_WALLET_NOT_FOUND
// 3. Проверить покрытие -> INSUFFICIENT_BALANCE
// 4. Записать CREDIT и DEBIT entries с общим timestamp
// 5. CAS source -> CONCURRENT_MODIFICATION_SOURCE
// 6. CAS destination -> CONCURRENT_MODIFICATION_DESTINATION
//
// Двойная запись требует обе стороны: mint/burn не существует,
// эмиссия идёт из сидированного Treasury-кошелька.
func (w *DoubleEntryWriter) Write(txCtx context.Context, transaction *entities.Transaction, op dtos.LedgerOperation) (*WriteResult, error) {
	if op.FromWalletID == nil {
		return nil, errors.ValidationError{
			Field:   "fromWalletId",
			Message: "source wallet is required for a double-entry movement",
		}
	}
	if *op.FromWalletID == op.ToWalletID {
		return nil, errors.ValidationError{
			Field:   "toWalletId",
			Message: "source and destination wallets must differ",
		}
	}
	if !op.Amount.IsPositive() {
		return nil, errors.ValidationError{
			Field:   "amount",
			Message: "amount must be positive",
		}
	}

	// 1-2. Загружаем оба кошелька внутри транзакции
	source, err := w.walletRepo.FindByID(txCtx, *op.FromWalletID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrSourceWalletNotFound, op.FromWalletID)
		}
		return nil, fmt.Errorf("failed to load source wallet: %w", err)
	}

	destination, err := w.walletRepo.FindByID(txCtx, op.ToWalletID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrDestinationWalletNotFound, op.ToWalletID)
		}
		return nil, fmt.Errorf("failed to load destination wallet: %w", err)
	}

	if source.AssetTypeID() != op.AssetTypeID || destination.AssetTypeID() != op.AssetTypeID {
		return nil, errors.ValidationError{
			Field:   "assetTypeId",
			Message: "both wallets must hold the operation asset",
		}
	}

	// 3. Проверка покрытия до каких-либо записей
	if !source.HasSufficientBalance(op.Amount) {
		return nil, fmt.Errorf("%w: wallet %s holds %s, needs %s",
			errors.ErrInsufficientBalance, source.ID(), source.Balance(), op.Amount)
	}

	// Версии до мутации - ожидаемые версии для CAS
	sourceVersion := source.Version()
	destinationVersion := destination.Version()

	if _, err := source.Debit(op.Amount); err != nil {
		return nil, err
	}
	if _, err := destination.Credit(op.Amount); err != nil {
		return nil, err
	}

	// 4. Обе записи разделяют один момент времени
	recordedAt := time.Now()
	fromID := source.ID()
	toID := destination.ID()

	creditEntry, err := entities.NewLedgerEntry(
		transaction.ID(), toID, op.AssetTypeID,
		entities.EntryTypeCredit,
		op.Amount, destination.Balance(),
		&fromID,
		op.Description,
		recordedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build credit entry: %w", err)
	}

	debitEntry, err := entities.NewLedgerEntry(
		transaction.ID(), fromID, op.AssetTypeID,
		entities.EntryTypeDebit,
		op.Amount, source.Balance(),
		&toID,
		op.Description,
		recordedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build debit entry: %w", err)
	}

	if err := w.entryRepo.Append(txCtx, creditEntry); err != nil {
		return nil, fmt.Errorf("failed to append credit entry: %w", err)
	}
	if err := w.entryRepo.Append(txCtx, debitEntry); err != nil {
		return nil, fmt.Errorf("failed to append debit entry: %w", err)
	}

	// 5-6. CAS балансов. Под каноничной блокировкой версии не должны
	// меняться, но проверяем всё равно: третья линия защиты.
	if err := w.walletRepo.CompareAndSwapBalance(txCtx, fromID, source.Balance(), sourceVersion); err != nil {
		if errors.IsConcurrencyError(err) {
			return nil, fmt.Errorf("%w: wallet %s", errors.ErrConcurrentModificationSrc, fromID)
		}
		return nil, fmt.Errorf("failed to update source balance: %w", err)
	}

	if err := w.walletRepo.CompareAndSwapBalance(txCtx, toID, destination.Balance(), destinationVersion); err != nil {
		if errors.IsConcurrencyError(err) {
			return nil, fmt.Errorf("%w: wallet %s", errors.ErrConcurrentModificationDst, toID)
		}
		return nil, fmt.Errorf("failed to update destination balance: %w", err)
	}

	return &WriteResult{
		FromWalletID: fromID,
		ToWalletID:   toID,
		FromBalance:  source.Balance(),
		ToBalance:    destination.Balance(),
	}, nil
}
