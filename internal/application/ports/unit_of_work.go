// Package ports - UnitOfWork паттерн для управления транзакциями.
//
// Pattern: Unit of Work
// - Обеспечивает атомарность операций
// - Один UnitOfWork = одна БД-транзакция
// - Автоматический rollback при ошибке
package ports

import "context"

// UnitOfWork определяет контракт для управления транзакциями.
//
// Пример использования:
//
//	err := uow.Execute(ctx, func(txCtx context.Context) error {
//	    wallet, err := walletRepo.FindByID(txCtx, walletID) // используем txCtx!
//	    if err != nil {
//	        return err // автоматический rollback
//	    }
//	    return ledgerRepo.Append(txCtx, entry)
//	    // nil -> COMMIT
//	})
type UnitOfWork interface {
	// Execute выполняет функцию внутри транзакции.
	//
	// Поведение:
	// - Начинает транзакцию
	// - Выполняет fn с context, содержащим транзакцию
	// - Если fn возвращает error: ROLLBACK
	// - Если fn возвращает nil: COMMIT
	Execute(ctx context.Context, fn func(context.Context) error) error
}

// SerializableUnitOfWork помечает UnitOfWork, открывающий транзакции
// на уровне изоляции SERIALIZABLE с ограниченным временем ожидания
// блокировок и общим таймаутом. Исполнитель ядра требует именно его.
type SerializableUnitOfWork interface {
	UnitOfWork
}
