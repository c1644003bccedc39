// Package ports - EventPublisher для публикации domain events.
//
// Pattern: Transactional Outbox
// - События сохраняются в outbox в той же БД-транзакции, что и ledger rows
// - Отдельный relay читает outbox и публикует в NATS
// - После успешной публикации событие помечается published
package ports

import (
	"context"

	"github.com/Haleralex/coinvault/internal/domain/events"
	"github.com/google/uuid"
)

// EventPublisher определяет контракт для публикации domain events.
//
// Реализации:
// - Outbox (production): запись в outbox_events внутри БД-транзакции
// - In-memory (тесты)
type EventPublisher interface {
	// Publish публикует одно событие.
	// At-least-once delivery: consumers должны быть идемпотентными.
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch публикует несколько событий за один вызов.
	// Если одно событие не сохраняется, вся batch проваливается.
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// OutboxMessage - сырое событие из таблицы outbox, готовое к доставке.
type OutboxMessage struct {
	EventID   uuid.UUID
	EventType string
	Payload   []byte
}

// OutboxRepository - хранилище Transactional Outbox.
type OutboxRepository interface {
	EventPublisher

	// FindUnpublished возвращает события, которые ещё не опубликованы.
	// Используется relay'ем для доставки в NATS.
	FindUnpublished(ctx context.Context, limit int) ([]OutboxMessage, error)

	// MarkPublished помечает событие как опубликованное.
	MarkPublished(ctx context.Context, eventID uuid.UUID) error

	// RecordDeliveryError фиксирует ошибку доставки. Событие остаётся
	// PENDING и будет повторено на следующем проходе relay'я.
	RecordDeliveryError(ctx context.Context, eventID uuid.UUID, reason string) error
}
