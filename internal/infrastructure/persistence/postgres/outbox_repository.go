// Package postgres - OutboxRepository для Transactional Outbox Pattern.
//
// 1. В той же транзакции, что и ledger rows, сохраняем событие в outbox
// 2. Отдельный relay читает события и публикует в NATS
// 3. После публикации событие помечается PUBLISHED
//
// At-least-once delivery: consumers обязаны быть идемпотентными.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/events"
)

// Compile-time check
var (
	_ ports.OutboxRepository = (*OutboxRepository)(nil)
	_ ports.EventPublisher   = (*OutboxRepository)(nil)
)

// Статусы outbox-записей. Ошибка доставки не является статусом:
// событие остаётся PENDING до успешной публикации (at-least-once).
const (
	outboxStatusPending   = "PENDING"
	outboxStatusPublished = "PUBLISHED"
)

// OutboxRepository реализует ports.OutboxRepository.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository создаёт новый OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// eventEnvelope - wire-формат payload в outbox.
type eventEnvelope struct {
	EventID     string      `json:"eventId"`
	EventType   string      `json:"eventType"`
	AggregateID string      `json:"aggregateId"`
	OccurredAt  time.Time   `json:"occurredAt"`
	Data        interface{} `json:"data"`
}

// Publish сохраняет событие в outbox.
// Должно выполняться в той же транзакции, что и бизнес-операция!
func (r *OutboxRepository) Publish(ctx context.Context, event events.DomainEvent) error {
	q := r.getQuerier(ctx)

	payload, err := json.Marshal(eventEnvelope{
		EventID:     event.EventID().String(),
		EventType:   event.EventType(),
		AggregateID: event.AggregateID().String(),
		OccurredAt:  event.OccurredAt(),
		Data:        event,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	query := `
		INSERT INTO outbox_events (
			id, event_type, aggregate_id, payload, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = q.Exec(ctx, query,
		event.EventID(),
		event.EventType(),
		event.AggregateID(),
		payload,
		outboxStatusPending,
		event.OccurredAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save event to outbox: %w", err)
	}

	return nil
}

// PublishBatch сохраняет несколько событий.
func (r *OutboxRepository) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	for _, event := range evts {
		if err := r.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// FindUnpublished возвращает PENDING события для relay'я.
// FOR UPDATE SKIP LOCKED позволяет нескольким relay'ям работать параллельно.
func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, event_type, payload
		FROM outbox_events
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find unpublished events: %w", err)
	}
	defer rows.Close()

	var messages []ports.OutboxMessage
	for rows.Next() {
		var msg ports.OutboxMessage
		if err := rows.Scan(&msg.EventID, &msg.EventType, &msg.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// MarkPublished помечает событие как опубликованное.
func (r *OutboxRepository) MarkPublished(ctx context.Context, eventID uuid.UUID) error {
	q := r.getQuerier(ctx)

	_, err := q.Exec(ctx,
		`UPDATE outbox_events SET status = $2, published_at = $3 WHERE id = $1`,
		eventID, outboxStatusPublished, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark event published: %w", err)
	}
	return nil
}

// RecordDeliveryError фиксирует ошибку доставки, не меняя статус:
// событие остаётся PENDING, FindUnpublished заберёт его на следующем
// проходе. Транзиентный сбой брокера не должен терять события.
func (r *OutboxRepository) RecordDeliveryError(ctx context.Context, eventID uuid.UUID, reason string) error {
	q := r.getQuerier(ctx)

	_, err := q.Exec(ctx,
		`UPDATE outbox_events SET last_error = $2, attempts = attempts + 1 WHERE id = $1`,
		eventID, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to record delivery error: %w", err)
	}
	return nil
}
