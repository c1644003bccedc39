package nats

import (
	"context"
	"log/slog"
	"time"

	"github.com/Haleralex/coinvault/internal/application/ports"
)

const (
	// DefaultPollInterval - период опроса outbox.
	DefaultPollInterval = 1 * time.Second
	// DefaultBatchSize - сколько событий relay забирает за один проход.
	DefaultBatchSize = 100
)

// OutboxRelay перекладывает события из outbox_events в NATS.
//
// Каждый проход выполняется в транзакции: FindUnpublished берёт строки
// с FOR UPDATE SKIP LOCKED, поэтому несколько реплик relay'я не
// доставляют одно событие дважды. Consumers всё равно обязаны быть
// идемпотентными: at-least-once, не exactly-once.
type OutboxRelay struct {
	outbox       ports.OutboxRepository
	uow          ports.UnitOfWork
	sender       MessageSender
	logger       *slog.Logger
	pollInterval time.Duration
	batchSize    int
}

// NewOutboxRelay создаёт OutboxRelay.
// Нулевые pollInterval и batchSize заменяются значениями по умолчанию.
func NewOutboxRelay(
	outbox ports.OutboxRepository,
	uow ports.UnitOfWork,
	sender MessageSender,
	logger *slog.Logger,
	pollInterval time.Duration,
	batchSize int,
) *OutboxRelay {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &OutboxRelay{
		outbox:       outbox,
		uow:          uow,
		sender:       sender,
		logger:       logger,
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

// Run запускает цикл доставки до отмены контекста.
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "outbox relay started",
		"poll_interval", r.pollInterval.String(),
		"batch_size", r.batchSize,
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.DrainOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// DrainOnce выполняет один проход: забрать batch, опубликовать, пометить.
//
// Ошибка доставки одного события не останавливает проход: ошибка
// фиксируется, событие остаётся PENDING и будет повторено на
// следующем проходе. Транзакция держит row-locks до конца прохода,
// поэтому batch должен быть небольшим.
func (r *OutboxRelay) DrainOnce(ctx context.Context) error {
	return r.uow.Execute(ctx, func(txCtx context.Context) error {
		messages, err := r.outbox.FindUnpublished(txCtx, r.batchSize)
		if err != nil {
			return err
		}

		for _, msg := range messages {
			if err := r.sender.Publish(Subject(msg.EventType), msg.Payload); err != nil {
				r.logger.WarnContext(txCtx, "event delivery failed",
					"event_id", msg.EventID.String(),
					"event_type", msg.EventType,
					"error", err,
				)
				if recordErr := r.outbox.RecordDeliveryError(txCtx, msg.EventID, err.Error()); recordErr != nil {
					return recordErr
				}
				continue
			}

			if err := r.outbox.MarkPublished(txCtx, msg.EventID); err != nil {
				return err
			}

			r.logger.DebugContext(txCtx, "event published",
				"event_id", msg.EventID.String(),
				"event_type", msg.EventType,
			)
		}
		return nil
	})
}
