// Package redis - IdempotencyStore: кэш запрос -> результат + in-flight маркер.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Haleralex/coinvault/internal/application/ports"
)

// Compile-time check
var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// Key namespaces. idempotency: хранит результат, processing: - in-flight маркер.
const (
	idempotencyKeyPrefix = "idempotency:"
	processingKeyPrefix  = "processing:"
)

// IdempotencyStore реализует ports.IdempotencyStore.
//
// Кэш advisory: потеря Redis не нарушает идемпотентность, каноничной
// защитой остаётся unique index на transactions.idempotency_key.
type IdempotencyStore struct {
	client cmdable
}

// NewIdempotencyStore создаёт IdempotencyStore.
func NewIdempotencyStore(client cmdable) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Check возвращает сохранённый результат, если он есть.
func (s *IdempotencyStore) Check(ctx context.Context, key string) (ports.IdempotencyRecord, bool, error) {
	data, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	var record ports.IdempotencyRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		// Повреждённая запись равносильна промаху: durable-слой подстрахует
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

// Store сохраняет запись с заданным TTL.
func (s *IdempotencyStore) Store(ctx context.Context, key string, record ports.IdempotencyRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize idempotency record: %w", err)
	}

	if err := s.client.Set(ctx, idempotencyKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency record: %w", err)
	}
	return nil
}

// Claim ставит processing:<key>, только если маркер отсутствует.
func (s *IdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	claimed, err := s.client.SetNX(ctx, processingKeyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return claimed, nil
}

// Unclaim снимает in-flight маркер.
func (s *IdempotencyStore) Unclaim(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, processingKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to unclaim idempotency key: %w", err)
	}
	return nil
}
