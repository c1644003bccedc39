// Package ports - контракты распределённых блокировок и идемпотентности.
//
// Оба порта реализуются поверх одного key/value store (Redis).
// TTL здесь страховка, не механизм корректности: координатор обязан
// завершиться задолго до истечения TTL.
package ports

import (
	"context"
	"time"
)

// LockManager определяет контракт именованных, истекающих, token-owned мьютексов.
//
// Токен уникален для каждого захвата; проверка токена при release не даёт
// снять чужую блокировку после истечения своей.
type LockManager interface {
	// Acquire пытается захватить lock:<name> только если ключ отсутствует.
	// Возвращает непустой token при успехе, "" при контенции.
	Acquire(ctx context.Context, name string, ttl time.Duration) (token string, err error)

	// Release удаляет lock:<name> только если текущее значение равно token.
	// No-op если блокировка уже истекла.
	Release(ctx context.Context, name string, token string) error

	// Extend продлевает TTL только если текущее значение равно token.
	Extend(ctx context.Context, name string, token string, ttl time.Duration) error
}

// IdempotencyRecord - сериализуемая запись результата в кэше идемпотентности.
// Кэш advisory: канонической защитой остаётся unique index на
// transactions.idempotency_key.
type IdempotencyRecord struct {
	Status        string `json:"status"` // COMPLETED | FAILED
	TransactionID string `json:"transactionId,omitempty"`
	FromBalance   string `json:"fromBalance,omitempty"`
	ToBalance     string `json:"toBalance,omitempty"`
	Error         string `json:"error,omitempty"`
	ErrorCode     string `json:"errorCode,omitempty"`
}

// IdempotencyStore определяет контракт кэша запрос -> результат
// плюс короткоживущий in-flight маркер.
type IdempotencyStore interface {
	// Check возвращает сохранённый результат, если он есть.
	// found == false при промахе.
	Check(ctx context.Context, key string) (record IdempotencyRecord, found bool, err error)

	// Store сохраняет запись с заданным TTL
	// (24 h для успеха, 1 h для доменной ошибки).
	Store(ctx context.Context, key string, record IdempotencyRecord, ttl time.Duration) error

	// Claim ставит processing:<key> только если маркер отсутствует.
	// claimed == false, если запрос уже обрабатывается.
	Claim(ctx context.Context, key string, ttl time.Duration) (claimed bool, err error)

	// Unclaim снимает in-flight маркер.
	Unclaim(ctx context.Context, key string) error
}
