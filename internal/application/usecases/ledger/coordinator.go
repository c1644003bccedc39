// Package ledger - ядро системы: ordered locks, двойная запись,
// идемпотентный исполнитель транзакций.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/google/uuid"
)

// Defaults координатора. Lock TTL - страховка от упавшего процесса,
// не механизм корректности: операция обязана завершиться сильно раньше.
const (
	DefaultLockTTL     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultBaseBackoff = 100 * time.Millisecond
)

// LockCoordinator захватывает распределённые блокировки кошельков
// в каноническом порядке.
//
// Deadlock prevention:
// - Ключи сортируются bytewise (lowercase canonical UUID)
// - Все процессы захватывают в одном и том же порядке
// - При неудаче захвата (контеншн или сбой хранилища блокировок)
//   ВСЕ уже взятые блокировки освобождаются, затем retry
//   с exponential backoff (100/200/400ms)
type LockCoordinator struct {
	locks       ports.LockManager
	lockTTL     time.Duration
	maxRetries  int
	baseBackoff time.Duration
}

// NewLockCoordinator создаёт координатор с дефолтными retry-параметрами.
func NewLockCoordinator(locks ports.LockManager, lockTTL time.Duration) *LockCoordinator {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &LockCoordinator{
		locks:       locks,
		lockTTL:     lockTTL,
		maxRetries:  DefaultMaxRetries,
		baseBackoff: DefaultBaseBackoff,
	}
}

// heldLock - одна захваченная блокировка с её owner token.
type heldLock struct {
	key   string
	token string
}

// WithLocks выполняет fn, удерживая блокировки всех walletIDs.
//
// Гарантии:
// - Блокировки захвачены строго в отсортированном порядке ключей
// - fn вызывается только когда захвачены ВСЕ блокировки
// - Освобождение в обратном порядке, в том числе при панике fn
// - После maxRetries неудачных попыток: ErrLockUnavailable
func (c *LockCoordinator) WithLocks(ctx context.Context, walletIDs []uuid.UUID, fn func(ctx context.Context) error) error {
	keys := canonicalLockKeys(walletIDs)
	if len(keys) == 0 {
		return fn(ctx)
	}

	held, err := c.acquireAll(ctx, keys)
	if err != nil {
		return err
	}

	defer c.releaseAll(ctx, held)

	return fn(ctx)
}

// acquireAll пытается захватить все ключи по порядку, с retry.
//
// Сбой хранилища блокировок (сеть, Redis недоступен) трактуется как
// контеншн: retry в пределах бюджета, после исчерпания наружу уходит
// ErrLockUnavailable с обёрнутой причиной.
func (c *LockCoordinator) acquireAll(ctx context.Context, keys []string) ([]heldLock, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		held, ok, err := c.tryAcquireAll(ctx, keys)
		if ok {
			return held, nil
		}
		if err != nil {
			lastErr = err
		}

		if attempt >= c.maxRetries {
			if lastErr != nil {
				return nil, fmt.Errorf("%w: could not acquire %d wallet locks after %d attempts: %w",
					errors.ErrLockUnavailable, len(keys), attempt+1, lastErr)
			}
			return nil, fmt.Errorf("%w: could not acquire %d wallet locks after %d attempts",
				errors.ErrLockUnavailable, len(keys), attempt+1)
		}

		// Exponential backoff: 100ms, 200ms, 400ms
		backoff := c.baseBackoff << attempt
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAcquireAll - одна попытка захвата всех ключей.
// При первом же отказе или сбое освобождает уже взятые
// и возвращает ok == false.
func (c *LockCoordinator) tryAcquireAll(ctx context.Context, keys []string) ([]heldLock, bool, error) {
	held := make([]heldLock, 0, len(keys))

	for _, key := range keys {
		token, err := c.locks.Acquire(ctx, key, c.lockTTL)
		if err != nil {
			c.releaseAll(ctx, held)
			return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if token == "" {
			// Контеншн: освобождаем всё взятое перед retry,
			// иначе два процесса могут держать по половине набора.
			c.releaseAll(ctx, held)
			return nil, false, nil
		}
		held = append(held, heldLock{key: key, token: token})
	}

	return held, true, nil
}

// releaseAll освобождает блокировки в обратном порядке захвата.
// Ошибки release игнорируются: TTL доберёт осиротевшие ключи.
func (c *LockCoordinator) releaseAll(ctx context.Context, held []heldLock) {
	for i := len(held) - 1; i >= 0; i-- {
		_ = c.locks.Release(ctx, held[i].key, held[i].token)
	}
}

// walletLockKey - имя блокировки кошелька. Вместе с префиксом хранилища
// даёт ключ вида lock:wallet:<uuid>.
func walletLockKey(id uuid.UUID) string {
	return "wallet:" + id.String()
}

// canonicalLockKeys переводит wallet IDs в отсортированный список
// уникальных lock-ключей. Общий префикс не влияет на порядок:
// сортировка остаётся bytewise по lowercase canonical UUID.
func canonicalLockKeys(walletIDs []uuid.UUID) []string {
	seen := make(map[string]struct{}, len(walletIDs))
	keys := make([]string, 0, len(walletIDs))
	for _, id := range walletIDs {
		key := walletLockKey(id)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
