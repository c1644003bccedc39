// Package redis - LockManager: именованные истекающие мьютексы.
package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Haleralex/coinvault/internal/application/ports"
)

// Compile-time check
var _ ports.LockManager = (*LockManager)(nil)

const lockKeyPrefix = "lock:"

// Release и Extend обязаны проверять владение атомарно,
// иначе процесс с истёкшей блокировкой может снять чужую.
const (
	releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
end
return 0`

	extendScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`
)

// LockManager реализует ports.LockManager через SET NX PX.
//
// Token уникален для каждого захвата: "unix_nano-random".
// TTL - страховка от упавшего держателя, не механизм корректности.
type LockManager struct {
	client cmdable
}

// NewLockManager создаёт LockManager.
func NewLockManager(client cmdable) *LockManager {
	return &LockManager{client: client}
}

// Acquire пытается захватить lock:<name>.
// Возвращает token при успехе, "" при контенции.
func (m *LockManager) Acquire(ctx context.Context, name string, ttl time.Duration) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate lock token: %w", err)
	}

	ok, err := m.client.SetNX(ctx, lockKeyPrefix+name, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// Release снимает блокировку, только если token совпадает.
// No-op если блокировка уже истекла или принадлежит другому.
func (m *LockManager) Release(ctx context.Context, name, token string) error {
	err := m.client.Eval(ctx, releaseScript, []string{lockKeyPrefix + name}, token).Err()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	return nil
}

// Extend продлевает TTL, только если token совпадает.
func (m *LockManager) Extend(ctx context.Context, name, token string, ttl time.Duration) error {
	err := m.client.Eval(ctx, extendScript, []string{lockKeyPrefix + name}, token, ttl.Milliseconds()).Err()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to extend lock %s: %w", name, err)
	}
	return nil
}

// newToken генерирует уникальный owner token.
func newToken() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(buf)), nil
}
