// Package redis - BalanceCache: read-through кэш балансов.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.BalanceCache = (*BalanceCache)(nil)

const balanceKeyPrefix = "balance:"

// BalanceCache реализует ports.BalanceCache.
// Не участвует в ядре: исполнитель инвалидирует ключи после коммита,
// короткий TTL страхует пропущенную инвалидацию.
type BalanceCache struct {
	client cmdable
}

// NewBalanceCache создаёт BalanceCache.
func NewBalanceCache(client cmdable) *BalanceCache {
	return &BalanceCache{client: client}
}

// Get возвращает кэшированный баланс кошелька.
func (c *BalanceCache) Get(ctx context.Context, walletID uuid.UUID) (valueobjects.Amount, bool, error) {
	data, err := c.client.Get(ctx, balanceKeyPrefix+walletID.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return valueobjects.Amount{}, false, nil
		}
		return valueobjects.Amount{}, false, fmt.Errorf("failed to get cached balance: %w", err)
	}

	amount, err := valueobjects.ParseAmount(data)
	if err != nil {
		// Мусор в кэше - промах
		return valueobjects.Amount{}, false, nil
	}
	return amount, true, nil
}

// Set кэширует баланс кошелька.
func (c *BalanceCache) Set(ctx context.Context, walletID uuid.UUID, balance valueobjects.Amount, ttl time.Duration) error {
	if err := c.client.Set(ctx, balanceKeyPrefix+walletID.String(), balance.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache balance: %w", err)
	}
	return nil
}

// Invalidate сбрасывает кэшированный баланс.
func (c *BalanceCache) Invalidate(ctx context.Context, walletID uuid.UUID) error {
	if err := c.client.Del(ctx, balanceKeyPrefix+walletID.String()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate balance: %w", err)
	}
	return nil
}
