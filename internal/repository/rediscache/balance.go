// Package rediscache provides a non-authoritative Redis read cache for
// account balances. The database remains the source of truth: the ledger
// service invalidates the cached value after every successful balance
// mutation and falls back to the store on any cache error.
package rediscache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when no balance is cached for the user.
var ErrCacheMiss = errors.New("balance not cached")

type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl}
}

func balanceKey(userID string) string {
	return "balance:" + userID
}

func (c *BalanceCache) GetBalance(ctx context.Context, userID string) (int64, error) {
	val, err := c.client.Get(ctx, balanceKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (c *BalanceCache) SetBalance(ctx context.Context, userID string, balance int64) error {
	return c.client.Set(ctx, balanceKey(userID), strconv.FormatInt(balance, 10), c.ttl).Err()
}

func (c *BalanceCache) InvalidateBalance(ctx context.Context, userID string) error {
	return c.client.Del(ctx, balanceKey(userID)).Err()
}
