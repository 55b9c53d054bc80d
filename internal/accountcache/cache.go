// Package accountcache provides Redis-backed caching for account records.
package accountcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/ticketforge/foreman-bot/internal/domain"
)

// KV is the key-value surface the cache needs. Both the plain and the
// instrumented Redis wrappers satisfy it.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cache stores rendered account records with a short TTL so profile lookups
// do not hit the ledger on every command.
type Cache struct {
	kv KV
}

// NewCache constructs an account cache backed by the provided store.
func NewCache(kv KV) *Cache {
	return &Cache{kv: kv}
}

// Get fetches a cached account record if it exists.
func (c *Cache) Get(ctx context.Context, userID string) (*domain.Account, error) {
	if c == nil || c.kv == nil {
		return nil, nil
	}

	data, err := c.kv.Get(ctx, cacheKey(userID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached account: %w", err)
	}

	var account domain.Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("decode cached account: %w", err)
	}

	return &account, nil
}

// Set stores the account record in cache for the provided TTL.
func (c *Cache) Set(ctx context.Context, account *domain.Account, ttl time.Duration) error {
	if c == nil || c.kv == nil || account == nil {
		return nil
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}

	if err := c.kv.Set(ctx, cacheKey(account.UserID), data, ttl); err != nil {
		return fmt.Errorf("set cached account: %w", err)
	}

	return nil
}

// Invalidate removes the cached record after a ledger mutation.
func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	if c == nil || c.kv == nil {
		return nil
	}

	if err := c.kv.Delete(ctx, cacheKey(userID)); err != nil {
		return fmt.Errorf("invalidate cached account: %w", err)
	}

	return nil
}

func cacheKey(userID string) string {
	return "account:cache:" + userID
}
