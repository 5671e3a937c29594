// Package cache provides a Redis cache-aside decorator for the account store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/bank-account-service/internal/domain/account"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bank_account:"

// Client is the subset of the Redis client used by the cache
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ Client = (*redis.Client)(nil)

// AccountRepository caches lookups by account ID in front of another repository.
// Any write through it evicts the affected key. Cache failures are logged and
// never fail the call; the wrapped repository stays the source of truth.
type AccountRepository struct {
	next   account.Repository
	client Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewAccountRepository(logger *slog.Logger, next account.Repository, client Client, ttl time.Duration) *AccountRepository {
	return &AccountRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(accountID string) string {
	return keyPrefix + accountID
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*account.Account, error) {
	return r.next.FindByID(ctx, id)
}

func (r *AccountRepository) FindByAccountID(ctx context.Context, accountID string) (*account.Account, error) {
	key := cacheKey(accountID)

	cached, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var acc account.Account
		jsonErr := json.Unmarshal([]byte(cached), &acc)
		if jsonErr == nil {
			return &acc, nil
		}
		r.logger.Warn("Discarding unreadable cached account", "key", key, "error", jsonErr)
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("Account cache read failed", "key", key, "error", err)
	}

	acc, err := r.next.FindByAccountID(ctx, accountID)
	if err != nil || acc == nil {
		return acc, err
	}

	data, err := json.Marshal(acc)
	if err != nil {
		r.logger.Warn("Failed to encode account for cache", "key", key, "error", err)
		return acc, nil
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("Account cache write failed", "key", key, "error", err)
	}
	return acc, nil
}

// Save evicts the key whatever the outcome, so a stale entry cannot keep
// feeding outdated versions into later saves.
func (r *AccountRepository) Save(ctx context.Context, acc *account.Account) (*account.Account, error) {
	saved, err := r.next.Save(ctx, acc)
	r.evict(ctx, acc.AccountID)
	return saved, err
}

func (r *AccountRepository) DeleteByAccountID(ctx context.Context, accountID string) error {
	if err := r.next.DeleteByAccountID(ctx, accountID); err != nil {
		return err
	}
	r.evict(ctx, accountID)
	return nil
}

func (r *AccountRepository) DeleteByID(ctx context.Context, id int64) error {
	acc, err := r.next.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.next.DeleteByID(ctx, id); err != nil {
		return err
	}
	if acc != nil {
		r.evict(ctx, acc.AccountID)
	}
	return nil
}

func (r *AccountRepository) evict(ctx context.Context, accountID string) {
	if accountID == "" {
		return
	}
	if err := r.client.Del(ctx, cacheKey(accountID)).Err(); err != nil {
		r.logger.Warn("Account cache eviction failed", "key", cacheKey(accountID), "error", err)
	}
}

var _ account.Repository = (*AccountRepository)(nil)
