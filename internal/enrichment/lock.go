package enrichment

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// Lock is the anti-thrash lock for one (provider, placeId): acquired before
// resolving a deep link so a second worker that enqueues the same place
// while the first is still resolving skips instead of racing it.
type Lock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisLock implements Lock with SET NX PX, grounded on the same
// claim-by-compare-and-set idiom as idempotency.RedisRegistry.
type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey(key), "1", ttl).Result()
	if err != nil {
		return false, searcherr.Wrap(searcherr.KindDependencyDown, "enrichment.lock_acquire", err)
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, lockKey(key)).Err(); err != nil {
		return searcherr.Wrap(searcherr.KindDependencyDown, "enrichment.lock_release", err)
	}
	return nil
}

func lockKey(key string) string { return "enrichlock:" + key }
