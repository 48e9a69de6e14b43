package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// RedisRegistry backs C6 with Redis SET NX EX, the atomic-claim translation
// of the teacher's claimNextSession "SELECT ... FOR UPDATE SKIP LOCKED"
// idiom (queue/worker.go) to a single-key compare-and-set. ttl is a safety
// net against a claim whose Release is dropped (e.g. process crash) — it
// should exceed the maximum job lifetime.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRegistry(client *redis.Client, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{client: client, ttl: ttl}
}

func (r *RedisRegistry) Claim(ctx context.Context, fingerprint, requestID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key(fingerprint), requestID, r.ttl).Result()
	if err != nil {
		return false, searcherr.Wrap(searcherr.KindDependencyDown, "idempotency.redis_claim", err)
	}
	return ok, nil
}

func (r *RedisRegistry) Lookup(ctx context.Context, fingerprint string) (string, bool, error) {
	requestID, err := r.client.Get(ctx, key(fingerprint)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, searcherr.Wrap(searcherr.KindDependencyDown, "idempotency.redis_lookup", err)
	}
	return requestID, true, nil
}

func (r *RedisRegistry) Release(ctx context.Context, fingerprint string) error {
	if err := r.client.Del(ctx, key(fingerprint)).Err(); err != nil {
		return searcherr.Wrap(searcherr.KindDependencyDown, "idempotency.redis_release", err)
	}
	return nil
}

func key(fingerprint string) string {
	return "idempotency:" + fingerprint
}
