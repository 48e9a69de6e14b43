package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// RedisCache is the cache-aside Redis implementation (C13), grounded on the
// pack's ItemCache (Tim275-oms/stock/cache.go) — same Get/Set-with-native-TTL
// shape, adapted to the opaque []byte contract of C3.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, searcherr.Wrap(searcherr.KindDependencyDown, "cache.redis_get", err)
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return searcherr.Wrap(searcherr.KindDependencyDown, "cache.redis_set", err)
	}
	return nil
}
