// Package cache implements the Cache (C3) abstraction: an opaque TTL
// key-value store used by the Pipeline for fingerprint results and by the
// Provider Enrichment Queue for resolved deep links.
package cache

import (
	"context"
	"time"
)

// Cache is the C3 contract. Values are opaque — callers JSON-encode
// whatever they need before Set and decode after Get.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
