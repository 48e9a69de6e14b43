// Package redistest provides an in-memory double of the subset of Redis
// operations this module exercises (GET/SET with TTL, SET NX, DEL), for use
// in integration-style tests in place of a Redis testcontainers module —
// which is not present anywhere in the retrieved example pack.
package redistest

import (
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
	hasTTL    bool
}

// FakeRedis is a minimal, single-process stand-in for the go-redis/v9
// operations used by internal/cache, internal/idempotency, and
// internal/enrichment: Get, Set (with TTL), SetNX (with TTL), and Del.
type FakeRedis struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func New() *FakeRedis {
	return &FakeRedis{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// ErrNil mirrors redis.Nil so callers can use the same errors.Is branch as
// against a real client.
var ErrNil = fakeNilError{}

type fakeNilError struct{}

func (fakeNilError) Error() string { return "redis: nil" }

func (f *FakeRedis) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[key]
	if !ok || f.expired(e) {
		delete(f.entries, key)
		return "", ErrNil
	}
	return e.value, nil
}

func (f *FakeRedis) Set(key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.hasTTL = true
		e.expiresAt = f.now().Add(ttl)
	}
	f.entries[key] = e
	return nil
}

// SetNX sets key only if absent (or expired), returning true iff the set
// happened — the atomic-claim primitive used for idempotency claims and
// enrichment anti-thrash locks.
func (f *FakeRedis) SetNX(key, value string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if e, ok := f.entries[key]; ok && !f.expired(e) {
		return false, nil
	}
	e := entry{value: value}
	if ttl > 0 {
		e.hasTTL = true
		e.expiresAt = f.now().Add(ttl)
	}
	f.entries[key] = e
	return true, nil
}

func (f *FakeRedis) Del(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

func (f *FakeRedis) expired(e entry) bool {
	return e.hasTTL && f.now().After(e.expiresAt)
}
