package idempotency

import (
	"context"
	"sync"
)

// MemoryRegistry is a mutex-guarded in-process Registry, backing
// single-process tests and dev deployments without Redis.
type MemoryRegistry struct {
	mu     sync.Mutex
	claims map[string]string // fingerprint -> requestID
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{claims: make(map[string]string)}
}

func (r *MemoryRegistry) Claim(_ context.Context, fingerprint, requestID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.claims[fingerprint]; exists {
		return false, nil
	}
	r.claims[fingerprint] = requestID
	return true, nil
}

func (r *MemoryRegistry) Lookup(_ context.Context, fingerprint string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	requestID, ok := r.claims[fingerprint]
	return requestID, ok, nil
}

func (r *MemoryRegistry) Release(_ context.Context, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.claims, fingerprint)
	return nil
}
