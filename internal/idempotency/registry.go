package idempotency

import "context"

// Registry is the C6 contract. A claim is released when the owning job
// reaches a terminal state; until then, Lookup redirects duplicate
// submissions to observe the live requestId instead of starting a new run.
type Registry interface {
	// Claim succeeds (returns true) only if no in-flight claim exists for
	// fingerprint.
	Claim(ctx context.Context, fingerprint, requestID string) (bool, error)
	Lookup(ctx context.Context, fingerprint string) (requestID string, ok bool, err error)
	Release(ctx context.Context, fingerprint string) error
}
