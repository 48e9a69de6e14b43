package job

import "context"

// Store is the Job Store (C1) contract. Implementations must provide
// single-writer-per-request semantics, idempotent terminal SetStatus calls,
// and non-decreasing progress. A backing store that cannot be reached is a
// fatal DEPENDENCY_DOWN error — never a silent in-memory fallback.
type Store interface {
	Create(ctx context.Context, requestID string, params CreateParams) (*Job, error)
	SetStatus(ctx context.Context, requestID string, status Status, progress *int) error
	SetResult(ctx context.Context, requestID string, result []byte) error
	SetError(ctx context.Context, requestID string, errInfo ErrorInfo) error
	Get(ctx context.Context, requestID string) (*Job, error)
	Delete(ctx context.Context, requestID string) error
}
