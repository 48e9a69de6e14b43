// Package session implements the Session Store (C2): opaque session ids
// with sliding TTL, issued and validated on every client contact.
package session

import (
	"context"
	"time"
)

// Session is the persisted record for one client session.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	LastSeen  time.Time
}

// Clone returns a copy safe to hand outside the store's internal lock,
// mirroring the teacher's Session.Clone() idiom.
func (s *Session) Clone() *Session {
	cp := *s
	return &cp
}

// Store is the Session Store (C2) contract. TTL is sliding: Create, Get
// (when found), and Touch all extend expiry by the configured duration.
type Store interface {
	Create(ctx context.Context, userID string) (*Session, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Touch(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
}
