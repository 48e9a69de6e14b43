package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// MemoryStore is an in-process Store, modeled on the teacher's
// session.Manager (single mutex-guarded map), with lazy TTL expiry on read
// following the double-checked-locking idiom of the teacher's runbook.Cache.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, userID string) (*Session, error) {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		LastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || s.expired(sess) {
		delete(s.sessions, sessionID)
		return nil, searcherr.Wrap(searcherr.KindNotFound, "session.not_found", searcherr.ErrNotFound)
	}
	sess.LastSeen = s.now() // sliding TTL: a successful read extends expiry
	return sess.Clone(), nil
}

func (s *MemoryStore) Touch(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || s.expired(sess) {
		delete(s.sessions, sessionID)
		return searcherr.Wrap(searcherr.KindNotFound, "session.not_found", searcherr.ErrNotFound)
	}
	sess.LastSeen = s.now()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return searcherr.Wrap(searcherr.KindNotFound, "session.not_found", searcherr.ErrNotFound)
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) expired(sess *Session) bool {
	return s.now().Sub(sess.LastSeen) > s.ttl
}
