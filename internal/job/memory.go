package job

import (
	"context"
	"sync"
	"time"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// MemoryStore is an in-process Store implementation, modeled on the
// teacher's session.Manager (map guarded by a single RWMutex). Suitable for
// tests and single-node deployments; see store.go for the DEPENDENCY_DOWN
// contract that the Postgres implementation enforces instead.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (s *MemoryStore) Create(_ context.Context, requestID string, params CreateParams) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[requestID]; exists {
		return nil, searcherr.Wrap(searcherr.KindInternal, "job.duplicate_create", searcherr.ErrAlreadyExists)
	}

	now := time.Now()
	j := &Job{
		RequestID:        requestID,
		SessionID:        params.SessionID,
		OwnerUserID:      params.OwnerUserID,
		OwnerSessionID:   params.OwnerSessionID,
		Query:            params.Query,
		TraceID:          params.TraceID,
		DetectedLanguage: params.DetectedLanguage,
		Status:           StatusPending,
		Progress:         0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.jobs[requestID] = j
	return j.Clone(), nil
}

func (s *MemoryStore) SetStatus(_ context.Context, requestID string, status Status, progress *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[requestID]
	if !ok {
		return searcherr.Wrap(searcherr.KindNotFound, "job.not_found", searcherr.ErrNotFound)
	}
	applyStatus(j, status, progress)
	return nil
}

func (s *MemoryStore) SetResult(_ context.Context, requestID string, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[requestID]
	if !ok {
		return searcherr.Wrap(searcherr.KindNotFound, "job.not_found", searcherr.ErrNotFound)
	}
	if j.Status.IsTerminal() {
		return nil // terminal states are absorbing
	}
	j.Result = append([]byte(nil), result...)
	hundred := 100
	applyStatus(j, StatusDoneSuccess, &hundred)
	return nil
}

func (s *MemoryStore) SetError(_ context.Context, requestID string, errInfo ErrorInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[requestID]
	if !ok {
		return searcherr.Wrap(searcherr.KindNotFound, "job.not_found", searcherr.ErrNotFound)
	}
	if j.Status.IsTerminal() {
		return nil
	}
	errCopy := errInfo
	j.Error = &errCopy
	applyStatus(j, StatusDoneFailed, nil)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, requestID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[requestID]
	if !ok {
		return nil, searcherr.Wrap(searcherr.KindNotFound, "job.not_found", searcherr.ErrNotFound)
	}
	return j.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[requestID]; !ok {
		return searcherr.Wrap(searcherr.KindNotFound, "job.not_found", searcherr.ErrNotFound)
	}
	delete(s.jobs, requestID)
	return nil
}

// applyStatus enforces the monotone status/progress invariant shared by
// both store implementations: terminal states absorb further transitions,
// and progress never regresses.
func applyStatus(j *Job, status Status, progress *int) {
	if j.Status.IsTerminal() {
		return
	}
	if status.rank() >= j.Status.rank() {
		j.Status = status
	}
	if progress != nil && *progress > j.Progress {
		j.Progress = *progress
	}
	j.UpdatedAt = time.Now()
}
