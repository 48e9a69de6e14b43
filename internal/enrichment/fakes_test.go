package enrichment

import (
	"context"
	"sync"
	"time"
)

type fakeLock struct {
	mu      sync.Mutex
	held    map[string]bool
	acquireErr error
}

func newFakeLock() *fakeLock { return &fakeLock{held: make(map[string]bool)} }

func (l *fakeLock) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type resolveCall struct {
	provider, placeID string
}

type fakeResolver struct {
	mu      sync.Mutex
	calls   []resolveCall
	results []resolveResult
}

type resolveResult struct {
	url  string
	meta map[string]any
	err  error
}

func (r *fakeResolver) queue(res resolveResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *fakeResolver) Resolve(_ context.Context, provider, placeID, _, _ string) (string, map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, resolveCall{provider, placeID})
	if len(r.results) == 0 {
		return "", nil, nil
	}
	next := r.results[0]
	r.results = r.results[1:]
	return next.url, next.meta, next.err
}

type publishedPatch struct {
	provider, placeID, requestID string
	status                       ProviderStatus
	url                          *string
}

type fakePublisher struct {
	mu      sync.Mutex
	patches []publishedPatch
}

func (p *fakePublisher) PublishProviderPatch(provider, placeID, requestID string, status ProviderStatus, url *string, _ time.Time, _ map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.patches = append(p.patches, publishedPatch{provider, placeID, requestID, status, url})
}

func (p *fakePublisher) snapshot() []publishedPatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedPatch(nil), p.patches...)
}
