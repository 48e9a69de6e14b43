package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/shacharon/pizzasearch/internal/cache"
	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// runner executes one enrichment job's full per-job protocol (§4.9). It is
// the unit a Worker invokes once per dequeued Job; split out from the pool
// machinery so the protocol itself is independently testable.
type runner struct {
	cache     cache.Cache
	lock      Lock
	resolver  Resolver
	publisher Publisher
	retry     []time.Duration
	jobTimeout time.Duration
	searchTimeout time.Duration
	lockTTL   time.Duration
}

// Publisher is the subset of subscribe.Publisher the queue needs, kept as
// an interface so tests don't need a real Subscription Manager wired up.
type Publisher interface {
	PublishProviderPatch(provider, placeID, requestID string, status ProviderStatus, url *string, updatedAt time.Time, meta map[string]any)
}

// ProviderStatus mirrors subscribe.ProviderStatus; redeclared here so
// enrichment has no import-cycle dependency on subscribe, only on the
// narrow Publisher interface above.
type ProviderStatus string

const (
	ProviderFound    ProviderStatus = "FOUND"
	ProviderNotFound ProviderStatus = "NOT_FOUND"
)

// run executes the six-step protocol in §4.9. It never returns an error to
// the caller: every failure path ends in a published NOT_FOUND patch, per
// the safety-guard requirement that subscribers never remain in PENDING.
func (r *runner) run(ctx context.Context, job Job) {
	defer r.recoverToNotFound(job)

	cacheKey := enrichCacheKey(job.Provider, job.PlaceID)
	if raw, ok, err := r.cache.Get(ctx, cacheKey); err == nil && ok {
		var cached cachedEntry
		if json.Unmarshal(raw, &cached) == nil {
			r.publish(job, cached)
			return
		}
	}

	acquired, err := r.lock.Acquire(ctx, job.key(), r.lockTTL)
	if err != nil {
		slog.Warn("enrichment: lock acquire failed, publishing NOT_FOUND", "job", job.key(), "err", err)
		r.publishNotFound(job, time.Now())
		return
	}
	if !acquired {
		// Another worker owns this place; this job contributes nothing further.
		return
	}
	defer func() {
		if err := r.lock.Release(ctx, job.key()); err != nil {
			slog.Warn("enrichment: lock release failed", "job", job.key(), "err", err)
		}
	}()

	if r.resolver == nil {
		slog.Error("enrichment: no resolver configured, publishing NOT_FOUND", "job", job.key(), "err", errResolverNil)
		r.publishNotFound(job, time.Now())
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, r.jobTimeout)
	defer cancel()

	entry := r.resolveWithRetry(jobCtx, job)
	raw, err := json.Marshal(entry)
	if err != nil {
		slog.Error("enrichment: marshal outcome failed", "job", job.key(), "err", err)
		r.publishNotFound(job, entry.UpdatedAt)
		return
	}

	ttl := notFoundTTLDefault
	if entry.Found {
		ttl = foundTTLDefault
	}
	if err := r.cache.Set(ctx, cacheKey, raw, ttl); err != nil {
		slog.Warn("enrichment: cache write failed", "job", job.key(), "err", err)
	}

	r.publish(job, entry)
}

// maxRetries is the "up to two retries" cap in §4.9: three total Resolve
// attempts on a persistent transient failure, regardless of how many
// backoff entries are configured.
const maxRetries = 2

// resolveWithRetry attempts Resolve, retrying up to twice on a transient
// classification with the fixed 1s/2s backoff in §4.9, and on permanent
// failure or context deadline writes a NOT_FOUND outcome.
func (r *runner) resolveWithRetry(ctx context.Context, job Job) cachedEntry {
	retries := len(r.retry)
	if retries > maxRetries {
		retries = maxRetries
	}

	var lastErr error
	attempts := retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return notFoundEntry()
			case <-time.After(r.retry[attempt-1]):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, r.searchTimeout)
		url, meta, err := r.resolver.Resolve(attemptCtx, job.Provider, job.PlaceID, job.Name, job.CityText)
		cancel()

		if err == nil {
			return cachedEntry{Found: true, URL: url, Meta: meta, UpdatedAt: time.Now()}
		}
		lastErr = err
		if !searcherr.IsRetryable(err) {
			break
		}
	}
	if lastErr != nil {
		slog.Debug("enrichment: resolve exhausted retries", "job", job.key(), "err", lastErr)
	}
	return notFoundEntry()
}

func notFoundEntry() cachedEntry {
	return cachedEntry{Found: false, UpdatedAt: time.Now()}
}

func (r *runner) publish(job Job, entry cachedEntry) {
	status := ProviderNotFound
	var url *string
	if entry.Found {
		status = ProviderFound
		u := entry.URL
		url = &u
	}
	r.publisher.PublishProviderPatch(job.Provider, job.PlaceID, job.RequestID, status, url, entry.UpdatedAt, entry.Meta)
}

func (r *runner) publishNotFound(job Job, at time.Time) {
	if at.IsZero() {
		at = time.Now()
	}
	r.publisher.PublishProviderPatch(job.Provider, job.PlaceID, job.RequestID, ProviderNotFound, nil, at, nil)
}

// recoverToNotFound is the panic safety boundary required by §4.9: a job
// that panics must still publish NOT_FOUND rather than leaving subscribers
// in PENDING forever, mirroring the teacher's nil-guard result synthesis in
// queue/worker.go's pollAndProcess.
func (r *runner) recoverToNotFound(job Job) {
	if rec := recover(); rec != nil {
		slog.Error("enrichment: job panicked, publishing NOT_FOUND", "job", job.key(), "panic", rec)
		r.publishNotFound(job, time.Now())
	}
}

var errResolverNil = errors.New("enrichment: resolver not configured")

func enrichCacheKey(provider, placeID string) string {
	return "enrich:" + provider + ":" + placeID
}

const (
	foundTTLDefault    = 7 * 24 * time.Hour
	notFoundTTLDefault = 24 * time.Hour
)
