package enrichment

import (
	"context"
	"sync"
	"time"

	"github.com/shacharon/pizzasearch/internal/cache"
)

// Config bundles the queue's tunables, sourced from config.QueueConfig.
type Config struct {
	WorkerPoolSize int
	JobTimeout     time.Duration
	SearchTimeout  time.Duration
	LockTTL        time.Duration
	RetryBackoff   []time.Duration
}

// Queue is the Provider Enrichment Queue (C9): a fixed-size worker pool
// pulling from a buffered channel, generalized from queue.WorkerPool/
// Worker.run()'s poll loop but replacing the Postgres SKIP LOCKED claim
// with a plain channel send/receive since this queue is in-process and
// single-node.
type Queue struct {
	jobs    chan Job
	runner  *runner
	stopCh  chan struct{}
	stopOnce sync.Once
	wg      sync.WaitGroup

	// activeMu/active implement the in-process dedup set directly modeled
	// on WorkerPool.activeSessions: refuse to enqueue a second job for a
	// placeId already queued or in flight.
	activeMu sync.Mutex
	active   map[string]bool
}

// New builds a Queue with the given worker pool size and collaborators.
// capacity controls the buffered channel depth; a full channel means Enqueue
// drops the job rather than blocking the caller (the caller is the
// Orchestrator's hot path).
func New(cfg Config, store cache.Cache, lock Lock, resolver Resolver, publisher Publisher, capacity int) *Queue {
	return &Queue{
		jobs: make(chan Job, capacity),
		runner: &runner{
			cache:         store,
			lock:          lock,
			resolver:      resolver,
			publisher:     publisher,
			retry:         cfg.RetryBackoff,
			jobTimeout:    cfg.JobTimeout,
			searchTimeout: cfg.SearchTimeout,
			lockTTL:       cfg.LockTTL,
		},
		stopCh: make(chan struct{}),
		active: make(map[string]bool),
	}
}

// Start spawns the worker pool.
func (q *Queue) Start(ctx context.Context, workerCount int) {
	for i := 0; i < workerCount; i++ {
		q.wg.Add(1)
		go q.work(ctx)
	}
}

// Stop signals all workers to exit, waiting for in-flight jobs to finish.
// Jobs still buffered in the channel are not processed.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() { close(q.stopCh) })
	q.wg.Wait()
}

// Enqueue submits a job for resolution, skipping it if an equivalent job
// (same provider+placeId) is already queued or in flight (§4.9 in-process
// dedup), and dropping it without blocking if the queue is saturated.
func (q *Queue) Enqueue(job Job) (enqueued bool) {
	key := job.key()

	q.activeMu.Lock()
	if q.active[key] {
		q.activeMu.Unlock()
		return false
	}
	q.active[key] = true
	q.activeMu.Unlock()

	select {
	case q.jobs <- job:
		return true
	default:
		q.activeMu.Lock()
		delete(q.active, key)
		q.activeMu.Unlock()
		return false
	}
}

func (q *Queue) work(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-q.stopCh:
			return
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			q.runner.run(ctx, job)
			q.activeMu.Lock()
			delete(q.active, job.key())
			q.activeMu.Unlock()
		}
	}
}
