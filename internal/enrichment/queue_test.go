package enrichment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shacharon/pizzasearch/internal/cache"
)

func testConfig() Config {
	return Config{
		WorkerPoolSize: 2,
		JobTimeout:     time.Second,
		SearchTimeout:  time.Second,
		LockTTL:        time.Second,
		RetryBackoff:   []time.Duration{time.Millisecond},
	}
}

func TestQueue_DuplicatePlaceIsSkippedWhileFirstIsQueued(t *testing.T) {
	resolver := &fakeResolver{}
	resolver.queue(resolveResult{url: "https://example.com/p1"})
	pub := &fakePublisher{}
	q := New(testConfig(), cache.NewMemoryCache(), newFakeLock(), resolver, pub, 10)

	job := Job{RequestID: "req1", Provider: "yelp", PlaceID: "p1"}
	assert.True(t, q.Enqueue(job))
	assert.False(t, q.Enqueue(job), "a second enqueue for the same (provider, placeId) while the first is still queued must be refused")
}

func TestQueue_ProcessesEnqueuedJobAndPublishesOnce(t *testing.T) {
	resolver := &fakeResolver{}
	resolver.queue(resolveResult{url: "https://example.com/p1"})
	pub := &fakePublisher{}
	q := New(testConfig(), cache.NewMemoryCache(), newFakeLock(), resolver, pub, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx, 2)
	defer q.Stop()

	require.True(t, q.Enqueue(Job{RequestID: "req1", Provider: "yelp", PlaceID: "p1"}))

	require.Eventually(t, func() bool {
		return len(pub.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestQueue_DedupSlotIsFreedAfterJobCompletes(t *testing.T) {
	resolver := &fakeResolver{}
	resolver.queue(resolveResult{url: "https://example.com/p1"})
	resolver.queue(resolveResult{url: "https://example.com/p1-second"})
	pub := &fakePublisher{}
	q := New(testConfig(), cache.NewMemoryCache(), newFakeLock(), resolver, pub, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx, 1)
	defer q.Stop()

	job := Job{RequestID: "req1", Provider: "yelp", PlaceID: "p1"}
	require.True(t, q.Enqueue(job))
	require.Eventually(t, func() bool {
		return len(pub.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.True(t, q.Enqueue(job), "dedup slot must be released once the job has finished processing")
}
