package job_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shacharon/pizzasearch/internal/job"
)

func TestMemoryStoreCreateAndGet(t *testing.T) {
	s := job.NewMemoryStore()
	ctx := context.Background()

	created, err := s.Create(ctx, "req-1", job.CreateParams{SessionID: "sess", OwnerSessionID: "sess", Query: "pizza"})
	require.NoError(t, err)
	assert.Equal(t, job.StatusPending, created.Status)

	got, err := s.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "pizza", got.Query)
}

func TestMemoryStoreProgressNonDecreasing(t *testing.T) {
	s := job.NewMemoryStore()
	ctx := context.Background()
	_, err := s.Create(ctx, "req-1", job.CreateParams{OwnerSessionID: "sess"})
	require.NoError(t, err)

	p50, p10 := 50, 10
	require.NoError(t, s.SetStatus(ctx, "req-1", job.StatusRunning, &p50))
	require.NoError(t, s.SetStatus(ctx, "req-1", job.StatusRunning, &p10))

	got, err := s.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Progress)
}

func TestMemoryStoreTerminalIsAbsorbing(t *testing.T) {
	s := job.NewMemoryStore()
	ctx := context.Background()
	_, err := s.Create(ctx, "req-1", job.CreateParams{OwnerSessionID: "sess"})
	require.NoError(t, err)

	require.NoError(t, s.SetError(ctx, "req-1", job.ErrorInfo{Code: "boom", Kind: "INTERNAL"}))
	require.NoError(t, s.SetStatus(ctx, "req-1", job.StatusRunning, nil))

	got, err := s.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, job.StatusDoneFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, "boom", got.Error.Code)
}

func TestMemoryStoreResultForcesDoneSuccess(t *testing.T) {
	s := job.NewMemoryStore()
	ctx := context.Background()
	_, err := s.Create(ctx, "req-1", job.CreateParams{OwnerSessionID: "sess"})
	require.NoError(t, err)

	require.NoError(t, s.SetResult(ctx, "req-1", []byte(`{"a":1}`)))

	got, err := s.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, job.StatusDoneSuccess, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.JSONEq(t, `{"a":1}`, string(got.Result))
}

func TestMemoryStoreConcurrentWrites(t *testing.T) {
	s := job.NewMemoryStore()
	ctx := context.Background()
	_, err := s.Create(ctx, "req-1", job.CreateParams{OwnerSessionID: "sess"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		p := i
		go func() {
			defer wg.Done()
			_ = s.SetStatus(ctx, "req-1", job.StatusRunning, &p)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, 49, got.Progress)
}

func TestJobOwnedBy(t *testing.T) {
	j := &job.Job{OwnerSessionID: "sess-a", OwnerUserID: "user-1"}
	assert.True(t, j.OwnedBy("user-1", "sess-a"))
	assert.False(t, j.OwnedBy("user-2", "sess-a"))
	assert.False(t, j.OwnedBy("user-1", "sess-b"))

	anon := &job.Job{OwnerSessionID: "sess-a"}
	assert.True(t, anon.OwnedBy("", "sess-a"))
	assert.True(t, anon.OwnedBy("anything", "sess-a"))
}
