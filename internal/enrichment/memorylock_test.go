package enrichment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLock_AcquireThenBlocks(t *testing.T) {
	l := NewMemoryLock()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "wolt:p1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Acquire(ctx, "wolt:p1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLock_ExpiresByTTL(t *testing.T) {
	l := NewMemoryLock()
	fakeNow := time.Now()
	l.now = func() time.Time { return fakeNow }
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "wolt:p1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	fakeNow = fakeNow.Add(2 * time.Second)
	ok, err = l.Acquire(ctx, "wolt:p1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock should be re-acquirable")
}

func TestMemoryLock_ReleaseAllowsReacquire(t *testing.T) {
	l := NewMemoryLock()
	ctx := context.Background()

	_, err := l.Acquire(ctx, "wolt:p1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, l.Release(ctx, "wolt:p1"))

	ok, err := l.Acquire(ctx, "wolt:p1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
