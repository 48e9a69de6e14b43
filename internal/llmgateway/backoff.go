package llmgateway

import (
	"math/rand/v2"
	"time"
)

// jitteredBackoff returns a duration in [minDelay, maxDelay), mirroring the
// teacher's pollInterval jitter idiom in queue/worker.go.
func jitteredBackoff(minDelay, maxDelay time.Duration) time.Duration {
	if maxDelay <= minDelay {
		return minDelay
	}
	span := int64(maxDelay - minDelay)
	return minDelay + time.Duration(rand.Int64N(span))
}

// RetryBackoff is the single transient-failure backoff window for gateway
// calls (§4.7): 50-150ms.
func RetryBackoff() time.Duration {
	return jitteredBackoff(50*time.Millisecond, 150*time.Millisecond)
}
