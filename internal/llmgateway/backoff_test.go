package llmgateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryBackoff_WithinBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := RetryBackoff()
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.Less(t, d, 150*time.Millisecond)
	}
}
