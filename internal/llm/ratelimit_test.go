package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLimiter(t *testing.T) {
	t.Run("burst equals the per-minute quota", func(t *testing.T) {
		limiter := newRequestLimiter(10)
		for i := 0; i < 10; i++ {
			assert.True(t, limiter.Allow(), "call %d", i+1)
		}
		assert.False(t, limiter.Allow())
	})

	t.Run("non-positive rate falls back to default", func(t *testing.T) {
		limiter := newRequestLimiter(0)
		assert.Equal(t, defaultRequestsPerMinute, limiter.Burst())
	})

	t.Run("wait honors context cancellation", func(t *testing.T) {
		limiter := newRequestLimiter(1)
		require.NoError(t, waitForSlot(context.Background(), limiter))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := waitForSlot(ctx, limiter)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "waiting for rate limit slot")
	})
}
