package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

const defaultRequestsPerMinute = 60

// newRequestLimiter allows requestsPerMinute calls per minute with a burst
// of the same size, so an idle gateway can absorb one minute's quota at once.
func newRequestLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = defaultRequestsPerMinute
	}
	every := time.Minute / time.Duration(requestsPerMinute)
	return rate.NewLimiter(rate.Every(every), requestsPerMinute)
}

// waitForSlot blocks until the limiter grants a call or ctx ends.
func waitForSlot(ctx context.Context, limiter *rate.Limiter) error {
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limit slot: %w", err)
	}
	return nil
}
