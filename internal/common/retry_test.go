package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/concierge/internal/service"
)

func fastRetry(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return Transient(errors.New("connection reset"))
			}
			return nil
		}, fastRetry(3))

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent errors stop immediately and keep their cause", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return Permanent(ErrRateLimit)
		}, fastRetry(5))

		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, ErrRateLimit)
		assert.False(t, IsRetryable(err))
	})

	t.Run("exhausted attempts wrap both sentinel and cause", func(t *testing.T) {
		cause := errors.New("upstream 503")
		err := WithRetry(context.Background(), func() error {
			return Transient(cause)
		}, fastRetry(2))

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("context cancellation aborts the wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		opts := fastRetry(3)
		opts.InitialDelay = time.Hour
		opts.MaxDelay = time.Hour

		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			cancel()
			return Transient(errors.New("boom"))
		}, opts)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestUserError(t *testing.T) {
	err := Validationf("requirements is %s", "required")

	assert.ErrorIs(t, err, ErrValidation)

	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "requirements is required", userErr.UserMessage)
}

func TestBackoff(t *testing.T) {
	opts := service.RetryOptions{
		MaxAttempts:  5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   3,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 300 * time.Millisecond},
		{3, 900 * time.Millisecond},
		{4, time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, backoff(opts, tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Transient(errors.New("reset"))))
	assert.False(t, IsRetryable(Permanent(errors.New("bad request"))))
	assert.True(t, IsRetryable(errors.New("untagged")))
	assert.False(t, IsRetryable(nil))
}
