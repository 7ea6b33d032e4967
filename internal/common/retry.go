package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/concierge/internal/service"
)

var (
	// ErrRateLimit indicates that the upstream API rate limit has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError tags an upstream failure as worth another attempt or not.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return &RetryableError{Err: err, Retryable: false}
}

// Transient marks err as retryable.
func Transient(err error) error {
	return &RetryableError{Err: err, Retryable: true}
}

// IsRetryable reports whether err should be attempted again.
// Untagged errors are retried.
func IsRetryable(err error) bool {
	var tagged *RetryableError
	if errors.As(err, &tagged) {
		return tagged.Retryable
	}
	return err != nil
}

var defaultRetryOptions = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     30 * time.Second,
	Multiplier:   2.0,
}

func withRetryDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultRetryOptions.MaxAttempts
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = defaultRetryOptions.InitialDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = defaultRetryOptions.MaxDelay
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = defaultRetryOptions.Multiplier
	}
	return opts
}

// backoff returns the wait before attempt n+1, capped at opts.MaxDelay.
func backoff(opts service.RetryOptions, n int) time.Duration {
	d := float64(opts.InitialDelay)
	for i := 1; i < n; i++ {
		d *= opts.Multiplier
		if d >= float64(opts.MaxDelay) {
			return opts.MaxDelay
		}
	}
	return time.Duration(d)
}

// WithRetry runs operation until it succeeds, returns a Permanent error,
// or runs out of attempts. The final error wraps both ErrMaxRetries and the
// last cause.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	opts = withRetryDefaults(opts)

	var err error
	for attempt := 1; ; attempt++ {
		if err = operation(); err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempt, err)
		}

		wait := backoff(opts, attempt)
		slog.Warn("upstream call failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"wait", wait,
			"error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
