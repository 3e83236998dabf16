package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pourcost/topshelf/internal/service"
)

func fastOpts() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, fastOpts())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return errors.New("persistent")
	}, fastOpts())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return &RetryableError{Err: errors.New("bad request"), Retryable: false}
	}, fastOpts())

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error {
		return errors.New("transient")
	}, fastOpts())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: false}))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestWithRetryHonorsRetryAfterHint(t *testing.T) {
	opts := fastOpts()
	opts.MaxDelay = 100 * time.Millisecond

	calls := 0
	start := time.Now()
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls == 1 {
			return &RetryableError{
				Err:        errors.New("throttled"),
				Retryable:  true,
				RetryAfter: 30 * time.Millisecond,
			}
		}
		return nil
	}, opts)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	// The upstream hint overrides the 1ms backoff schedule.
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestWithRetryCapsHintAtMaxDelay(t *testing.T) {
	opts := fastOpts()
	opts.MaxDelay = 5 * time.Millisecond
	opts.MaxAttempts = 2

	calls := 0
	start := time.Now()
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls == 1 {
			return &RetryableError{
				Err:        errors.New("throttled"),
				Retryable:  true,
				RetryAfter: time.Hour,
			}
		}
		return nil
	}, opts)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
