package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	op := func(ctx context.Context) (interface{}, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	}

	config := DefaultRetryConfig()
	config.InitialBackoff = time.Millisecond
	config.Jitter = false

	result, err := Retry(context.Background(), config, op)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	op := func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, errors.New("persistent")
	}

	config := DefaultRetryConfig()
	config.InitialBackoff = time.Millisecond
	config.Jitter = false

	_, err := Retry(context.Background(), config, op)
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_DoesNotRetryContextCancellation(t *testing.T) {
	attempts := 0
	op := func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, context.Canceled
	}

	_, err := Retry(context.Background(), DefaultRetryConfig(), op)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_DoesNotRetryOpenCircuit(t *testing.T) {
	attempts := 0
	op := func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, ErrCircuitOpen
	}

	_, err := Retry(context.Background(), DefaultRetryConfig(), op)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 1, attempts)
}

func TestRetry_RespectsRetryableErrorsList(t *testing.T) {
	retryable := errors.New("retryable")
	other := errors.New("other")

	config := DefaultRetryConfig()
	config.InitialBackoff = time.Millisecond
	config.Jitter = false
	config.RetryableErrors = []error{retryable}

	attempts := 0
	_, err := Retry(context.Background(), config, func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, other
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "errors outside the list are not retried")
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{
		Name:             "test-breaker",
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}, nil)

	failing := func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("down")
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := breaker.Execute(ctx, failing)
		require.Error(t, err)
	}

	// Breaker is now open; the operation must not run.
	ran := false
	_, err := breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		ran = true
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, ran)
}

func TestCircuitBreaker_FallbackServesWhenOpen(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{
		Name:             "test-breaker-fallback",
		Timeout:          time.Minute,
		FailureThreshold: 1,
	}, StaticFallback("cached"))

	ctx := context.Background()
	_, _ = breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("down")
	})

	result, err := breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("down")
	})
	require.NoError(t, err)
	assert.Equal(t, "cached", result)
}

func TestSettings_WithDefaults(t *testing.T) {
	filled := Settings{}.withDefaults()
	assert.Equal(t, time.Minute, filled.Interval)
	assert.Equal(t, 30*time.Second, filled.Timeout)
	assert.Equal(t, uint32(5), filled.FailureThreshold)

	custom := Settings{Timeout: 20 * time.Second, FailureThreshold: 3}.withDefaults()
	assert.Equal(t, 20*time.Second, custom.Timeout)
	assert.Equal(t, uint32(3), custom.FailureThreshold)
}

func TestCalculateBackoff_CappedAtMax(t *testing.T) {
	config := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  10,
	}

	assert.Equal(t, 100*time.Millisecond, calculateBackoff(config, 1))
	assert.Equal(t, time.Second, calculateBackoff(config, 2))
	assert.Equal(t, time.Second, calculateBackoff(config, 5))
}
