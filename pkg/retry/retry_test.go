package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	return cfg
}

func TestDoWithResult_RetrySuccess(t *testing.T) {
	attempts := 0
	_, err := DoWithResult(context.Background(), fastConfig(3), func() (struct{}, error) {
		attempts++
		if attempts < 3 {
			return struct{}{}, errors.New("temporary error")
		}
		return struct{}{}, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoWithResult_Exhausted(t *testing.T) {
	cause := errors.New("persistent error")
	attempts := 0
	_, err := DoWithResult(context.Background(), fastConfig(3), func() (struct{}, error) {
		attempts++
		return struct{}{}, cause
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.True(t, IsExhausted(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "giving up after 3 attempt(s)")

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
}

func TestDoWithResult_NonRetryableErrorIsReturnedUnwrapped(t *testing.T) {
	cfg := fastConfig(5)
	cfg.RetryableErrors = []string{"connection refused"}

	cause := errors.New("invalid credentials")
	attempts := 0
	_, err := DoWithResult(context.Background(), cfg, func() (struct{}, error) {
		attempts++
		return struct{}{}, cause
	})

	assert.Equal(t, 1, attempts)
	assert.Same(t, cause, err)
	assert.False(t, IsExhausted(err))
}

func TestDoWithResult_RetryablePredicateOverridesPatterns(t *testing.T) {
	cfg := fastConfig(4)
	cfg.RetryableErrors = []string{"never matches"}
	cfg.Retryable = func(err error) bool {
		return strings.HasPrefix(err.Error(), "503")
	}

	attempts := 0
	_, err := DoWithResult(context.Background(), cfg, func() (struct{}, error) {
		attempts++
		if attempts == 1 {
			return struct{}{}, errors.New("503 service unavailable")
		}
		return struct{}{}, errors.New("404 not found")
	})

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.False(t, IsExhausted(err))
	assert.Equal(t, "404 not found", err.Error())
}

func TestDoWithResult_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := DefaultConfig()
	cfg.MaxAttempts = 10
	cfg.InitialDelay = 100 * time.Millisecond

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	attempts := 0
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		attempts++
		return struct{}{}, errors.New("temporary error")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, attempts, 10)
}

func TestDoWithResult_ZeroMaxAttempts(t *testing.T) {
	attempts := 0
	_, err := DoWithResult(context.Background(), fastConfig(0), func() (struct{}, error) {
		attempts++
		return struct{}{}, nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxAttempts must be greater than 0")
	assert.Equal(t, 0, attempts)
}

func TestDoWithResult(t *testing.T) {
	t.Run("returns value after retries", func(t *testing.T) {
		attempts := 0
		result, err := DoWithResult(context.Background(), fastConfig(3), func() (int, error) {
			attempts++
			if attempts < 2 {
				return 0, errors.New("temporary error")
			}
			return 42, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 42, result)
	})

	t.Run("zero value on exhaustion", func(t *testing.T) {
		result, err := DoWithResult(context.Background(), fastConfig(2), func() (string, error) {
			return "partial", errors.New("persistent error")
		})

		assert.True(t, IsExhausted(err))
		assert.Equal(t, "", result)
	})
}

func TestCalculateDelay(t *testing.T) {
	cfg := Config{
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	tests := []struct {
		name     string
		attempt  int
		expected time.Duration
	}{
		{name: "first retry", attempt: 0, expected: 1 * time.Second},
		{name: "third retry", attempt: 2, expected: 4 * time.Second},
		{name: "negative attempt", attempt: -1, expected: 1 * time.Second},
		{name: "capped", attempt: 10, expected: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, calculateDelay(tt.attempt, cfg))
		})
	}
}

func TestAddJitter(t *testing.T) {
	delay := 1 * time.Second
	jittered := addJitter(delay)

	assert.GreaterOrEqual(t, jittered, delay-100*time.Millisecond)
	assert.LessOrEqual(t, jittered, delay+100*time.Millisecond)
	assert.Equal(t, time.Duration(0), addJitter(0))
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		retryableErrs []string
		expectedRetry bool
	}{
		{name: "nil error", err: nil, retryableErrs: []string{"connection refused"}, expectedRetry: false},
		{name: "no patterns - all retryable", err: errors.New("any error"), expectedRetry: true},
		{name: "case insensitive match", err: errors.New("CONNECTION REFUSED"), retryableErrs: []string{"connection refused"}, expectedRetry: true},
		{name: "non-matching error", err: errors.New("invalid credentials"), retryableErrs: []string{"connection refused"}, expectedRetry: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{RetryableErrors: tt.retryableErrs}
			assert.Equal(t, tt.expectedRetry, IsRetryableError(tt.err, cfg))
		})
	}
}

func TestPresetConfigs(t *testing.T) {
	pg := PostgresConfig()
	assert.Equal(t, 5, pg.MaxAttempts)
	assert.Contains(t, pg.RetryableErrors, "connection refused")

	httpCfg := HTTPConfig()
	assert.Equal(t, 3, httpCfg.MaxAttempts)
	assert.Nil(t, httpCfg.Retryable)
}
