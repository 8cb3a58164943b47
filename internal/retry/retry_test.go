package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	var retried []int

	policy := Policy{
		MaxAttempts: 3,
		Delay:       time.Millisecond,
		OnRetry:     func(attempt int, err error) { retried = append(retried, attempt) },
	}

	got, err := Do(context.Background(), policy, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_GivesUp(t *testing.T) {
	calls := 0
	retries := 0
	policy := Fixed(3, time.Millisecond)
	policy.OnRetry = func(int, error) { retries++ }

	_, err := Do(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, errTransient
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries, "no retry notice after the last attempt")
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
}

func TestDo_BackoffWaitsBetweenAttempts(t *testing.T) {
	policy := Policy{MaxAttempts: 3, Delay: 10 * time.Millisecond, BackoffFactor: 2}
	calls := 0

	start := time.Now()
	_, err := Do(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, errTransient
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestDo_AttemptOnceReturnsErrorUnwrapped(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Once, func(ctx context.Context) (int, error) {
		calls++
		return 0, errTransient
	})

	assert.Equal(t, errTransient, err)
	assert.Equal(t, 1, calls)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	policy := Policy{
		MaxAttempts: 5,
		Delay:       time.Millisecond,
		Retryable:   func(err error) bool { return errors.Is(err, errTransient) },
	}

	err := Run(context.Background(), policy, func(ctx context.Context) error {
		calls++
		return fatal
	})

	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{
		MaxAttempts: 3,
		Delay:       time.Hour,
		OnRetry:     func(int, error) { cancel() },
	}

	_, err := Do(ctx, policy, func(ctx context.Context) (int, error) {
		return 0, errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicy_DelayFor(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{"fixed first", Fixed(3, 5*time.Second), 1, 5 * time.Second},
		{"fixed second", Fixed(3, 5*time.Second), 2, 5 * time.Second},
		{"backoff second", Policy{Delay: time.Second, BackoffFactor: 2}, 2, 2 * time.Second},
		{"backoff third", Policy{Delay: time.Second, BackoffFactor: 2}, 3, 4 * time.Second},
		{"backoff capped", Policy{Delay: time.Second, BackoffFactor: 10, MaxDelay: 5 * time.Second}, 3, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.delayFor(tt.attempt))
		})
	}
}
