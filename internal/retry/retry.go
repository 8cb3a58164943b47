// Package retry runs idempotent operations under an explicit attempt policy.
//
// # Usage
//
//	policy := retry.Policy{MaxAttempts: 3, Delay: 5 * time.Second}
//	url, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
//		return client.Lookup(ctx, isbn)
//	})
package retry

import (
	"context"
	"fmt"
	"time"

	retrygo "github.com/avast/retry-go/v4"
)

// Policy describes how often and how patiently an operation is repeated.
type Policy struct {
	// MaxAttempts is the total number of attempts. Values below 1 mean one attempt.
	MaxAttempts int

	// Delay is the wait before the second attempt.
	Delay time.Duration

	// BackoffFactor multiplies the delay after each failed attempt.
	// Zero or one keeps the delay fixed.
	BackoffFactor float64

	// MaxDelay caps the delay when BackoffFactor grows it. Zero means no cap.
	MaxDelay time.Duration

	// Retryable decides whether an error is worth another attempt.
	// Nil retries every error.
	Retryable func(error) bool

	// OnRetry is called before each wait with the failed attempt number (1-based).
	OnRetry func(attempt int, err error)
}

// Once is the attempt-once policy.
var Once = Policy{MaxAttempts: 1}

// Fixed returns a policy with a constant delay between attempts.
func Fixed(attempts int, delay time.Duration) Policy {
	return Policy{MaxAttempts: attempts, Delay: delay}
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// delayFor returns the wait before retry number attempt (1-based).
func (p Policy) delayFor(attempt int) time.Duration {
	delay := p.Delay
	if p.BackoffFactor > 1 {
		for i := 1; i < attempt; i++ {
			delay = time.Duration(float64(delay) * p.BackoffFactor)
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				return p.MaxDelay
			}
		}
	}
	return delay
}

// Do runs op until it succeeds, the policy is exhausted, the error is not
// retryable, or ctx is done.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.attempts()
	calls := 0

	result, err := retrygo.DoWithData(
		func() (T, error) {
			calls++
			return op(ctx)
		},
		retrygo.Context(ctx),
		retrygo.Attempts(uint(attempts)),
		retrygo.DelayType(func(n uint, _ error, _ *retrygo.Config) time.Duration {
			return p.delayFor(int(n))
		}),
		retrygo.RetryIf(func(err error) bool {
			if ctx.Err() != nil {
				return false
			}
			return p.Retryable == nil || p.Retryable(err)
		}),
		retrygo.OnRetry(func(n uint, err error) {
			if p.OnRetry != nil && int(n)+1 < attempts {
				p.OnRetry(int(n)+1, err)
			}
		}),
		retrygo.LastErrorOnly(true),
	)
	if err == nil {
		return result, nil
	}

	var zero T
	if ctx.Err() != nil || attempts == 1 || calls < attempts {
		return zero, err
	}
	return zero, fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
