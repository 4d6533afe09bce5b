// Package retry runs calls to flaky backends with exponential backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Policy configures retry behavior for transient failures.
type Policy struct {
	// MaxRetries is the number of attempts after the first call.
	MaxRetries int

	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64

	// Jitter multiplies each delay by a random factor in [0.5, 1.5).
	Jitter bool

	// OnRetry is invoked before each retry attempt.
	OnRetry func(err error, attempt int, delay time.Duration)
}

// DefaultPolicy is tuned for model APIs that rate-limit bursts.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:        2,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// DelayForAttempt calculates the delay for attempt n (0-indexed).
func (p Policy) DelayForAttempt(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if p.Jitter {
		delay *= 0.5 + rand.Float64()
	}
	return time.Duration(delay)
}

// PermanentError wraps an error that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as not retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsRetryable reports whether err may succeed on a later attempt.
func IsRetryable(err error) bool {
	var perm *PermanentError
	if errors.As(err, &perm) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Do executes fn, retrying transient failures according to policy.
func Do[T any](ctx context.Context, policy Policy, fn func() (T, error)) (T, error) {
	var zero T

	result, err := fn()
	if err == nil {
		return result, nil
	}

	for attempt := 0; attempt < policy.MaxRetries; attempt++ {
		if !IsRetryable(err) {
			return zero, err
		}

		delay := policy.DelayForAttempt(attempt)
		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt, delay)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		result, err = fn()
		if err == nil {
			return result, nil
		}
	}
	return zero, err
}
