package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(retries int) Policy {
	return Policy{MaxRetries: retries, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffMultiplier: 2}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	var retried []int
	p := fastPolicy(3)
	p.OnRetry = func(_ error, attempt int, _ time.Duration) { retried = append(retried, attempt) }

	out, err := Do(context.Background(), p, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{0, 1}, retried)
}

func TestDo_GivesUp(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(2), func() (int, error) {
		calls++
		return 0, errors.New("still failing")
	})
	require.EqualError(t, err, "still failing")
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(5), func() (int, error) {
		calls++
		return 0, Permanent(errors.New("bad request"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, IsRetryable(err))
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := fastPolicy(3)
	p.BaseDelay = time.Hour
	p.MaxDelay = time.Hour

	_, err := Do(ctx, p, func() (int, error) { return 0, errors.New("transient") })
	require.ErrorIs(t, err, context.Canceled)
}

func TestDelayForAttempt(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffMultiplier: 2}
	assert.Equal(t, 100*time.Millisecond, p.DelayForAttempt(0))
	assert.Equal(t, 400*time.Millisecond, p.DelayForAttempt(2))
	assert.Equal(t, time.Second, p.DelayForAttempt(10))
}
