package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDelay_ExponentialGrowth(t *testing.T) {
	policy := &RetryPolicy{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{80, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, CalculateDelay(tt.attempt, policy), "attempt %d", tt.attempt)
	}
}

func TestCalculateDelay_Defaults(t *testing.T) {
	assert.Zero(t, CalculateDelay(3, nil))
	assert.Equal(t, 40*time.Millisecond, CalculateDelay(2, &RetryPolicy{InitialDelay: 10 * time.Millisecond}))
}

func TestAddJitter_NeverShortens(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 200; i++ {
		got := AddJitter(base, 0.1)
		assert.GreaterOrEqual(t, got, base)
		assert.LessOrEqual(t, got, 110*time.Millisecond)
	}
	assert.Equal(t, base, AddJitter(base, 0))
}

func TestWait_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Wait(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetry_SpacesAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, InitialDelay: 20 * time.Millisecond, Multiplier: 1}
	fail := errors.New("busy")

	var stamps []time.Time
	err := Retry(context.Background(), policy, func(error) bool { return true }, func(context.Context) error {
		stamps = append(stamps, time.Now())
		return fail
	})

	assert.ErrorIs(t, err, fail)
	require.Len(t, stamps, 4)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), policy.InitialDelay, "gap %d", i)
	}
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{MaxAttempts: 5}, func(error) bool { return false }, func(context.Context) error {
		calls++
		return errors.New("bad request")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_SucceedsAfterFailure(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond}, func(error) bool { return true }, func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("503")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_ContextEndsWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	fail := errors.New("429")
	start := time.Now()
	err := Retry(ctx, RetryPolicy{MaxAttempts: 5, InitialDelay: time.Minute}, func(error) bool { return true }, func(context.Context) error {
		return fail
	})
	assert.ErrorIs(t, err, fail)
	assert.Less(t, time.Since(start), time.Second)
}
