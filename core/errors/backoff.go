package errors

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy is exponential backoff for calls that are safe to repeat.
// Store writes never go through it.
type RetryPolicy struct {
	// MaxAttempts counts retries after the first call; 0 disables them.
	MaxAttempts int `yaml:"max_attempts"`

	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`

	// Multiplier defaults to 2.
	Multiplier float64 `yaml:"multiplier"`

	// JitterPercent lengthens each wait by up to this fraction.
	JitterPercent float64 `yaml:"jitter_percent"`
}

// DefaultRetryPolicy suits rate-limited model APIs.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   2,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      8 * time.Second,
		Multiplier:    2,
		JitterPercent: 0.1,
	}
}

// CalculateDelay is InitialDelay * Multiplier^attempt, capped at MaxDelay.
func CalculateDelay(attempt int, policy *RetryPolicy) time.Duration {
	if policy == nil || policy.InitialDelay <= 0 {
		return 0
	}
	multiplier := policy.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}
	delay := time.Duration(float64(policy.InitialDelay) * math.Pow(multiplier, float64(attempt)))
	if policy.MaxDelay > 0 && (delay > policy.MaxDelay || delay < 0) {
		return policy.MaxDelay
	}
	return delay
}

// AddJitter adds a random [0, jitterPercent] share of delay. The result is
// never shorter than delay.
func AddJitter(delay time.Duration, jitterPercent float64) time.Duration {
	if jitterPercent <= 0 || delay <= 0 {
		return delay
	}
	return delay + time.Duration(rand.Float64()*jitterPercent*float64(delay))
}

// Wait sleeps for delay or until ctx is done.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry calls fn until it succeeds, returns an error retryable rejects, the
// policy runs out of attempts, or ctx is done. The last error from fn is
// returned.
func Retry(ctx context.Context, policy RetryPolicy, retryable func(error) bool, fn func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= policy.MaxAttempts || !retryable(err) {
			return err
		}
		delay := AddJitter(CalculateDelay(attempt, &policy), policy.JitterPercent)
		if werr := Wait(ctx, delay); werr != nil {
			return err
		}
	}
}
