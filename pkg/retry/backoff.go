package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy computes the delay before a retry attempt.
type BackoffStrategy interface {
	// NextDelay returns the delay before the nth retry, n >= 1.
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles (or multiplies) the delay on every retry:
// the delay before the nth retry is BaseDelay * Multiplier^n.
type ExponentialBackoff struct {
	// BaseDelay is the backoff factor the exponential curve starts from.
	BaseDelay time.Duration
	// Multiplier is the growth factor per attempt.
	Multiplier float64
	// MaxDelay caps the delay when positive; 0 means uncapped.
	MaxDelay time.Duration
	// JitterFactor adds +-JitterFactor*delay of randomness (0.0 to 1.0).
	JitterFactor float64
}

// NextDelay calculates the delay for the given retry attempt.
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt))

	if eb.MaxDelay > 0 && delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// ConstantBackoff waits the same delay before every retry.
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns the constant delay.
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// Wait blocks for the given delay or until the context is cancelled.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
