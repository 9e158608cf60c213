// internal/retry/retry.go
package retry

import (
	"context"
	"time"
)

// Policy defines bounded retry with exponential backoff.
type Policy struct {
	MaxAttempts    int           // Total attempts, including the first (>= 1)
	InitialBackoff time.Duration // Wait before the second attempt
	MaxBackoff     time.Duration // Backoff cap
	Multiplier     float64       // Backoff growth factor
}

// Default returns the policy used when configuration does not override it.
func Default() Policy {
	return Policy{
		MaxAttempts:    6,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

// None returns a policy that performs a single attempt.
func None() Policy {
	return Policy{MaxAttempts: 1}
}

// normalize guards against zero-valued policies from config.
func (p Policy) normalize() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	return p
}

// Do runs fn up to MaxAttempts times, waiting between attempts.
// Only errors for which retryable returns true are retried; any other
// error is returned immediately. When attempts are exhausted the last
// error is returned unchanged, so callers can still match it with
// errors.Is/As. The backoff wait respects context cancellation.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, fn func(context.Context) error) error {
	p = p.normalize()
	backoff := p.InitialBackoff

	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt >= p.MaxAttempts {
			return lastErr
		}

		if backoff > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(float64(backoff) * p.Multiplier)
			if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
				backoff = p.MaxBackoff
			}
		}
	}
}
