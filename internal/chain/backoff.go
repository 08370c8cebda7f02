package chain

import (
	"context"
	"time"
)

// BackoffConfig controls retry pacing for rate-limited explorer calls.
// Delay for attempt n is min(Initial * Factor^n, Cap).
type BackoffConfig struct {
	Attempts int
	Initial  time.Duration
	Factor   float64
	Cap      time.Duration
}

func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		Attempts: 4,
		Initial:  250 * time.Millisecond,
		Factor:   2.0,
		Cap:      5 * time.Second,
	}
}

// Delay returns the sleep before retry attempt n (0-based).
func (b BackoffConfig) Delay(attempt int) time.Duration {
	delay := b.Initial
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * b.Factor)
		if delay >= b.Cap {
			return b.Cap
		}
	}
	if delay > b.Cap {
		return b.Cap
	}
	return delay
}

// Retry runs fn up to Attempts times, sleeping the backoff delay between
// tries. The last error is returned if every attempt fails.
func (b BackoffConfig) Retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < b.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.Delay(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
