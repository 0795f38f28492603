// Package backoff provides context-aware exponential backoff. Waits are
// aborted immediately when the context is cancelled; there are no blind
// sleeps anywhere in the pipeline.
package backoff

import (
	"context"
	"time"
)

// Policy describes a bounded exponential backoff schedule.
type Policy struct {
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	MaxAttempts int
}

// DefaultPolicy matches the broker connection defaults.
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2,
		MaxDelay:    8 * time.Second,
		MaxAttempts: 5,
	}
}

// Delay returns the wait before retry number attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 0; i < attempt; i++ {
		d *= p.Multiplier
		if time.Duration(d) >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Sleep waits for d or until ctx is cancelled, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry runs fn until it succeeds or the policy's attempts are
// exhausted, waiting the scheduled delay between attempts. The error of
// the last attempt is returned; a cancelled context wins over it.
func Retry(ctx context.Context, p Policy, fn func() error) error {
	var lastErr error
	for attempt := 0; p.MaxAttempts <= 0 || attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := Sleep(ctx, p.Delay(attempt-1)); err != nil {
				return err
			}
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}
