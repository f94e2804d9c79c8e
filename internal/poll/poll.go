package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when the ceiling elapses before the awaited
// condition holds.
var ErrTimeout = errors.New("poll: timed out")

// Clock abstracts time for the polling loops. The real implementation sleeps;
// tests substitute a fake that advances instantly.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is cancelled, returning ctx.Err() in
	// the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock implements Clock using the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep blocks for d or until ctx is cancelled.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Waiter runs fixed-interval bounded polling loops.
type Waiter struct {
	Interval time.Duration
	Clock    Clock
}

// NewWaiter creates a Waiter with the given poll interval and the system
// clock.
func NewWaiter(interval time.Duration) Waiter {
	return Waiter{Interval: interval, Clock: SystemClock{}}
}

// Until polls cond at the configured interval until it reports true, the
// ceiling elapses (ErrTimeout), or ctx is cancelled. An error from cond
// aborts the loop immediately.
func (w Waiter) Until(ctx context.Context, ceiling time.Duration, cond func(context.Context) (bool, error)) error {
	if w.Clock == nil {
		w.Clock = SystemClock{}
	}

	deadline := w.Clock.Now().Add(ceiling)
	for {
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if !w.Clock.Now().Before(deadline) {
			return ErrTimeout
		}
		if err := w.Clock.Sleep(ctx, w.Interval); err != nil {
			return err
		}
	}
}

// AnyChanged polls sample until any of the returned values is non-empty and
// differs from its counterpart in before. This is the completion heuristic
// for the TTS web UI: a state transition in any one tracked observable is
// sufficient evidence that generation finished. Sampling values shorter than
// before (element transiently absent) count as no signal yet, not as failure.
func (w Waiter) AnyChanged(ctx context.Context, ceiling time.Duration, before []string, sample func(context.Context) []string) error {
	return w.Until(ctx, ceiling, func(ctx context.Context) (bool, error) {
		current := sample(ctx)
		for i, cur := range current {
			if cur == "" {
				continue
			}
			if i >= len(before) || cur != before[i] {
				return true, nil
			}
		}
		return false, nil
	})
}

// Validate reports configuration errors on the waiter itself.
func (w Waiter) Validate() error {
	if w.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", w.Interval)
	}
	return nil
}
