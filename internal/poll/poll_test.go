package poll

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock advances by the requested sleep amount without blocking.
type fakeClock struct {
	now    time.Time
	sleeps int
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.now = f.now.Add(d)
	f.sleeps++
	return nil
}

func TestUntilSucceedsImmediately(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	w := Waiter{Interval: time.Second, Clock: clock}

	err := w.Until(context.Background(), 10*time.Second, func(context.Context) (bool, error) {
		return true, nil
	})
	if err != nil {
		t.Fatalf("Until failed: %v", err)
	}
	if clock.sleeps != 0 {
		t.Errorf("Expected no sleeps, got %d", clock.sleeps)
	}
}

func TestUntilEventualSuccess(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	w := Waiter{Interval: time.Second, Clock: clock}

	calls := 0
	err := w.Until(context.Background(), 10*time.Second, func(context.Context) (bool, error) {
		calls++
		return calls == 4, nil
	})
	if err != nil {
		t.Fatalf("Until failed: %v", err)
	}
	if calls != 4 {
		t.Errorf("Expected 4 condition calls, got %d", calls)
	}
	if clock.sleeps != 3 {
		t.Errorf("Expected 3 sleeps, got %d", clock.sleeps)
	}
}

func TestUntilTimeout(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	w := Waiter{Interval: time.Second, Clock: clock}

	start := clock.now
	err := w.Until(context.Background(), 2*time.Second, func(context.Context) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}

	// The ceiling must actually elapse; a never-changing condition must not
	// fail instantly.
	if elapsed := clock.now.Sub(start); elapsed < 2*time.Second {
		t.Errorf("Timed out after %v, expected at least 2s", elapsed)
	}
}

func TestUntilConditionError(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	w := Waiter{Interval: time.Second, Clock: clock}

	boom := errors.New("boom")
	err := w.Until(context.Background(), 10*time.Second, func(context.Context) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected condition error, got %v", err)
	}
}

func TestUntilContextCancelled(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	w := Waiter{Interval: time.Second, Clock: clock}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Until(ctx, 10*time.Second, func(context.Context) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestAnyChangedFirstTransition(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	w := Waiter{Interval: time.Second, Clock: clock}

	before := []string{"blob:a", "", "blob:c"}
	polls := 0
	sample := func(context.Context) []string {
		polls++
		if polls < 3 {
			return []string{"blob:a", "", "blob:c"}
		}
		// Only the second observable transitions; that alone is enough.
		return []string{"blob:a", "blob:new", "blob:c"}
	}

	if err := w.AnyChanged(context.Background(), 10*time.Second, before, sample); err != nil {
		t.Fatalf("AnyChanged failed: %v", err)
	}
	if polls != 3 {
		t.Errorf("Expected success on poll 3, got %d polls", polls)
	}
}

func TestAnyChangedIgnoresEmptyValues(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	w := Waiter{Interval: time.Second, Clock: clock}

	// A value flipping to empty (element vanished mid-update) is not a
	// completion signal.
	before := []string{"blob:a"}
	err := w.AnyChanged(context.Background(), 2*time.Second, before, func(context.Context) []string {
		return []string{""}
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}
}

func TestAnyChangedNeverChanges(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	w := Waiter{Interval: time.Second, Clock: clock}

	before := []string{"blob:a", "blob:b"}
	err := w.AnyChanged(context.Background(), 2*time.Second, before, func(context.Context) []string {
		return []string{"blob:a", "blob:b"}
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}
}

func TestAnyChangedShortSample(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	w := Waiter{Interval: time.Second, Clock: clock}

	// Sampling fewer values than the snapshot (elements absent) must not
	// abort the loop.
	before := []string{"blob:a", "blob:b"}
	polls := 0
	sample := func(context.Context) []string {
		polls++
		if polls < 2 {
			return nil
		}
		return []string{"blob:a", "blob:changed"}
	}

	if err := w.AnyChanged(context.Background(), 10*time.Second, before, sample); err != nil {
		t.Fatalf("AnyChanged failed: %v", err)
	}
}

func TestWaiterValidate(t *testing.T) {
	if err := (Waiter{Interval: time.Second}).Validate(); err != nil {
		t.Errorf("Expected valid waiter, got %v", err)
	}
	if err := (Waiter{}).Validate(); err == nil {
		t.Error("Expected error for zero interval")
	}
}
