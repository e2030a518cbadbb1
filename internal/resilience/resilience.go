// Package resilience carries the retry, timeout and burst-suppression
// primitives shared by every network-facing component.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrTimeout is returned when an operation loses the race against
	// its deadline. The underlying call is not cancelled, only ignored.
	ErrTimeout = errors.New("resilience: operation timed out")
	// ErrSuperseded is returned to a debounced caller whose slot was
	// taken over by a newer call inside the debounce window.
	ErrSuperseded = errors.New("resilience: superseded by a newer call")
)

// Retry re-invokes fn up to maxAttempts times with exponential backoff
// baseDelay*2^(attempt-1) between attempts, returning the last failure
// once attempts are exhausted.
func Retry[T any](ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return zero, lastErr
}

// WithTimeout races fn against a timer. If the timer fires first the
// eventual result of fn is discarded and ErrTimeout is returned.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	type outcome struct {
		v   T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome{v, err}
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case o := <-done:
		return o.v, o.err
	case <-timer.C:
		return zero, ErrTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Debouncer suppresses bursts: only the last caller inside the window
// survives, earlier callers are told they were superseded. At most one
// call is waiting at a time; a new call takes over the pending slot
// rather than queuing behind it.
type Debouncer struct {
	window time.Duration

	mu  sync.Mutex
	seq uint64
}

func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Wait holds the caller for the debounce window. It returns nil if the
// caller is still the most recent one after the window elapses, and
// ErrSuperseded if a newer call (or a Preempt) arrived in the meantime.
func (d *Debouncer) Wait(ctx context.Context) error {
	d.mu.Lock()
	d.seq++
	ticket := d.seq
	d.mu.Unlock()

	timer := time.NewTimer(d.window)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seq != ticket {
		return ErrSuperseded
	}
	return nil
}

// Preempt invalidates any pending Wait without scheduling a new one.
// Used by force-refresh paths that must not be debounced away.
func (d *Debouncer) Preempt() {
	d.mu.Lock()
	d.seq++
	d.mu.Unlock()
}

// Throttle is a leading-edge rate limiter: the first call passes, later
// calls inside the interval are dropped.
type Throttle struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether the caller may proceed now.
func (t *Throttle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	if now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}
