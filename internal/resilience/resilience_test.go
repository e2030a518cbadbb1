package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	v, err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, attempts)
}

func TestRetry_ExhaustsAndReturnsLastError(t *testing.T) {
	attempts := 0
	lastErr := errors.New("still broken")
	_, err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) (int, error) {
		attempts++
		return 0, lastErr
	})
	assert.Equal(t, 3, attempts)
	assert.Equal(t, lastErr, err)
}

func TestRetry_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Retry(ctx, 5, time.Hour, func(context.Context) (int, error) {
		attempts++
		return 0, errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestWithTimeout_FastOperationWins(t *testing.T) {
	v, err := WithTimeout(context.Background(), time.Second, func(context.Context) (string, error) {
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestWithTimeout_TimerWinsAndResultDiscarded(t *testing.T) {
	_, err := WithTimeout(context.Background(), 10*time.Millisecond, func(context.Context) (string, error) {
		time.Sleep(200 * time.Millisecond)
		return "too late", nil
	})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestDebouncer_NewerCallSupersedes(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = d.Wait(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	secondErr := d.Wait(context.Background())
	wg.Wait()

	assert.ErrorIs(t, firstErr, ErrSuperseded)
	assert.NoError(t, secondErr)
}

func TestDebouncer_LoneCallSurvives(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	assert.NoError(t, d.Wait(context.Background()))
}

func TestDebouncer_PreemptCancelsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var wg sync.WaitGroup
	var err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		err = d.Wait(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	d.Preempt()
	wg.Wait()
	assert.ErrorIs(t, err, ErrSuperseded)
}

func TestThrottle_LeadingEdge(t *testing.T) {
	th := NewThrottle(50 * time.Millisecond)
	assert.True(t, th.Allow())
	assert.False(t, th.Allow())
	time.Sleep(60 * time.Millisecond)
	assert.True(t, th.Allow())
}
