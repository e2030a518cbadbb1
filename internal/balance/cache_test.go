package balance

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uswap-new/uiuswap.github.io/internal/ledger"
	"github.com/uswap-new/uiuswap.github.io/internal/resilience"
	"github.com/uswap-new/uiuswap.github.io/internal/types"
	"go.uber.org/zap"
)

type fakePrimary struct {
	balance decimal.Decimal
	err     error
	calls   atomic.Int32
}

func (f *fakePrimary) AccountBalance(context.Context, string) (decimal.Decimal, error) {
	f.calls.Add(1)
	return f.balance, f.err
}
func (f *fakePrimary) AccountHistory(context.Context, string, int) ([]ledger.HistoryOp, error) {
	return nil, nil
}
func (f *fakePrimary) HasTransaction(context.Context, string) error { return nil }

type fakeSide struct {
	balance decimal.Decimal
	err     error
	calls   atomic.Int32
}

func (f *fakeSide) TokenBalance(context.Context, string, string) (decimal.Decimal, error) {
	f.calls.Add(1)
	return f.balance, f.err
}
func (f *fakeSide) AccountHistory(context.Context, string, string, int) ([]ledger.HistoryOp, error) {
	return nil, nil
}
func (f *fakeSide) HasTransaction(context.Context, string) error { return nil }

func newTestCache(p *fakePrimary, s *fakeSide, ttl, debounce time.Duration) *Cache {
	return NewCache(p, s, ttl, debounce, 1, time.Millisecond, zap.NewNop())
}

func TestValidUsername(t *testing.T) {
	valid := []string{"abc", "user-1.x", "a1.b2-c3", "exactly16charsxx"}
	invalid := []string{"AB", "ab", "user_name", "", "waytoolongusername", "Spaces no"}

	for _, name := range valid {
		assert.True(t, ValidUsername(name), "expected %q to be valid", name)
	}
	for _, name := range invalid {
		assert.False(t, ValidUsername(name), "expected %q to be invalid", name)
	}
}

func TestLoad_InvalidUsernameNoNetwork(t *testing.T) {
	p := &fakePrimary{balance: decimal.NewFromInt(10)}
	s := &fakeSide{balance: decimal.NewFromInt(20)}
	c := newTestCache(p, s, time.Minute, time.Millisecond)

	_, err := c.Load(context.Background(), "Invalid_Name", false)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, int32(0), p.calls.Load())
	assert.Equal(t, int32(0), s.calls.Load())
}

func TestLoad_TTLServesCachedSnapshot(t *testing.T) {
	p := &fakePrimary{balance: decimal.NewFromInt(10)}
	s := &fakeSide{balance: decimal.NewFromInt(20)}
	c := newTestCache(p, s, time.Minute, time.Millisecond)

	snap, err := c.Load(context.Background(), "alice", false)
	require.NoError(t, err)
	assert.True(t, snap.Primary.Equal(decimal.NewFromInt(10)))
	assert.True(t, snap.Side.Equal(decimal.NewFromInt(20)))

	_, err = c.Load(context.Background(), "alice", false)
	require.NoError(t, err)

	assert.Equal(t, int32(1), p.calls.Load(), "second load inside TTL must not hit the network")
	assert.Equal(t, int32(1), s.calls.Load())
}

func TestLoad_ForceBypassesTTL(t *testing.T) {
	p := &fakePrimary{balance: decimal.NewFromInt(10)}
	s := &fakeSide{balance: decimal.NewFromInt(20)}
	c := newTestCache(p, s, time.Minute, time.Millisecond)

	_, err := c.Load(context.Background(), "alice", false)
	require.NoError(t, err)
	_, err = c.Load(context.Background(), "alice", true)
	require.NoError(t, err)

	assert.Equal(t, int32(2), p.calls.Load())
	assert.Equal(t, int32(2), s.calls.Load())
}

func TestLoad_BurstOnlyLastCallFetches(t *testing.T) {
	p := &fakePrimary{balance: decimal.NewFromInt(10)}
	s := &fakeSide{balance: decimal.NewFromInt(20)}
	c := newTestCache(p, s, time.Minute, 50*time.Millisecond)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = c.Load(context.Background(), "alice", false)
	}()

	time.Sleep(10 * time.Millisecond)
	_, secondErr := c.Load(context.Background(), "alice", false)
	wg.Wait()

	assert.ErrorIs(t, firstErr, resilience.ErrSuperseded)
	require.NoError(t, secondErr)
	assert.Equal(t, int32(1), p.calls.Load())
	assert.Equal(t, int32(1), s.calls.Load())
}

func TestLoad_PartialFailurePublishesNothing(t *testing.T) {
	p := &fakePrimary{balance: decimal.NewFromInt(10)}
	s := &fakeSide{err: errors.New("side ledger down")}
	c := newTestCache(p, s, time.Minute, time.Millisecond)

	_, err := c.Load(context.Background(), "alice", false)
	require.Error(t, err)

	_, ok := c.Cached("alice")
	assert.False(t, ok, "failed load must not publish a snapshot")
}

func TestSnapshot_Get(t *testing.T) {
	s := Snapshot{Primary: decimal.NewFromInt(1), Side: decimal.NewFromInt(2)}
	assert.True(t, s.Get(types.TokenHive).Equal(decimal.NewFromInt(1)))
	assert.True(t, s.Get(types.TokenSwapHive).Equal(decimal.NewFromInt(2)))
}
