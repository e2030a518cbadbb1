// Package liquidity keeps the pricing engine's view of the bridge
// account pools fresh.
package liquidity

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uswap-new/uiuswap.github.io/internal/ledger"
	"github.com/uswap-new/uiuswap.github.io/internal/metrics"
	"github.com/uswap-new/uiuswap.github.io/internal/pricing"
	"github.com/uswap-new/uiuswap.github.io/internal/resilience"
	"github.com/uswap-new/uiuswap.github.io/internal/types"
	"go.uber.org/zap"
)

// Refresher periodically replaces the engine's pool state with the
// bridge account's live balances on both ledgers.
type Refresher struct {
	engine  *pricing.Engine
	primary ledger.PrimaryGateway
	side    ledger.SideGateway
	bridge  string

	interval    time.Duration
	maxAttempts int
	baseDelay   time.Duration

	log *zap.Logger
}

func NewRefresher(engine *pricing.Engine, primary ledger.PrimaryGateway, side ledger.SideGateway, bridge string, interval time.Duration, maxAttempts int, baseDelay time.Duration, log *zap.Logger) *Refresher {
	return &Refresher{
		engine:      engine,
		primary:     primary,
		side:        side,
		bridge:      bridge,
		interval:    interval,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		log:         log,
	}
}

// RefreshNow fetches both pool balances concurrently and publishes them
// in one step. Either fetch failing skips the update entirely, keeping
// the last-known pools.
func (r *Refresher) RefreshNow(ctx context.Context) error {
	var (
		wg               sync.WaitGroup
		primary, side    decimal.Decimal
		primErr, sideErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		primary, primErr = resilience.Retry(ctx, r.maxAttempts, r.baseDelay, func(ctx context.Context) (decimal.Decimal, error) {
			return r.primary.AccountBalance(ctx, r.bridge)
		})
	}()
	go func() {
		defer wg.Done()
		side, sideErr = resilience.Retry(ctx, r.maxAttempts, r.baseDelay, func(ctx context.Context) (decimal.Decimal, error) {
			return r.side.TokenBalance(ctx, r.bridge, string(types.TokenSwapHive))
		})
	}()
	wg.Wait()

	if primErr != nil {
		return primErr
	}
	if sideErr != nil {
		return sideErr
	}

	r.engine.SetPools(primary, side)
	pf, _ := primary.Float64()
	sf, _ := side.Float64()
	metrics.PrimaryPool.Set(pf)
	metrics.SidePool.Set(sf)
	r.log.Debug("pools refreshed",
		zap.String("primary", primary.String()),
		zap.String("side", side.String()))
	return nil
}

// Run refreshes once immediately, then on every tick until ctx ends.
func (r *Refresher) Run(ctx context.Context) {
	if err := r.RefreshNow(ctx); err != nil {
		r.log.Warn("initial pool refresh failed", zap.Error(err))
	}
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := r.RefreshNow(ctx); err != nil {
				r.log.Warn("pool refresh failed, keeping last-known pools", zap.Error(err))
			}
		}
	}
}
