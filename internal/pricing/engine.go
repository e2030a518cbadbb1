// Package pricing computes swap quotes from the bridge pool imbalance
// and the remotely configured fee curve.
package pricing

import (
	"sync"

	"github.com/shopspring/decimal"
	"github.com/uswap-new/uiuswap.github.io/internal/numeric"
	"github.com/uswap-new/uiuswap.github.io/internal/types"
)

// PoolState is the last-known bridge liquidity on each ledger. It goes
// stale between refreshes; quotes accept the last-known value.
type PoolState struct {
	PrimaryPoolSize decimal.Decimal
	SidePoolSize    decimal.Decimal
}

// SwapQuote is the priced outcome of a requested swap. Derived, never
// persisted; recomputed on every input change.
type SwapQuote struct {
	AmountIn    decimal.Decimal
	TokenIn     types.Token
	TokenOut    types.Token
	ExpectedOut decimal.Decimal // display amount, floored to 3dp
	ExactOut    decimal.Decimal // accounting amount, rounded to 8dp
	FeeAmount   decimal.Decimal // rounded to 8dp
	FeePercent  decimal.Decimal // rounded to 4dp
	SlippageBps int
	MinReceive  decimal.Decimal // floored to 3dp
}

// Zero reports whether the quote is the empty-input steady state.
func (q SwapQuote) Zero() bool { return q.ExpectedOut.Sign() == 0 }

// Engine owns the fee curve and the pool state. The fee curve is set
// once at startup; pools are replaced wholesale by the liquidity
// refresher.
type Engine struct {
	fee FeeConfig

	mu    sync.RWMutex
	pools PoolState
}

func NewEngine(fee FeeConfig) *Engine {
	return &Engine{fee: fee}
}

// SetPools replaces both pool sizes atomically.
func (e *Engine) SetPools(primary, side decimal.Decimal) {
	e.mu.Lock()
	e.pools = PoolState{PrimaryPoolSize: primary, SidePoolSize: side}
	e.mu.Unlock()
}

// Pools returns the last-known pool state.
func (e *Engine) Pools() PoolState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pools
}

// FeeConfig returns the active fee curve.
func (e *Engine) FeeConfig() FeeConfig { return e.fee }

var (
	half = decimal.NewFromFloat(0.5)
	one  = decimal.NewFromInt(1)
	two  = decimal.NewFromInt(2)
)

// Quote prices a swap of amountIn of tokenIn. A non-positive amount or
// empty pools yield a zero quote: that is the steady empty-input state,
// not a failure.
func (e *Engine) Quote(amountIn decimal.Decimal, tokenIn types.Token, slippageBps int) SwapQuote {
	q := SwapQuote{
		TokenIn:     tokenIn,
		TokenOut:    tokenIn.Counterpart(),
		SlippageBps: slippageBps,
	}
	if !numeric.Positive(amountIn) {
		return q
	}
	pools := e.Pools()
	totalPool := pools.PrimaryPoolSize.Add(pools.SidePoolSize)
	if totalPool.Sign() <= 0 {
		return q
	}
	q.AmountIn = amountIn

	fromPool := pools.SidePoolSize
	if tokenIn.IsPrimary() {
		fromPool = pools.PrimaryPoolSize
	}

	// diff: signed distance this trade pushes the pool from 50/50.
	diff := amountIn.Mul(half).Add(fromPool).Div(totalPool).Sub(half)

	// fee shrinks as the trade rebalances the pool, floored at MinBaseFee.
	adjustedFee := e.fee.BaseFee.Mul(one.Sub(two.Mul(diff.Abs())))
	if adjustedFee.LessThan(e.fee.MinBaseFee) {
		adjustedFee = e.fee.MinBaseFee
	}

	// The mirrored branch inverts the base price but does not diff-adjust
	// the inverse itself; the asymmetry is part of the product's
	// economics and is kept as-is.
	var price decimal.Decimal
	if tokenIn.IsPrimary() {
		price = e.fee.BasePrice.Sub(two.Mul(diff).Mul(e.fee.DiffCoefficient))
	} else {
		price = one.Div(e.fee.BasePrice).Sub(two.Mul(diff).Mul(e.fee.DiffCoefficient))
	}

	rawOut := amountIn.Mul(price).Mul(one.Sub(adjustedFee))
	q.ExactOut = numeric.RoundDP(rawOut, numeric.AccountingDP)
	q.ExpectedOut = numeric.FloorDP(rawOut, numeric.DisplayDP)
	q.FeeAmount = numeric.RoundDP(amountIn.Mul(adjustedFee), numeric.AccountingDP)
	q.FeePercent = numeric.RoundDP(adjustedFee.Mul(decimal.NewFromInt(100)), numeric.PercentDP)

	slip := decimal.NewFromInt(int64(slippageBps)).Div(decimal.NewFromInt(10000))
	q.MinReceive = numeric.FloorDP(q.ExpectedOut.Mul(one.Sub(slip)), numeric.DisplayDP)
	return q
}
