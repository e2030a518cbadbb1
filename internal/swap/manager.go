// Package swap owns the live swap request and the lifecycle of executed
// swaps: submit, pending, and the pull-based reconciliation that settles
// them against the two ledgers.
package swap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uswap-new/uiuswap.github.io/internal/balance"
	"github.com/uswap-new/uiuswap.github.io/internal/config"
	"github.com/uswap-new/uiuswap.github.io/internal/history"
	"github.com/uswap-new/uiuswap.github.io/internal/ledger"
	"github.com/uswap-new/uiuswap.github.io/internal/metrics"
	"github.com/uswap-new/uiuswap.github.io/internal/numeric"
	"github.com/uswap-new/uiuswap.github.io/internal/pricing"
	"github.com/uswap-new/uiuswap.github.io/internal/signing"
	"github.com/uswap-new/uiuswap.github.io/internal/types"
	"go.uber.org/zap"
)

// customJSONOpID is the side ledger's custom-operation id.
const customJSONOpID = "ssc-mainnet-hive"

// Manager owns the current swap request and the persisted history of
// executed swaps. All mutation of either goes through its methods.
type Manager struct {
	cfg     *config.Config
	engine  *pricing.Engine
	cache   *balance.Cache
	store   history.Store
	signer  signing.Signer
	primary ledger.PrimaryGateway
	side    ledger.SideGateway
	log     *zap.Logger

	now func() time.Time

	mu      sync.Mutex
	amount  decimal.Decimal
	tokenIn types.Token
	quote   pricing.SwapQuote
}

func NewManager(cfg *config.Config, engine *pricing.Engine, cache *balance.Cache, store history.Store, signer signing.Signer, primary ledger.PrimaryGateway, side ledger.SideGateway, log *zap.Logger) *Manager {
	m := &Manager{
		cfg:     cfg,
		engine:  engine,
		cache:   cache,
		store:   store,
		signer:  signer,
		primary: primary,
		side:    side,
		log:     log,
		now:     time.Now,
		tokenIn: types.TokenHive,
	}
	m.quote = engine.Quote(decimal.Zero, m.tokenIn, cfg.Swap.SlippageBps)
	return m
}

// SetAmount replaces the requested input amount and requotes.
func (m *Manager) SetAmount(amount decimal.Decimal) pricing.SwapQuote {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.amount = amount
	return m.requote()
}

// Flip reverses the swap direction and requotes. History is untouched.
func (m *Manager) Flip() pricing.SwapQuote {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenIn = m.tokenIn.Counterpart()
	return m.requote()
}

// Quote returns the current quote.
func (m *Manager) Quote() pricing.SwapQuote {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quote
}

func (m *Manager) requote() pricing.SwapQuote {
	m.quote = m.engine.Quote(m.amount, m.tokenIn, m.cfg.Swap.SlippageBps)
	if !m.quote.Zero() {
		price, _ := m.quote.ExactOut.Div(m.quote.AmountIn).Float64()
		fee, _ := m.quote.FeePercent.Float64()
		metrics.QuotePrice.Set(price)
		metrics.QuoteFeePercent.Set(fee)
	}
	return m.quote
}

// History returns the user's swap records, newest first.
func (m *Manager) History(ctx context.Context) ([]types.SwapRecord, error) {
	return m.store.List(ctx, m.cfg.User)
}

// Submit validates the current quote, asks the signing service to
// execute the transfer to the bridge account, and records the pending
// swap. No record is created on any failure.
func (m *Manager) Submit(ctx context.Context) (types.SwapRecord, error) {
	m.mu.Lock()
	q := m.quote
	m.mu.Unlock()

	if err := m.validate(ctx, q); err != nil {
		return types.SwapRecord{}, err
	}

	memo := fmt.Sprintf("swap %s min %s", q.TokenOut, numeric.FormatAmount(q.MinReceive))
	amount := numeric.FormatAmount(q.AmountIn)

	var (
		txID string
		err  error
	)
	if q.TokenIn.IsPrimary() {
		txID, err = m.signer.RequestTransfer(ctx, m.cfg.User, m.cfg.BridgeAccount, amount, memo, string(q.TokenIn))
	} else {
		payload := map[string]any{
			"contractName":   "tokens",
			"contractAction": "transfer",
			"contractPayload": map[string]any{
				"symbol":   string(q.TokenIn),
				"to":       m.cfg.BridgeAccount,
				"quantity": amount,
				"memo":     memo,
			},
		}
		desc := fmt.Sprintf("Swap %s %s for %s", amount, q.TokenIn, q.TokenOut)
		txID, err = m.signer.RequestCustomJSON(ctx, m.cfg.User, customJSONOpID, "active", payload, desc)
	}
	if err != nil {
		return types.SwapRecord{}, err
	}

	rec := types.SwapRecord{
		Timestamp:  m.now().UTC(),
		TxIDSent:   txID,
		AmountSent: amount,
		TokenIn:    q.TokenIn,
		TokenOut:   q.TokenOut,
		Username:   m.cfg.User,
		Status:     types.StatusPending,
	}
	if err := m.store.Append(ctx, rec); err != nil {
		// the transfer is already broadcast; the record loss is logged
		// but the swap itself succeeded
		m.log.Error("failed to persist swap record", zap.String("tx", txID), zap.Error(err))
		return rec, nil
	}
	metrics.SwapsSubmitted.Inc()
	m.log.Info("swap submitted",
		zap.String("tx", txID),
		zap.String("amount", amount),
		zap.String("token_in", string(q.TokenIn)),
		zap.String("min_receive", numeric.FormatAmount(q.MinReceive)))
	return rec, nil
}

// validate applies the submit preconditions: positive amount, configured
// minimum, cached balance of the input token, and counterpart liquidity
// for the expected output.
func (m *Manager) validate(ctx context.Context, q pricing.SwapQuote) error {
	if !numeric.Positive(q.AmountIn) {
		return types.Validationf("amount", "must be a positive number")
	}
	minAmount := decimal.NewFromFloat(m.cfg.Swap.MinAmount)
	if q.AmountIn.LessThan(minAmount) {
		return types.Validationf("amount", "below the minimum of %s %s", minAmount.String(), q.TokenIn)
	}

	snap, ok := m.cache.Cached(m.cfg.User)
	if !ok {
		var err error
		snap, err = m.cache.Load(ctx, m.cfg.User, true)
		if err != nil {
			return err
		}
	}
	if q.AmountIn.GreaterThan(snap.Get(q.TokenIn)) {
		return types.Validationf("amount", "exceeds %s balance of %s", q.TokenIn, snap.Get(q.TokenIn).String())
	}

	pools := m.engine.Pools()
	available := pools.PrimaryPoolSize
	if !q.TokenOut.IsPrimary() {
		available = pools.SidePoolSize
	}
	if q.ExpectedOut.GreaterThan(available) {
		return types.Validationf("liquidity", "expected output %s exceeds available %s liquidity %s",
			q.ExpectedOut.String(), q.TokenOut, available.String())
	}
	return nil
}
