package swap

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uswap-new/uiuswap.github.io/internal/history"
	"github.com/uswap-new/uiuswap.github.io/internal/ledger"
	"github.com/uswap-new/uiuswap.github.io/internal/metrics"
	"github.com/uswap-new/uiuswap.github.io/internal/resilience"
	"github.com/uswap-new/uiuswap.github.io/internal/types"
	"go.uber.org/zap"
)

// bridgeScanLimit bounds how far back the bridge-account history is
// scanned for a settlement.
const bridgeScanLimit = 100

// ResolvePending runs one reconciliation pass over the user's records.
// The pass is idempotent and may be invoked repeatedly: every query
// failure is inconclusive for this attempt and leaves the record as it
// was. It never returns an error for that reason.
func (m *Manager) ResolvePending(ctx context.Context) {
	recs, err := m.store.List(ctx, m.cfg.User)
	if err != nil {
		m.log.Warn("reconciliation: history load failed", zap.Error(err))
		return
	}
	for _, rec := range recs {
		if rec.Status.Terminal() {
			if rec.TxIDReceived == history.PlaceholderTxID {
				m.backfillCounterpart(ctx, rec)
			}
			continue
		}
		m.resolveOne(ctx, rec)
	}
}

// resolveOne classifies a single pending record:
//  1. settlement on the output-token ledger -> completed
//  2. refund on the input-token ledger -> refunded
//  3. inside the age window, origin transaction missing -> not-sent
//  4. otherwise stays pending
func (m *Manager) resolveOne(ctx context.Context, rec types.SwapRecord) {
	// 1. settlement check
	ops, err := m.bridgeHistory(ctx, rec.TokenOut)
	if err != nil {
		m.inconclusive("settlement scan", rec, err)
		return
	}
	if op := findOutbound(ops, m.cfg.BridgeAccount, rec.Username, rec.TxIDSent); op != nil {
		rec.Status = types.StatusCompleted
		rec.TxIDReceived = op.TxID
		rec.AmountReceived = op.Quantity.String()
		rec.SwappedQty, rec.SwappedPrice = parseMemoMeta(op.Memo)
		m.commit(ctx, rec)
		return
	}

	// 2. refund check; a refund uses the same memo convention
	ops, err = m.bridgeHistory(ctx, rec.TokenIn)
	if err != nil {
		m.inconclusive("refund scan", rec, err)
		return
	}
	if op := findOutbound(ops, m.cfg.BridgeAccount, rec.Username, rec.TxIDSent); op != nil {
		rec.Status = types.StatusRefunded
		rec.TxIDReceived = op.TxID
		rec.AmountReceived = op.Quantity.String()
		m.commit(ctx, rec)
		return
	}

	// 3. existence check, only inside the age window. Younger records
	// are too early to judge; older ones stay pending indefinitely and
	// callers treat them as unresolved.
	age := rec.Age(m.now())
	if age < m.cfg.MinResolveAge() || age > m.cfg.MaxResolveAge() {
		return
	}
	err = m.originHas(ctx, rec)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		rec.Status = types.StatusNotSent
		m.commit(ctx, rec)
	case err != nil:
		m.inconclusive("existence check", rec, err)
	}
}

// backfillCounterpart re-queries a terminal record whose counterpart id
// is the placeholder, filling in the real id without touching status.
func (m *Manager) backfillCounterpart(ctx context.Context, rec types.SwapRecord) {
	token := rec.TokenOut
	if rec.Status == types.StatusRefunded {
		token = rec.TokenIn
	}
	ops, err := m.bridgeHistory(ctx, token)
	if err != nil {
		m.inconclusive("counterpart backfill", rec, err)
		return
	}
	op := findOutbound(ops, m.cfg.BridgeAccount, rec.Username, rec.TxIDSent)
	if op == nil {
		return
	}
	rec.TxIDReceived = op.TxID
	if err := m.store.Update(ctx, rec); err != nil {
		m.log.Warn("reconciliation: backfill update failed",
			zap.String("tx", rec.TxIDSent), zap.Error(err))
		return
	}
	m.log.Info("counterpart id backfilled",
		zap.String("tx", rec.TxIDSent), zap.String("counterpart", op.TxID))
}

func (m *Manager) commit(ctx context.Context, rec types.SwapRecord) {
	if err := m.store.Update(ctx, rec); err != nil {
		m.log.Warn("reconciliation: record update failed",
			zap.String("tx", rec.TxIDSent), zap.Error(err))
		return
	}
	metrics.SwapsResolved.WithLabelValues(string(rec.Status)).Inc()
	m.log.Info("swap resolved",
		zap.String("tx", rec.TxIDSent),
		zap.String("status", string(rec.Status)),
		zap.String("counterpart", rec.TxIDReceived))
}

func (m *Manager) inconclusive(step string, rec types.SwapRecord, err error) {
	metrics.ResolveErrors.Inc()
	m.log.Debug("reconciliation inconclusive this attempt",
		zap.String("step", step),
		zap.String("tx", rec.TxIDSent),
		zap.Error(err))
}

// bridgeHistory fetches the bridge account's recent operations on the
// ledger that owns token, newest first.
func (m *Manager) bridgeHistory(ctx context.Context, token types.Token) ([]ledger.HistoryOp, error) {
	start := time.Now()
	defer func() { metrics.LedgerLatency.Observe(time.Since(start).Seconds()) }()
	return resilience.Retry(ctx, m.cfg.Retry.MaxAttempts, m.cfg.RetryBaseDelay(), func(ctx context.Context) ([]ledger.HistoryOp, error) {
		if token.IsPrimary() {
			return m.primary.AccountHistory(ctx, m.cfg.BridgeAccount, bridgeScanLimit)
		}
		return m.side.AccountHistory(ctx, m.cfg.BridgeAccount, string(token), bridgeScanLimit)
	})
}

// originHas checks whether the originally submitted transaction exists
// on its origin ledger.
func (m *Manager) originHas(ctx context.Context, rec types.SwapRecord) error {
	if rec.TokenIn.IsPrimary() {
		return m.primary.HasTransaction(ctx, rec.TxIDSent)
	}
	return m.side.HasTransaction(ctx, rec.TxIDSent)
}

// findOutbound returns the first (newest) outbound transfer from the
// bridge to the user whose memo contains txID. Two pending swaps with
// colliding memo substrings resolve to the newest match; that ambiguity
// is a known limitation of memo correlation.
func findOutbound(ops []ledger.HistoryOp, bridge, user, txID string) *ledger.HistoryOp {
	if txID == "" {
		return nil
	}
	for i := range ops {
		op := &ops[i]
		if op.From != bridge || op.To != user {
			continue
		}
		if strings.Contains(op.Memo, txID) {
			return op
		}
	}
	return nil
}
