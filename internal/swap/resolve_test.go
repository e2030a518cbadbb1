package swap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uswap-new/uiuswap.github.io/internal/history"
	"github.com/uswap-new/uiuswap.github.io/internal/ledger"
	"github.com/uswap-new/uiuswap.github.io/internal/types"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// pendingRecord returns a HIVE -> SWAP.HIVE swap submitted age ago.
func pendingRecord(age time.Duration) types.SwapRecord {
	return types.SwapRecord{
		Timestamp:  testNow.Add(-age),
		TxIDSent:   "tx-sent-1",
		AmountSent: "100.000",
		TokenIn:    types.TokenHive,
		TokenOut:   types.TokenSwapHive,
		Username:   "alice",
		Status:     types.StatusPending,
	}
}

func settlementOp(memo string) ledger.HistoryOp {
	return ledger.HistoryOp{
		TxID:      "settle-1",
		Type:      "tokens_transfer",
		From:      "uswap",
		To:        "alice",
		Quantity:  dec("99.799"),
		Symbol:    "SWAP.HIVE",
		Memo:      memo,
		Timestamp: testNow,
	}
}

func newResolveHarness(t *testing.T, rec types.SwapRecord) *harness {
	t.Helper()
	h := newHarness(t)
	h.manager.now = func() time.Time { return testNow }
	require.NoError(t, h.store.Append(context.Background(), rec))
	return h
}

func mustGet(t *testing.T, h *harness) types.SwapRecord {
	t.Helper()
	recs, err := h.store.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	return recs[0]
}

func TestResolve_SettlementCompletesRecord(t *testing.T) {
	h := newResolveHarness(t, pendingRecord(2*time.Minute))
	// settlement for the output token arrives on the side ledger
	h.side.history = []ledger.HistoryOp{
		settlementOp("tx-sent-1 Swapped Qty: 99.799 Swapped Price: 0.99799"),
	}

	h.manager.ResolvePending(context.Background())

	got := mustGet(t, h)
	assert.Equal(t, types.StatusCompleted, got.Status)
	assert.Equal(t, "settle-1", got.TxIDReceived)
	assert.Equal(t, "99.799", got.AmountReceived)
	assert.Equal(t, "99.799", got.SwappedQty)
	assert.Equal(t, "0.99799", got.SwappedPrice)
}

func TestResolve_MemoWithoutMetadataStillCompletes(t *testing.T) {
	h := newResolveHarness(t, pendingRecord(2*time.Minute))
	h.side.history = []ledger.HistoryOp{settlementOp("payout for tx-sent-1")}

	h.manager.ResolvePending(context.Background())

	got := mustGet(t, h)
	assert.Equal(t, types.StatusCompleted, got.Status)
	assert.Empty(t, got.SwappedQty)
	assert.Empty(t, got.SwappedPrice)
}

func TestResolve_NewestMatchWinsOnCollision(t *testing.T) {
	h := newResolveHarness(t, pendingRecord(2*time.Minute))
	newer := settlementOp("tx-sent-1")
	older := settlementOp("tx-sent-1")
	older.TxID = "settle-0"
	// history is newest first; the scan takes the first match
	h.side.history = []ledger.HistoryOp{newer, older}

	h.manager.ResolvePending(context.Background())

	assert.Equal(t, "settle-1", mustGet(t, h).TxIDReceived)
}

func TestResolve_RefundOnInputLedger(t *testing.T) {
	h := newResolveHarness(t, pendingRecord(2*time.Minute))
	// no settlement on the side ledger, but the bridge returned the
	// HIVE with the same memo convention
	h.primary.history = []ledger.HistoryOp{{
		TxID:     "refund-1",
		Type:     "transfer",
		From:     "uswap",
		To:       "alice",
		Quantity: dec("100"),
		Symbol:   "HIVE",
		Memo:     "refund tx-sent-1",
	}}

	h.manager.ResolvePending(context.Background())

	got := mustGet(t, h)
	assert.Equal(t, types.StatusRefunded, got.Status)
	assert.Equal(t, "refund-1", got.TxIDReceived)
}

func TestResolve_MissingOriginInsideWindowIsNotSent(t *testing.T) {
	h := newResolveHarness(t, pendingRecord(60*time.Second))
	h.primary.hasTxErr = ledger.ErrNotFound

	h.manager.ResolvePending(context.Background())

	assert.Equal(t, types.StatusNotSent, mustGet(t, h).Status)
	assert.Equal(t, 1, h.primary.hasCalls)
}

func TestResolve_YoungRecordNeverMarkedNotSent(t *testing.T) {
	h := newResolveHarness(t, pendingRecord(10*time.Second))
	h.primary.hasTxErr = ledger.ErrNotFound

	h.manager.ResolvePending(context.Background())

	assert.Equal(t, types.StatusPending, mustGet(t, h).Status)
	assert.Zero(t, h.primary.hasCalls, "existence must not be checked before the grace period")
}

func TestResolve_OldRecordStaysPendingUnchecked(t *testing.T) {
	h := newResolveHarness(t, pendingRecord(11*time.Minute))
	h.primary.hasTxErr = ledger.ErrNotFound

	h.manager.ResolvePending(context.Background())

	assert.Equal(t, types.StatusPending, mustGet(t, h).Status)
	assert.Zero(t, h.primary.hasCalls, "existence must not be re-checked past the window")
}

func TestResolve_QueryFailureLeavesStatusUnchanged(t *testing.T) {
	h := newResolveHarness(t, pendingRecord(2*time.Minute))
	h.side.histErr = errors.New("side ledger down")

	h.manager.ResolvePending(context.Background())

	assert.Equal(t, types.StatusPending, mustGet(t, h).Status)
}

func TestResolve_ExistenceCheckFailureLeavesPending(t *testing.T) {
	h := newResolveHarness(t, pendingRecord(60*time.Second))
	h.primary.hasTxErr = errors.New("rpc flake")

	h.manager.ResolvePending(context.Background())

	assert.Equal(t, types.StatusPending, mustGet(t, h).Status)
}

func TestResolve_TerminalStateNeverTransitions(t *testing.T) {
	rec := pendingRecord(2 * time.Minute)
	rec.Status = types.StatusCompleted
	rec.TxIDReceived = "settle-1"
	h := newResolveHarness(t, rec)

	// a refund-looking op appears later; it must be ignored
	h.primary.history = []ledger.HistoryOp{{
		TxID: "refund-1", From: "uswap", To: "alice", Memo: "tx-sent-1",
	}}

	h.manager.ResolvePending(context.Background())

	got := mustGet(t, h)
	assert.Equal(t, types.StatusCompleted, got.Status)
	assert.Equal(t, "settle-1", got.TxIDReceived)
}

func TestResolve_PlaceholderCounterpartBackfilled(t *testing.T) {
	rec := pendingRecord(2 * time.Minute)
	rec.Status = types.StatusCompleted
	rec.TxIDReceived = history.PlaceholderTxID
	h := newResolveHarness(t, rec)
	h.side.history = []ledger.HistoryOp{settlementOp("tx-sent-1")}

	h.manager.ResolvePending(context.Background())

	got := mustGet(t, h)
	assert.Equal(t, types.StatusCompleted, got.Status, "backfill must not change status")
	assert.Equal(t, "settle-1", got.TxIDReceived)
}

func TestResolve_RefundedPlaceholderBackfillsFromInputLedger(t *testing.T) {
	rec := pendingRecord(2 * time.Minute)
	rec.Status = types.StatusRefunded
	rec.TxIDReceived = history.PlaceholderTxID
	h := newResolveHarness(t, rec)
	h.primary.history = []ledger.HistoryOp{{
		TxID: "refund-1", From: "uswap", To: "alice", Memo: "tx-sent-1",
	}}

	h.manager.ResolvePending(context.Background())

	got := mustGet(t, h)
	assert.Equal(t, types.StatusRefunded, got.Status)
	assert.Equal(t, "refund-1", got.TxIDReceived)
}

func TestResolve_IgnoresTransfersToOtherUsers(t *testing.T) {
	h := newResolveHarness(t, pendingRecord(10*time.Second))
	op := settlementOp("tx-sent-1")
	op.To = "mallory"
	h.side.history = []ledger.HistoryOp{op}

	h.manager.ResolvePending(context.Background())

	assert.Equal(t, types.StatusPending, mustGet(t, h).Status)
}

func TestParseMemoMeta(t *testing.T) {
	qty, price := parseMemoMeta("tx1 Swapped Qty: 99.799 Swapped Price: 0.998")
	assert.Equal(t, "99.799", qty)
	assert.Equal(t, "0.998", price)

	qty, price = parseMemoMeta("Swapped Qty: 12")
	assert.Equal(t, "12", qty)
	assert.Empty(t, price)

	qty, price = parseMemoMeta("Swapped Qty: garbage")
	assert.Empty(t, qty)
	assert.Empty(t, price)

	qty, price = parseMemoMeta("")
	assert.Empty(t, qty)
	assert.Empty(t, price)
}
