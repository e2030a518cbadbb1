package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uswap-new/uiuswap.github.io/internal/numeric"
	"github.com/uswap-new/uiuswap.github.io/internal/types"
	"go.uber.org/zap"
)

// HiveClient implements PrimaryGateway over the condenser_api JSON-RPC.
type HiveClient struct {
	url string
	cli *http.Client
	log *zap.Logger
}

func NewHiveClient(url string, timeout time.Duration, log *zap.Logger) *HiveClient {
	return &HiveClient{
		url: url,
		cli: &http.Client{Timeout: timeout},
		log: log,
	}
}

type hiveAccount struct {
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

func (h *HiveClient) AccountBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	var accounts []hiveAccount
	err := callRPC(ctx, h.cli, h.url, "condenser_api.get_accounts", [][]string{{account}}, &accounts)
	if err != nil {
		return decimal.Zero, &types.APIError{Service: "hive", Op: "get_accounts", Err: err}
	}
	if len(accounts) == 0 {
		return decimal.Zero, &types.APIError{Service: "hive", Op: "get_accounts", Err: errors.New("account " + account + " not found")}
	}
	q, _, err := numeric.ParseAsset(accounts[0].Balance)
	if err != nil {
		return decimal.Zero, &types.APIError{Service: "hive", Op: "get_accounts", Err: err}
	}
	return q, nil
}

// hiveHistoryEntry is one [index, {...}] pair from get_account_history.
type hiveHistoryEntry struct {
	TrxID     string            `json:"trx_id"`
	Timestamp string            `json:"timestamp"`
	Op        []json.RawMessage `json:"op"`
}

type hiveTransferOp struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Memo   string `json:"memo"`
}

func (h *HiveClient) AccountHistory(ctx context.Context, account string, limit int) ([]HistoryOp, error) {
	// condenser history entries arrive oldest first as [index, op] pairs.
	var raw [][2]json.RawMessage
	params := []any{account, -1, limit}
	if err := callRPC(ctx, h.cli, h.url, "condenser_api.get_account_history", params, &raw); err != nil {
		return nil, &types.APIError{Service: "hive", Op: "get_account_history", Err: err}
	}

	ops := make([]HistoryOp, 0, len(raw))
	for _, pair := range raw {
		var entry hiveHistoryEntry
		if err := json.Unmarshal(pair[1], &entry); err != nil {
			h.log.Debug("hive history: undecodable entry", zap.Error(err))
			continue
		}
		if len(entry.Op) != 2 {
			continue
		}
		var opType string
		if err := json.Unmarshal(entry.Op[0], &opType); err != nil || opType != "transfer" {
			continue
		}
		var tr hiveTransferOp
		if err := json.Unmarshal(entry.Op[1], &tr); err != nil {
			h.log.Debug("hive history: undecodable transfer", zap.String("trx_id", entry.TrxID), zap.Error(err))
			continue
		}
		q, sym, err := numeric.ParseAsset(tr.Amount)
		if err != nil {
			h.log.Debug("hive history: malformed amount", zap.String("trx_id", entry.TrxID), zap.Error(err))
			continue
		}
		ts, _ := time.Parse("2006-01-02T15:04:05", entry.Timestamp)
		ops = append(ops, HistoryOp{
			TxID:      entry.TrxID,
			Type:      opType,
			From:      tr.From,
			To:        tr.To,
			Quantity:  q,
			Symbol:    sym,
			Memo:      tr.Memo,
			Timestamp: ts,
		})
	}

	// newest first
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops, nil
}

func (h *HiveClient) HasTransaction(ctx context.Context, txID string) error {
	var tx struct {
		TransactionID string `json:"transaction_id"`
	}
	err := callRPC(ctx, h.cli, h.url, "condenser_api.get_transaction", []string{txID}, &tx)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	var re *rpcError
	if errors.As(err, &re) && strings.Contains(strings.ToLower(re.Message), "unknown transaction") {
		return ErrNotFound
	}
	return &types.APIError{Service: "hive", Op: "get_transaction", Err: err}
}
