package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uswap-new/uiuswap.github.io/internal/types"
	"go.uber.org/zap"
)

// EngineClient implements SideGateway over the Hive-Engine contracts and
// blockchain RPC endpoints plus the account-history service.
type EngineClient struct {
	rpcURL     string
	historyURL string
	cli        *http.Client
	log        *zap.Logger
}

func NewEngineClient(rpcURL, historyURL string, timeout time.Duration, log *zap.Logger) *EngineClient {
	return &EngineClient{
		rpcURL:     rpcURL,
		historyURL: historyURL,
		cli:        &http.Client{Timeout: timeout},
		log:        log,
	}
}

type findParams struct {
	Contract string `json:"contract"`
	Table    string `json:"table"`
	Query    any    `json:"query"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

func (e *EngineClient) contractsURL() string  { return e.rpcURL + "/contracts" }
func (e *EngineClient) blockchainURL() string { return e.rpcURL + "/blockchain" }

func (e *EngineClient) TokenBalance(ctx context.Context, account, symbol string) (decimal.Decimal, error) {
	var rows []struct {
		Account string `json:"account"`
		Symbol  string `json:"symbol"`
		Balance string `json:"balance"`
	}
	params := findParams{
		Contract: "tokens",
		Table:    "balances",
		Query:    map[string]string{"account": account, "symbol": symbol},
		Limit:    1,
	}
	err := callRPC(ctx, e.cli, e.contractsURL(), "find", params, &rows)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return decimal.Zero, &types.APIError{Service: "hive-engine", Op: "find balances", Err: err}
	}
	if len(rows) == 0 {
		// no balance row means the account never held the token
		return decimal.Zero, nil
	}
	q, perr := decimal.NewFromString(rows[0].Balance)
	if perr != nil {
		return decimal.Zero, &types.APIError{Service: "hive-engine", Op: "find balances", Err: perr}
	}
	return q, nil
}

// engineHistoryRow is one row of the account-history service.
type engineHistoryRow struct {
	TransactionID string `json:"transactionId"`
	Operation     string `json:"operation"`
	From          string `json:"from"`
	To            string `json:"to"`
	Symbol        string `json:"symbol"`
	Quantity      string `json:"quantity"`
	Memo          string `json:"memo"`
	Timestamp     int64  `json:"timestamp"`
}

func (e *EngineClient) AccountHistory(ctx context.Context, account, symbol string, limit int) ([]HistoryOp, error) {
	q := url.Values{}
	q.Set("account", account)
	q.Set("symbol", symbol)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", "0")
	var rows []engineHistoryRow
	if err := doJSON(ctx, e.cli, http.MethodGet, e.historyURL+"?"+q.Encode(), nil, &rows); err != nil {
		return nil, &types.APIError{Service: "hive-engine", Op: "accountHistory", Err: err}
	}

	// service returns newest first already
	ops := make([]HistoryOp, 0, len(rows))
	for _, r := range rows {
		qty, err := decimal.NewFromString(r.Quantity)
		if err != nil {
			e.log.Debug("engine history: malformed quantity",
				zap.String("tx", r.TransactionID), zap.String("quantity", r.Quantity))
			continue
		}
		ops = append(ops, HistoryOp{
			TxID:      r.TransactionID,
			Type:      r.Operation,
			From:      r.From,
			To:        r.To,
			Quantity:  qty,
			Symbol:    r.Symbol,
			Memo:      r.Memo,
			Timestamp: time.Unix(r.Timestamp, 0).UTC(),
		})
	}
	return ops, nil
}

func (e *EngineClient) HasTransaction(ctx context.Context, txID string) error {
	var info struct {
		TransactionID string `json:"transactionId"`
	}
	err := callRPC(ctx, e.cli, e.blockchainURL(), "getTransactionInfo",
		map[string]string{"txid": txID}, &info)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return &types.APIError{Service: "hive-engine", Op: "getTransactionInfo", Err: fmt.Errorf("tx %s: %w", txID, err)}
}
