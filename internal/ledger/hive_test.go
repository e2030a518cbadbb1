package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHiveServer(t *testing.T, handlers map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		body, ok := handlers[req.Method]
		if !ok {
			t.Fatalf("unexpected rpc method %s", req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestHiveClient_AccountBalance(t *testing.T) {
	srv := newHiveServer(t, map[string]string{
		"condenser_api.get_accounts": `{"result":[{"name":"alice","balance":"12.345 HIVE"}]}`,
	})
	defer srv.Close()

	c := NewHiveClient(srv.URL, time.Second, zap.NewNop())
	bal, err := c.AccountBalance(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("12.345")))
}

func TestHiveClient_AccountHistoryFiltersAndReverses(t *testing.T) {
	srv := newHiveServer(t, map[string]string{
		"condenser_api.get_account_history": `{"result":[
			[0,{"trx_id":"aaa","timestamp":"2024-05-01T12:00:00","op":["transfer",{"from":"uswap","to":"alice","amount":"99.799 HIVE","memo":"tx123"}]}],
			[1,{"trx_id":"bbb","timestamp":"2024-05-01T12:01:00","op":["vote",{"voter":"alice"}]}],
			[2,{"trx_id":"ccc","timestamp":"2024-05-01T12:02:00","op":["transfer",{"from":"alice","to":"uswap","amount":"50.000 HIVE","memo":"swap"}]}]
		]}`,
	})
	defer srv.Close()

	c := NewHiveClient(srv.URL, time.Second, zap.NewNop())
	ops, err := c.AccountHistory(context.Background(), "uswap", 100)
	require.NoError(t, err)
	require.Len(t, ops, 2, "non-transfer ops are dropped")

	// newest first
	assert.Equal(t, "ccc", ops[0].TxID)
	assert.Equal(t, "aaa", ops[1].TxID)
	assert.Equal(t, "uswap", ops[1].From)
	assert.Equal(t, "alice", ops[1].To)
	assert.Equal(t, "HIVE", ops[1].Symbol)
	assert.True(t, ops[1].Quantity.Equal(decimal.RequireFromString("99.799")))
	assert.Equal(t, "tx123", ops[1].Memo)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), ops[1].Timestamp)
}

func TestHiveClient_HasTransaction(t *testing.T) {
	srv := newHiveServer(t, map[string]string{
		"condenser_api.get_transaction": `{"result":{"transaction_id":"tx123"}}`,
	})
	defer srv.Close()
	c := NewHiveClient(srv.URL, time.Second, zap.NewNop())
	assert.NoError(t, c.HasTransaction(context.Background(), "tx123"))
}

func TestHiveClient_HasTransactionUnknown(t *testing.T) {
	srv := newHiveServer(t, map[string]string{
		"condenser_api.get_transaction": `{"error":{"code":-32003,"message":"Assert Exception:false: Unknown Transaction tx999"}}`,
	})
	defer srv.Close()
	c := NewHiveClient(srv.URL, time.Second, zap.NewNop())
	assert.ErrorIs(t, c.HasTransaction(context.Background(), "tx999"), ErrNotFound)
}

func TestHiveClient_RPCErrorIsAPIError(t *testing.T) {
	srv := newHiveServer(t, map[string]string{
		"condenser_api.get_accounts": `{"error":{"code":-32000,"message":"server busy"}}`,
	})
	defer srv.Close()
	c := NewHiveClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.AccountBalance(context.Background(), "alice")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
