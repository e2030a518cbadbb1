package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
)

// httpError carries the status and trimmed body of a non-200 response.
type httpError struct {
	Status int
	URL    string
	Body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d %s: %s", e.Status, e.URL, e.Body)
}

func newHTTPError(resp *http.Response, body []byte) *httpError {
	return &httpError{
		Status: resp.StatusCode,
		URL:    resp.Request.URL.String(),
		Body:   strings.TrimSpace(truncate(string(body), 240)),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func doJSON[T any](ctx context.Context, cli *http.Client, method, url string, payload any, v *T) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return newHTTPError(resp, b)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// rpcRequest is the JSON-RPC 2.0 envelope both ledgers speak.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

var rpcID atomic.Int64

func callRPC(ctx context.Context, cli *http.Client, url, method string, params, result any) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      rpcID.Add(1),
	}
	var resp rpcResponse
	if err := doJSON(ctx, cli, http.MethodPost, url, req, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil || len(resp.Result) == 0 || string(resp.Result) == "null" {
		if result != nil {
			return ErrNotFound
		}
		return nil
	}
	return json.Unmarshal(resp.Result, result)
}
