// Package signing abstracts the external transaction-signing service.
// The service owns the user's keys; the client only learns the resulting
// transaction id or a rejection.
package signing

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/uswap-new/uiuswap.github.io/internal/types"
	"go.uber.org/zap"
)

// Signer submits operations for out-of-process signing and broadcast.
type Signer interface {
	// RequestTransfer asks the service to sign and broadcast a transfer
	// of amount (fixed 3dp string) of asset from user to recipient with
	// the given memo. Returns the broadcast transaction id.
	RequestTransfer(ctx context.Context, user, recipient, amount, memo, asset string) (string, error)
	// RequestCustomJSON asks the service to sign and broadcast a custom
	// json operation under the given authority.
	RequestCustomJSON(ctx context.Context, user, opID, authority string, payload any, description string) (string, error)
}

// HTTPSigner talks to a local keychain-bridge over HTTP. Any transport
// failure or rejection maps to a TransactionError: signing is never
// retried on behalf of the user.
type HTTPSigner struct {
	url string
	cli *http.Client
	log *zap.Logger
}

func NewHTTPSigner(url string, timeout time.Duration, log *zap.Logger) *HTTPSigner {
	return &HTTPSigner{
		url: strings.TrimRight(url, "/"),
		cli: &http.Client{Timeout: timeout},
		log: log,
	}
}

type signResponse struct {
	Success  bool   `json:"success"`
	ResultID string `json:"result_id"`
	Message  string `json:"message"`
}

func (s *HTTPSigner) post(ctx context.Context, path string, payload any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", &types.TransactionError{Reason: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+path, bytes.NewReader(b))
	if err != nil {
		return "", &types.TransactionError{Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.cli.Do(req)
	if err != nil {
		return "", &types.TransactionError{Reason: "signing service unavailable: " + err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &types.TransactionError{Reason: "signing service http " + resp.Status + ": " + strings.TrimSpace(string(body))}
	}
	var sr signResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", &types.TransactionError{Reason: "undecodable signing response: " + err.Error()}
	}
	if !sr.Success || sr.ResultID == "" {
		reason := sr.Message
		if reason == "" {
			reason = "request rejected"
		}
		s.log.Warn("signing request rejected", zap.String("reason", reason))
		return "", &types.TransactionError{Reason: reason}
	}
	return sr.ResultID, nil
}

func (s *HTTPSigner) RequestTransfer(ctx context.Context, user, recipient, amount, memo, asset string) (string, error) {
	return s.post(ctx, "/transfer", map[string]any{
		"user":      user,
		"recipient": recipient,
		"amount":    amount,
		"memo":      memo,
		"asset":     asset,
	})
}

func (s *HTTPSigner) RequestCustomJSON(ctx context.Context, user, opID, authority string, payload any, description string) (string, error) {
	return s.post(ctx, "/custom-json", map[string]any{
		"user":        user,
		"id":          opID,
		"authority":   authority,
		"json":        payload,
		"description": description,
	})
}
