// Package ledger talks to the two transaction logs the swap client does
// not control: the primary ledger (Hive condenser JSON-RPC) and the side
// ledger (Hive-Engine contracts RPC plus its account-history service).
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a queried transaction does not exist on
// its ledger.
var ErrNotFound = errors.New("ledger: transaction not found")

// HistoryOp is one operation from an account history, normalized across
// the two ledgers. Quantity and Symbol are split out of the ledger's
// native amount encoding.
type HistoryOp struct {
	TxID      string
	Type      string
	From      string
	To        string
	Quantity  decimal.Decimal
	Symbol    string
	Memo      string
	Timestamp time.Time
}

// PrimaryGateway is the primary-ledger query surface.
type PrimaryGateway interface {
	// AccountBalance returns the liquid base-asset balance of account.
	AccountBalance(ctx context.Context, account string) (decimal.Decimal, error)
	// AccountHistory returns up to limit most recent operations for
	// account, newest first.
	AccountHistory(ctx context.Context, account string, limit int) ([]HistoryOp, error)
	// HasTransaction reports whether txID exists on the ledger;
	// ErrNotFound when it conclusively does not.
	HasTransaction(ctx context.Context, txID string) error
}

// SideGateway is the side-ledger query surface.
type SideGateway interface {
	// TokenBalance returns account's balance of the given token symbol.
	TokenBalance(ctx context.Context, account, symbol string) (decimal.Decimal, error)
	// AccountHistory returns up to limit most recent token operations
	// for account, newest first.
	AccountHistory(ctx context.Context, account, symbol string, limit int) ([]HistoryOp, error)
	// HasTransaction reports whether txID exists on the side ledger;
	// ErrNotFound when it conclusively does not.
	HasTransaction(ctx context.Context, txID string) error
}
