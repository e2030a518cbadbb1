package types

import "time"

// Token identifies which side of the bridge an asset lives on.
type Token string

const (
	// TokenHive is the base asset on the primary ledger.
	TokenHive Token = "HIVE"
	// TokenSwapHive is the wrapped representation on the side ledger.
	TokenSwapHive Token = "SWAP.HIVE"
)

// Counterpart returns the token on the opposite ledger.
func (t Token) Counterpart() Token {
	if t == TokenHive {
		return TokenSwapHive
	}
	return TokenHive
}

// IsPrimary reports whether the token lives on the primary ledger.
func (t Token) IsPrimary() bool { return t == TokenHive }

// SwapStatus is the lifecycle state of an executed swap.
// pending is the only non-terminal state.
type SwapStatus string

const (
	StatusPending   SwapStatus = "pending"
	StatusCompleted SwapStatus = "completed"
	StatusRefunded  SwapStatus = "refunded"
	StatusNotSent   SwapStatus = "not-sent"
)

// Terminal reports whether no further transition is allowed.
func (s SwapStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusRefunded, StatusNotSent:
		return true
	}
	return false
}

// SwapRecord is one executed swap, persisted per user.
// Created with StatusPending at submit time and mutated only by the
// reconciliation pass.
type SwapRecord struct {
	Timestamp      time.Time  `json:"timestamp"`
	TxIDSent       string     `json:"txIdSent"`
	AmountSent     string     `json:"amountSent"`
	TokenIn        Token      `json:"tokenIn"`
	TokenOut       Token      `json:"tokenOut"`
	Username       string     `json:"username"`
	Status         SwapStatus `json:"status"`
	TxIDReceived   string     `json:"txIdReceived,omitempty"`
	AmountReceived string     `json:"amountReceived,omitempty"`
	SwappedQty     string     `json:"swappedQty,omitempty"`
	SwappedPrice   string     `json:"swappedPrice,omitempty"`
}

// Age of the record relative to now.
func (r *SwapRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.Timestamp)
}
