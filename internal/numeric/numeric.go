// Package numeric fixes the rounding and truncation rules used by every
// swap calculation. Amounts are decimal.Decimal throughout; float64 is
// reserved for config knobs and never carries money.
package numeric

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// DisplayDP is the precision shown to the user and embedded in memos.
	DisplayDP = 3
	// AccountingDP is the internal accounting precision.
	AccountingDP = 8
	// PercentDP is the precision of displayed fee percentages.
	PercentDP = 4
)

// FloorDP truncates d toward zero at the given number of decimal places.
// Display amounts are always floored, never rounded up: the user may not
// be promised more than the bridge will pay out.
func FloorDP(d decimal.Decimal, places int32) decimal.Decimal {
	return d.RoundDown(places)
}

// RoundDP rounds half away from zero at the given number of places.
func RoundDP(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// FormatAmount renders d with exactly DisplayDP decimals, the fixed
// format the ledgers expect in transfer amounts and memos.
func FormatAmount(d decimal.Decimal) string {
	return FloorDP(d, DisplayDP).StringFixed(DisplayDP)
}

// ParseAsset splits a ledger asset string such as "12.345 HIVE" into its
// quantity and symbol.
func ParseAsset(s string) (decimal.Decimal, string, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return decimal.Zero, "", fmt.Errorf("malformed asset %q", s)
	}
	q, err := decimal.NewFromString(fields[0])
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("malformed asset quantity %q: %w", fields[0], err)
	}
	return q, fields[1], nil
}

// Positive reports whether d is a finite positive quantity.
func Positive(d decimal.Decimal) bool { return d.Sign() > 0 }
