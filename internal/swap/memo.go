package swap

import "regexp"

// The bridge annotates settlements with the original transaction id and,
// optionally, the executed quantity and price:
//
//	"<txIdSent> Swapped Qty: 99.799 Swapped Price: 0.999"
//
// The id match is a plain substring; quantity and price are pattern
// matched and purely informational.
var (
	swappedQtyRE   = regexp.MustCompile(`Swapped Qty:\s*([0-9]+(?:\.[0-9]+)?)`)
	swappedPriceRE = regexp.MustCompile(`Swapped Price:\s*([0-9]+(?:\.[0-9]+)?)`)
)

// parseMemoMeta extracts the optional swapped-quantity and swapped-price
// tokens from a settlement memo. Absent tokens yield empty strings.
func parseMemoMeta(memo string) (qty, price string) {
	if m := swappedQtyRE.FindStringSubmatch(memo); m != nil {
		qty = m[1]
	}
	if m := swappedPriceRE.FindStringSubmatch(memo); m != nil {
		price = m[1]
	}
	return qty, price
}
