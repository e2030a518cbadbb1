package pricing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uswap-new/uiuswap.github.io/internal/resilience"
	"go.uber.org/zap"
)

// FeeConfig is the remotely configurable fee curve. Built-in defaults
// apply whenever the remote document is unreachable or a field is
// invalid; the whole struct is replaced only on a successful merge.
type FeeConfig struct {
	BaseFee         decimal.Decimal
	MinBaseFee      decimal.Decimal
	DiffCoefficient decimal.Decimal
	BasePrice       decimal.Decimal
}

// DefaultFeeConfig returns the built-in fee curve.
func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		BaseFee:         decimal.NewFromFloat(0.002),
		MinBaseFee:      decimal.NewFromFloat(0.00075),
		DiffCoefficient: decimal.NewFromFloat(0.00575),
		BasePrice:       decimal.NewFromInt(1),
	}
}

// remoteFeeDoc mirrors the remote JSON document. Pointer fields
// distinguish absent from zero.
type remoteFeeDoc struct {
	BaseFee         *decimal.Decimal `json:"BASE_FEE"`
	MinBaseFee      *decimal.Decimal `json:"MIN_BASE_FEE"`
	DiffCoefficient *decimal.Decimal `json:"DIFF_COEFFICIENT"`
	BasePrice       *decimal.Decimal `json:"BASE_PRICE_HIVE_TO_SHIVE"`
}

// FetchFeeConfig loads the remote fee document once, retrying per the
// given policy. It never fails: on any error the defaults are returned.
func FetchFeeConfig(ctx context.Context, url string, timeout time.Duration, maxAttempts int, baseDelay time.Duration, log *zap.Logger) FeeConfig {
	def := DefaultFeeConfig()
	if url == "" {
		return def
	}
	cli := &http.Client{Timeout: timeout}

	doc, err := resilience.Retry(ctx, maxAttempts, baseDelay, func(ctx context.Context) (remoteFeeDoc, error) {
		var d remoteFeeDoc
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return d, err
		}
		resp, err := cli.Do(req)
		if err != nil {
			return d, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return d, &statusError{resp.StatusCode}
		}
		err = json.NewDecoder(resp.Body).Decode(&d)
		return d, err
	})
	if err != nil {
		log.Warn("fee config fetch failed, using defaults", zap.String("url", url), zap.Error(err))
		return def
	}
	return mergeFeeConfig(def, doc, log)
}

type statusError struct{ code int }

func (e *statusError) Error() string { return "unexpected http status " + http.StatusText(e.code) }

// mergeFeeConfig overlays valid remote fields onto the defaults. A field
// must be strictly positive to be accepted, and the merged result must
// keep MinBaseFee <= BaseFee or both fee fields revert to defaults.
func mergeFeeConfig(def FeeConfig, doc remoteFeeDoc, log *zap.Logger) FeeConfig {
	out := def
	if doc.BaseFee != nil && doc.BaseFee.Sign() > 0 {
		out.BaseFee = *doc.BaseFee
	}
	if doc.MinBaseFee != nil && doc.MinBaseFee.Sign() > 0 {
		out.MinBaseFee = *doc.MinBaseFee
	}
	if doc.DiffCoefficient != nil && doc.DiffCoefficient.Sign() > 0 {
		out.DiffCoefficient = *doc.DiffCoefficient
	}
	if doc.BasePrice != nil && doc.BasePrice.Sign() > 0 {
		out.BasePrice = *doc.BasePrice
	}
	if out.MinBaseFee.GreaterThan(out.BaseFee) {
		log.Warn("remote fee config violates min<=base, keeping default fees",
			zap.String("base_fee", out.BaseFee.String()),
			zap.String("min_base_fee", out.MinBaseFee.String()))
		out.BaseFee = def.BaseFee
		out.MinBaseFee = def.MinBaseFee
	}
	return out
}
