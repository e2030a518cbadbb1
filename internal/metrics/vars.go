package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PrimaryPool = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "uswap_primary_pool_size",
		Help: "Bridge account liquidity on the primary ledger",
	})

	SidePool = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "uswap_side_pool_size",
		Help: "Bridge account liquidity on the side ledger",
	})

	QuotePrice = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "uswap_quote_price",
		Help: "Price of the most recent quote",
	})

	QuoteFeePercent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "uswap_quote_fee_percent",
		Help: "Adjusted fee percent of the most recent quote",
	})

	SwapsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "uswap_swaps_submitted_total",
		Help: "Swaps accepted by the signing service",
	})

	SwapsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "uswap_swaps_resolved_total",
		Help: "Pending swaps resolved, by terminal status",
	}, []string{"status"})

	ResolveErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "uswap_resolve_errors_total",
		Help: "Ledger query failures during reconciliation",
	})

	LedgerLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "uswap_ledger_query_seconds",
		Help:    "Time to complete a ledger query",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		PrimaryPool,
		SidePool,
		QuotePrice,
		QuoteFeePercent,
		SwapsSubmitted,
		SwapsResolved,
		ResolveErrors,
		LedgerLatency,
	)
}
