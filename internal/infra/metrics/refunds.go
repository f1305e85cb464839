package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		refundsTotal,
		refundedAmountTotal,
		railFallbackTotal,
		ordersReconciledTotal,
		stalePendingRefunds,
	)
}

var (
	refundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refunds_total",
			Help: "Refund attempts by terminal outcome (completed/rejected) and settlement rail.",
		},
		[]string{"outcome", "rail"},
	)

	refundedAmountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refunded_amount_total",
			Help: "Total monetary value of completed refunds, labeled by currency.",
		},
		[]string{"currency"},
	)

	railFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rail_fallback_total",
			Help: "Rail classifications that fell back to the session default on ambiguous metadata.",
		},
		[]string{"provider"},
	)

	ordersReconciledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_reconciled_total",
			Help: "Orders flipped to refunded by reconciliation.",
		},
	)

	stalePendingRefunds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stale_pending_refunds",
			Help: "Refund requests stuck pending past the crash window, awaiting manual review.",
		},
	)
)

func IncRefund(outcome, rail string) {
	refundsTotal.WithLabelValues(norm(outcome), norm(rail)).Inc()
}

func AddRefundedAmount(currency string, amount int64) {
	refundedAmountTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func IncRailFallback(provider string) {
	railFallbackTotal.WithLabelValues(norm(provider)).Inc()
}

func IncOrderReconciled() {
	ordersReconciledTotal.Inc()
}

func SetStalePendingRefunds(n int) {
	stalePendingRefunds.Set(float64(n))
}
