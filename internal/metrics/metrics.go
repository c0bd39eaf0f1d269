package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application metrics, registered on the default registry and exposed
// at /metrics.
var (
	TradesExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_trades_executed_total",
		Help: "Number of trades successfully executed, by side.",
	}, []string{"side"})

	TradesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_trades_rejected_total",
		Help: "Number of trade requests rejected, by reason.",
	}, []string{"reason"})

	PriceUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_price_updates_total",
		Help: "Number of external price pushes applied.",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portfolio_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)
