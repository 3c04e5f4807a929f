package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart mutations forwarded to the shop API",
		},
		[]string{"operation", "outcome"},
	)

	cartViewLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_view_loads_total",
			Help: "Cart view batch loads",
		},
		[]string{"outcome"},
	)

	cartViewLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_cart_view_load_duration_seconds",
			Help:    "Duration of the cart view batch load",
			Buckets: prometheus.DefBuckets,
		},
	)

	referenceCacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_reference_cache_requests_total",
			Help: "Reference data cache lookups by result",
		},
		[]string{"kind", "result"},
	)

	sessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_sessions_total",
			Help: "Session lifecycle events",
		},
		[]string{"event"},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
