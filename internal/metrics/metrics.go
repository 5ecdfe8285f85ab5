// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Auth
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_token_refreshes_total",
			Help: "Access token refresh attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Catalog
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_catalog_requests_total",
			Help: "Catalog API calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Insights
	InsightCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_insight_cache_lookups_total",
			Help: "Insight cache lookups by kind and result (hit, miss, stale)",
		},
		[]string{"kind", "result"},
	)

	InsightResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_insight_results_total",
			Help: "Insight texts served by kind and source (cache, generated, fallback)",
		},
		[]string{"kind", "source"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dashboard_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Live updates
	NowPlayingSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_now_playing_subscribers",
			Help: "Active now-playing subscribers",
		},
	)

	NowPlayingPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_now_playing_polls_total",
			Help: "Now-playing poll attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Receipt requests discarded because a newer one started.
	SupersededRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_superseded_requests_total",
			Help: "View requests discarded because a newer request for the same view started",
		},
	)
)

// Outcome returns "success" or "error" for err.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
