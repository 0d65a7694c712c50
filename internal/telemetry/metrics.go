package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	GossipRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beluga",
			Name:      "gossip_requests_total",
			Help:      "Total number of gossip queries, labeled by result class.",
		},
		[]string{"result"},
	)

	GossipRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "beluga",
			Name:      "gossip_request_duration_seconds",
			Help:      "Latency of gossip queries.",
			// Covers 1ms .. ~4s, which brackets the gossip timeout.
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 13),
		},
	)

	DiscoveryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beluga",
			Name:      "discovery_attempts_total",
			Help:      "Total number of discovery attempts, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	DiscoveryFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "beluga",
			Name:      "discovery_failures_total",
			Help:      "Discovery requests that exhausted every attempt.",
		},
	)

	CachedMembers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "beluga",
			Name:      "cached_members",
			Help:      "Member count of the last successful gossip response.",
		},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "beluga",
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(
		GossipRequestsTotal,
		GossipRequestDuration,
		DiscoveryAttemptsTotal,
		DiscoveryFailuresTotal,
		CachedMembers,
		uptime,
	)
}

// MetricsHandler exposes the beluga registry. Mount it with
// mux.Handle("/metrics", telemetry.MetricsHandler()).
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
