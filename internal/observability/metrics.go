package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges shared by the
// dashboard and the watcher.
type Metrics struct {
	// Feed metrics.
	FeedRequests *prometheus.CounterVec // labels: outcome={success,error}
	FeedDuration prometheus.Histogram
	FeedCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Watcher metrics.
	WatcherChecks  *prometheus.CounterVec // labels: outcome={alert,clear,fetch_error,store_error}
	WatcherRunning prometheus.Gauge
	AlertActive    prometheus.Gauge
	AlertPublishes *prometheus.CounterVec // labels: outcome={success,error}

	// Enrichment metrics.
	EnrichmentRequests *prometheus.CounterVec // labels: outcome={success,error,empty,skipped}
	EnrichmentCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Report metrics.
	ReportRequests *prometheus.CounterVec // labels: outcome={success,endpoint_error,response_error}
	ReportDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.FeedRequests,
		m.FeedDuration,
		m.FeedCache,
		m.WatcherChecks,
		m.WatcherRunning,
		m.AlertActive,
		m.AlertPublishes,
		m.EnrichmentRequests,
		m.EnrichmentCache,
		m.ReportRequests,
		m.ReportDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake",
			Name:      "feed_requests_total",
			Help:      "GeoNet feed requests by outcome.",
		}, []string{"outcome"}),
		FeedDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake",
			Name:      "feed_request_duration_seconds",
			Help:      "GeoNet feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FeedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake",
			Name:      "feed_cache_total",
			Help:      "Freshness cache lookups by result.",
		}, []string{"result"}),
		WatcherChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake",
			Name:      "watcher_checks_total",
			Help:      "Threshold checks by outcome.",
		}, []string{"outcome"}),
		WatcherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake",
			Name:      "watcher_running",
			Help:      "1 when the watcher loop is active, 0 when shut down.",
		}),
		AlertActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake",
			Name:      "alert_active",
			Help:      "1 when the notification artifact holds a major-event alert.",
		}),
		AlertPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake",
			Name:      "alert_publishes_total",
			Help:      "Alert transitions published to Kafka by outcome.",
		}, []string{"outcome"}),
		EnrichmentRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake",
			Name:      "enrichment_requests_total",
			Help:      "Population enrichment requests by outcome.",
		}, []string{"outcome"}),
		EnrichmentCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake",
			Name:      "enrichment_cache_total",
			Help:      "Population enrichment cache lookups by result.",
		}, []string{"result"}),
		ReportRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake",
			Name:      "report_requests_total",
			Help:      "Language-model report requests by outcome.",
		}, []string{"outcome"}),
		ReportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake",
			Name:      "report_duration_seconds",
			Help:      "Language-model report generation duration in seconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		}),
	}
}
