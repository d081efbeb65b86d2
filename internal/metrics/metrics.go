package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for campsight. A nil *Metrics is
// valid and records nothing, so instrumentation call sites stay unconditional.
type Metrics struct {
	// Search pipeline
	SearchesTotal         *prometheus.CounterVec
	SearchDurationSeconds prometheus.Histogram
	MatchedCampaigns      prometheus.Histogram

	// Upstream API client
	UpstreamRequestsTotal          *prometheus.CounterVec
	UpstreamRequestDurationSeconds *prometheus.HistogramVec

	// Per-campaign enrichment
	EnrichmentFailuresTotal *prometheus.CounterVec

	// HTTP shell
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campsight_searches_total",
				Help: "Total number of keyword searches by outcome",
			},
			[]string{"outcome"},
		),
		SearchDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "campsight_search_duration_seconds",
				Help:    "End-to-end search pipeline duration",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		MatchedCampaigns: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "campsight_matched_campaigns",
				Help:    "Number of campaigns matched per search",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 200},
			},
		),
		UpstreamRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campsight_upstream_requests_total",
				Help: "Total number of upstream API requests by resource and status",
			},
			[]string{"resource", "status"},
		),
		UpstreamRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campsight_upstream_request_duration_seconds",
				Help:    "Upstream API request duration by resource",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"resource"},
		),
		EnrichmentFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campsight_enrichment_failures_total",
				Help: "Total number of degraded per-campaign enrichment steps by stage",
			},
			[]string{"stage"},
		),
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campsight_api_requests_total",
				Help: "Total number of HTTP API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campsight_api_request_duration_seconds",
				Help:    "HTTP API request duration",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.SearchesTotal,
		m.SearchDurationSeconds,
		m.MatchedCampaigns,
		m.UpstreamRequestsTotal,
		m.UpstreamRequestDurationSeconds,
		m.EnrichmentFailuresTotal,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
	)

	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSearch records one completed search
func (m *Metrics) ObserveSearch(outcome string, matched int, duration time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.SearchDurationSeconds.Observe(duration.Seconds())
	if outcome == "success" {
		m.MatchedCampaigns.Observe(float64(matched))
	}
}

// ObserveUpstream records one upstream API request. Status 0 means the
// request never produced a response (network error).
func (m *Metrics) ObserveUpstream(resource string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(resource, strconv.Itoa(status)).Inc()
	m.UpstreamRequestDurationSeconds.WithLabelValues(resource).Observe(duration.Seconds())
}

// ObserveEnrichmentFailure records one degraded enrichment step
func (m *Metrics) ObserveEnrichmentFailure(stage string) {
	if m == nil {
		return
	}
	m.EnrichmentFailuresTotal.WithLabelValues(stage).Inc()
}

// ObserveAPIRequest records one HTTP API request against our own shell
func (m *Metrics) ObserveAPIRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.APIRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.APIRequestDurationSeconds.WithLabelValues(method, path).Observe(duration.Seconds())
}
