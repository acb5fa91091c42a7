package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for upstream requests.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeBreakerOpen = "breaker_open"
	OutcomeStatus      = "bad_status"
	OutcomeDecode      = "decode_error"
)

// Registry holds the collectors exported on /metrics. All methods are safe on a nil *Registry so
// packages can be used without metrics wired in.
type Registry struct {
	reg *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	MissingFields    *prometheus.CounterVec
	EnrichDuration   prometheus.Histogram
	EnrichedRows     prometheus.Gauge
	SourceFailures   prometheus.Counter
}

// NewRegistry creates and registers all rollupsx collectors on a private registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollupsx_upstream_requests_total",
				Help: "Upstream HTTP requests by target and outcome",
			},
			[]string{"target", "outcome"},
		),
		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rollupsx_upstream_request_duration_seconds",
				Help:    "Upstream HTTP request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"target"},
		),
		MissingFields: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollupsx_missing_fields_total",
				Help: "Enriched row fields that ended up missing, by field",
			},
			[]string{"field"},
		),
		EnrichDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rollupsx_enrich_duration_seconds",
				Help:    "Wall time of a full enrichment run",
				Buckets: []float64{0.5, 1, 2.5, 5, 7.5, 10, 15, 30},
			},
		),
		EnrichedRows: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rollupsx_enriched_rows",
				Help: "Rows produced by the last enrichment run",
			},
		),
		SourceFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rollupsx_source_load_failures_total",
				Help: "Spreadsheet loads that failed",
			},
		),
	}
	r.reg.MustRegister(
		r.UpstreamRequests,
		r.UpstreamDuration,
		r.MissingFields,
		r.EnrichDuration,
		r.EnrichedRows,
		r.SourceFailures,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveUpstream records one upstream request.
func (r *Registry) ObserveUpstream(target, outcome string, took time.Duration) {
	if r == nil {
		return
	}
	r.UpstreamRequests.WithLabelValues(target, outcome).Inc()
	r.UpstreamDuration.WithLabelValues(target).Observe(took.Seconds())
}

// ObserveMissing counts a missing field on an enriched row.
func (r *Registry) ObserveMissing(field string) {
	if r == nil {
		return
	}
	r.MissingFields.WithLabelValues(field).Inc()
}

// ObserveEnrichRun records a completed enrichment run.
func (r *Registry) ObserveEnrichRun(rows int, took time.Duration) {
	if r == nil {
		return
	}
	r.EnrichDuration.Observe(took.Seconds())
	r.EnrichedRows.Set(float64(rows))
}

// ObserveSourceFailure counts a failed spreadsheet load.
func (r *Registry) ObserveSourceFailure() {
	if r == nil {
		return
	}
	r.SourceFailures.Inc()
}
