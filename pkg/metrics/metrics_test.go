package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryObserve(t *testing.T) {
	r := NewRegistry()

	r.ObserveUpstream("explorer_stats", OutcomeOK, 120*time.Millisecond)
	r.ObserveUpstream("explorer_stats", OutcomeError, time.Second)
	r.ObserveUpstream("explorer_stats", OutcomeError, time.Second)
	r.ObserveMissing("totalValueLocked")
	r.ObserveEnrichRun(12, 3*time.Second)
	r.ObserveSourceFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(r.UpstreamRequests.WithLabelValues("explorer_stats", OutcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.UpstreamRequests.WithLabelValues("explorer_stats", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.MissingFields.WithLabelValues("totalValueLocked")))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.EnrichedRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SourceFailures))
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveUpstream("tvl", OutcomeOK, time.Millisecond)
		r.ObserveMissing("x")
		r.ObserveEnrichRun(1, time.Millisecond)
		r.ObserveSourceFailure()
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	r := NewRegistry()
	r.ObserveUpstream("tvl", OutcomeOK, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rollupsx_upstream_requests_total{outcome="ok",target="tvl"} 1`)
}
