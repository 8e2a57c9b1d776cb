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

func TestRecordVerdict(t *testing.T) {
	m := New()
	m.RecordVerdict("trusted")
	m.RecordVerdict("untrusted")
	m.RecordVerdict("untrusted")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.verdicts.WithLabelValues("trusted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.verdicts.WithLabelValues("untrusted")))
}

func TestRecordFaultAndDropped(t *testing.T) {
	m := New()
	m.RecordFault()
	m.RecordLogDropped()
	m.RecordLogDropped()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.faults))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logDropped))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordVerdict("trusted")
		m.RecordResponse("fault")
		m.RecordFault()
		m.RecordLogDropped()
		m.ObserveRequest("GET", "/aitmdetector", "200", time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordResponse("untrusted")
	m.ObserveRequest("GET", "/aitmdetector", "200", 2*time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `aitm_detector_responses_total{outcome="untrusted"} 1`)
	assert.Contains(t, body, "aitm_detector_http_request_duration_seconds")
}
