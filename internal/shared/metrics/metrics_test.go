package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMetrics() *Metrics {
	return New("test", prometheus.NewRegistry())
}

func TestNew(t *testing.T) {
	m := newTestMetrics()
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.QuotaDecisionsTotal)
	assert.NotNil(t, m.AIRequestsTotal)
	assert.NotNil(t, m.AuthEventsTotal)
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New("dup", prometheus.NewRegistry())
		New("dup", prometheus.NewRegistry())
	})
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	m := newTestMetrics()

	m.RecordHTTPRequest("POST", "/api/conversation", 200, 100*time.Millisecond)
	m.RecordHTTPRequest("POST", "/api/conversation", 403, 5*time.Millisecond)
	m.RecordHTTPRequest("POST", "/api/image", 500, 5*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/conversation", "2xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/conversation", "4xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/image", "5xx")))
}

func TestMetrics_RecordQuotaDecision(t *testing.T) {
	m := newTestMetrics()

	m.RecordQuotaDecision("admitted")
	m.RecordQuotaDecision("admitted")
	m.RecordQuotaDecision("rejected")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.QuotaDecisionsTotal.WithLabelValues("admitted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.QuotaDecisionsTotal.WithLabelValues("rejected")))
}

func TestMetrics_RecordQuotaResets(t *testing.T) {
	m := newTestMetrics()

	m.RecordQuotaResets(0)
	m.RecordQuotaResets(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.QuotaResetsTotal))
}

func TestMetrics_RecordAIRequest(t *testing.T) {
	m := newTestMetrics()

	m.RecordAIRequest("gemini", "chat", "success", 2*time.Second)
	m.RecordAIRequest("removebg", "remove-background", "error", time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.AIRequestsTotal.WithLabelValues("gemini", "chat", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AIRequestsTotal.WithLabelValues("removebg", "remove-background", "error")))
}

func TestMetrics_SetCircuitState(t *testing.T) {
	m := newTestMetrics()

	m.SetCircuitState("gemini", 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.AICircuitState.WithLabelValues("gemini")))
}

func TestStatusCodeToString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{200, "2xx"},
		{201, "2xx"},
		{302, "3xx"},
		{401, "4xx"},
		{403, "4xx"},
		{500, "5xx"},
		{100, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, statusCodeToString(tt.code))
	}
}
