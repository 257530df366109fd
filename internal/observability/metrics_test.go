package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/health", "200", time.Millisecond)
	m.IncEnrollment("created")
	m.SSEClientsInc()
	assert.Nil(t, m.Registry())
	assert.Nil(t, Init(false))
}

func TestMetricsRecordsAPIAndAggregateSignals(t *testing.T) {
	m := New()
	m.ObserveAPI("POST", "/api/turma-inscriptions", "201", 20*time.Millisecond)
	m.ObserveAPI("POST", "/api/turma-inscriptions", "201", 30*time.Millisecond)
	m.IncAggregateConflict("Enrollment.Enroll")
	m.IncEnrollment("turma_full")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("POST", "/api/turma-inscriptions", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aggregateConflicts.WithLabelValues("Enrollment.Enroll")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.enrollments.WithLabelValues("turma_full")))
}

func TestMetricsHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.IncTransition("pending", "approved")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(string(body), `trilhas_inscription_transitions_total{from="pending",to="approved"} 1`))
}
