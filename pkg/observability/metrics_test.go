package observability

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordHTTPRequest("GET", "/api/flake", http.StatusOK, 25*time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/flake", http.StatusInternalServerError, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/flake", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/flake", "5xx")))
}

func TestUpdateDBStats(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.UpdateDBStats(sql.DBStats{InUse: 3, Idle: 2, WaitCount: 7})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.DBConnectionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DBConnectionsIdle))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.DBConnectionsWaitCount))
}

func TestMetricsHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.SearchRequestsTotal.WithLabelValues("ok").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flakestry_search_requests_total")
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "2xx", statusLabel(http.StatusOK))
	assert.Equal(t, "3xx", statusLabel(http.StatusNotModified))
	assert.Equal(t, "4xx", statusLabel(http.StatusNotFound))
	assert.Equal(t, "5xx", statusLabel(http.StatusBadGateway))
}
