package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerFormatByEnv(t *testing.T) {
	var buf bytes.Buffer
	newLogger("production", &buf).Info("hello", "k", "v")
	require.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())

	buf.Reset()
	newLogger("local", &buf).Info("hello", "k", "v")
	require.Contains(t, buf.String(), "msg=hello")
}

func TestMetricsCountAndExpose(t *testing.T) {
	m := NewMetrics()
	m.ObserveHTTP("/v1/loans", http.MethodGet, "200", 0.01)
	m.ObserveHTTP("/v1/loans", http.MethodGet, "200", 0.02)
	m.CountApplicationEvent("application.created")

	require.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/v1/loans", http.MethodGet, "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.applicationEvents.WithLabelValues("application.created")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "loanlink_http_requests_total")
}
