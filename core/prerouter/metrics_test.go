package prerouter

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prankvz/sentinel/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware(t *testing.T) {
	testCases := []struct {
		name                string
		metricsActive       bool
		responseStatusCode  int
		requestCount        int
		useResponseRecorder bool
		expectedMetricValue float64
	}{
		{"activated 200", true, http.StatusOK, 1, true, 1},
		{"activated 404", true, http.StatusNotFound, 1, true, 1},
		{"activated 500", true, http.StatusInternalServerError, 1, true, 1},
		{"deactivated", false, http.StatusOK, 1, true, 0},
		{"same status repeated", true, http.StatusOK, 3, true, 3},
		{"missing recorder", true, http.StatusOK, 1, false, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			cfg.Metrics.Activated = tc.metricsActive
			ta := newTestApp(t, nil, cfg)

			m, err := NewMetrics(ta.app, prometheus.NewRegistry())
			if err != nil {
				t.Fatalf("NewMetrics failed: %v", err)
			}

			finalHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.responseStatusCode)
			})

			var handler http.Handler = m.Execute(finalHandler)
			if tc.useResponseRecorder {
				handler = NewRecorder().Execute(handler)
			}

			for i := 0; i < tc.requestCount; i++ {
				req := httptest.NewRequest("GET", "/", nil)
				handler.ServeHTTP(httptest.NewRecorder(), req)
			}

			statusCodeStr := strconv.Itoa(tc.responseStatusCode)
			metricValue := testutil.ToFloat64(m.requestsTotal.WithLabelValues(statusCodeStr))
			if metricValue != tc.expectedMetricValue {
				t.Errorf("Expected metric value for code %s to be %.1f, but got %.1f",
					statusCodeStr, tc.expectedMetricValue, metricValue)
			}
		})
	}
}

// Denials by the gate are counted when Metrics sits above it.
func TestMetricsMiddleware_CountsGateDenials(t *testing.T) {
	ta := newTestApp(t, nil, nil)
	if err := ta.blocklist.Add(t.Context(), "10.0.0.9", ""); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(ta.app, reg)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	gate, err := NewBlockIp(ta.app, reg)
	if err != nil {
		t.Fatalf("NewBlockIp failed: %v", err)
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := NewRecorder().Execute(m.Execute(gate.Execute(final)))

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.9:1"
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("403")); got != 1 {
		t.Errorf("403 count = %v, want 1", got)
	}
}
