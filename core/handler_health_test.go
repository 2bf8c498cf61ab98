package core

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/db/mock"
	"github.com/prometheus/client_golang/prometheus"
)

func TestHealthHandler(t *testing.T) {
	app := newTestApp(t, &mock.Db{}, nil, nil)
	rr := httptest.NewRecorder()
	app.HealthHandler(rr, httptest.NewRequest("GET", "/api/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != HeadersJson["Content-Type"] {
		t.Errorf("Content-Type = %q", ct)
	}
	basic, data := decodeResponse(t, rr)
	if basic.Code != CodeOkHealth {
		t.Errorf("code = %q", basic.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("invalid data: %v", err)
	}
	if payload["status"] != "healthy" || payload["timestamp"] == "" {
		t.Errorf("payload = %v", payload)
	}
}

func TestListEndpointsHandler(t *testing.T) {
	app := newTestApp(t, &mock.Db{}, nil, nil)
	rr := httptest.NewRecorder()
	app.ListEndpointsHandler(rr, httptest.NewRequest("GET", "/api/list-endpoints", nil))

	_, data := decodeResponse(t, rr)
	var endpoints map[string]string
	if err := json.Unmarshal(data, &endpoints); err != nil {
		t.Fatalf("invalid data: %v", err)
	}
	if endpoints["block_ip"] != "POST /api/block-ip" {
		t.Errorf("block_ip = %q", endpoints["block_ip"])
	}
	if len(endpoints) != len(app.Config().Endpoints.All()) {
		t.Errorf("got %d endpoints, want %d", len(endpoints), len(app.Config().Endpoints.All()))
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	app := newTestApp(t, &mock.Db{}, nil, nil)

	rr := httptest.NewRecorder()
	app.NotFoundHandler(rr, httptest.NewRequest("GET", "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("not found status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	app.MethodNotAllowedHandler(rr, httptest.NewRequest("DELETE", "/api/visits", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("method not allowed status = %d", rr.Code)
	}
}

func TestMetricsHandler(t *testing.T) {
	testCases := []struct {
		name       string
		activated  bool
		remoteAddr string
		forwarded  string
		wantStatus int
	}{
		{"allowed ipv4", true, "127.0.0.1:9999", "", http.StatusOK},
		{"allowed ipv6", true, "[::1]:9999", "", http.StatusOK},
		{"not allowed", true, "192.0.2.1:9999", "", http.StatusNotFound},
		{"forwarded header ignored", true, "192.0.2.1:9999", "127.0.0.1", http.StatusNotFound},
		{"disabled", false, "127.0.0.1:9999", "", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			cfg.Metrics.Activated = tc.activated
			cfg.Server.ClientIpProxyHeader = "X-Forwarded-For"
			app := newTestApp(t, &mock.Db{}, cfg, nil)

			reg := prometheus.NewRegistry()
			counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_metric_total", Help: "test"})
			reg.MustRegister(counter)
			counter.Inc()
			app.gatherer = reg

			req := httptest.NewRequest("GET", "/metrics", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			rr := httptest.NewRecorder()
			app.MetricsHandler(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			if tc.wantStatus == http.StatusOK && !strings.Contains(rr.Body.String(), "test_metric_total 1") {
				t.Errorf("exposition missing metric:\n%s", rr.Body.String())
			}
		})
	}
}
