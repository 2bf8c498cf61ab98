package core

import (
	"net/http"
	"net/netip"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the prometheus exposition to allowed addresses.
// Other callers, and every caller while metrics are off, get a 404 so the
// endpoint is not advertised.
// Endpoint: GET /metrics
// Authenticated: No
func (a *App) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	cfg := a.Config().Metrics
	if !cfg.Activated {
		WriteJsonError(w, ErrorNotFound)
		return
	}

	// RemoteAddr only: a forwarded header must not open the endpoint.
	clientIP, err := netip.ParseAddr(ClientIP(r, ""))
	if err != nil {
		WriteJsonError(w, ErrorNotFound)
		return
	}
	clientIP = clientIP.Unmap()

	allowed := false
	for _, s := range cfg.AllowedIPs {
		if ip, err := netip.ParseAddr(s); err == nil && ip.Unmap() == clientIP {
			allowed = true
			break
		}
	}
	if !allowed {
		WriteJsonError(w, ErrorNotFound)
		return
	}

	promhttp.HandlerFor(a.Gatherer(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
