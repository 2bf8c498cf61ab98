package sentinel

import (
	"net/http"

	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/core"
	"github.com/prankvz/sentinel/core/prerouter"
	"github.com/prankvz/sentinel/router"
	"github.com/prometheus/client_golang/prometheus"
)

// route registers the endpoints on the app router and returns the handler
// for the server: recorder, request log, metrics and the access gate, in
// that order, wrapped around the router.
func route(cfg *config.Config, ap *core.App, reg prometheus.Registerer) (http.Handler, error) {
	ep := cfg.Endpoints
	chains := router.Chains{
		ep.Health:           router.NewChain(http.HandlerFunc(ap.HealthHandler)),
		ep.ListEndpoints:    router.NewChain(http.HandlerFunc(ap.ListEndpointsHandler)),
		ep.LogVisit:         router.NewChain(http.HandlerFunc(ap.LogVisitHandler)),
		ep.ListVisits:       router.NewChain(http.HandlerFunc(ap.ListVisitsHandler)),
		ep.ListBlockedIps:   router.NewChain(http.HandlerFunc(ap.ListBlockedIpsHandler)),
		ep.BlockIp:          router.NewChain(http.HandlerFunc(ap.BlockIpHandler)),
		ep.UnblockIp:        router.NewChain(http.HandlerFunc(ap.UnblockIpHandler)),
		ep.AuthWithPassword: router.NewChain(http.HandlerFunc(ap.AuthWithPasswordHandler)),
	}
	if cfg.Metrics.Activated && cfg.Metrics.Endpoint != "" {
		chains["GET "+cfg.Metrics.Endpoint] = router.NewChain(http.HandlerFunc(ap.MetricsHandler))
	}
	ap.Router().Register(chains)

	metrics, err := prerouter.NewMetrics(ap, reg)
	if err != nil {
		return nil, err
	}
	gate, err := prerouter.NewBlockIp(ap, reg)
	if err != nil {
		return nil, err
	}

	return router.NewChain(ap.Router()).WithMiddleware(
		prerouter.NewRecorder().Execute,
		prerouter.NewRequestLog(ap).Execute,
		metrics.Execute,
		gate.Execute,
	).Handler(), nil
}
