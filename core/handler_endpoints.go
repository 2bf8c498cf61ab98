package core

import (
	"net/http"
)

// ListEndpointsHandler lets clients discover the configured routes.
// Endpoint: GET /api/list-endpoints
// Authenticated: No
func (a *App) ListEndpointsHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonWithData(w, NewJsonWithData(http.StatusOK, CodeOkEndpointsList, "List of available endpoints", a.Config().Endpoints.All()))
}
