package core

import (
	"net/http"
	"time"
)

// HealthHandler reports liveness. It is exempt from the access gate.
// Endpoint: GET /api/health
// Authenticated: No
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonWithData(w, NewJsonWithData(http.StatusOK, CodeOkHealth, "Service is healthy", map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}))
}

// NotFoundHandler answers unknown routes.
func (a *App) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJsonError(w, ErrorNotFound)
}

// MethodNotAllowedHandler answers known routes called with the wrong method.
func (a *App) MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	WriteJsonError(w, ErrorMethodNotAllowed)
}
