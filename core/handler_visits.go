package core

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/prankvz/sentinel/blocklist"
	"github.com/prankvz/sentinel/db"
)

// LogVisitHandler records a visit from the caller. The address is taken from
// the connection (or the trusted proxy header), never from the body.
// Endpoint: POST /api/log-visit
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) LogVisitHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserAgent string `json:"user_agent"`
	}
	if resp, err := a.decodeJson(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		WriteJsonError(w, resp)
		return
	}

	userAgent := req.UserAgent
	if strings.TrimSpace(userAgent) == "" {
		userAgent = r.UserAgent()
	}

	ip := a.ClientIP(r)
	if normalized, err := blocklist.Normalize(ip); err == nil {
		ip = normalized
	}

	if err := a.VisitLog().Append(r.Context(), ip, userAgent); err != nil {
		WriteJsonError(w, errorResponse(err))
		return
	}

	writeJsonWithData(w, NewJsonWithData(http.StatusOK, CodeOkVisitLogged, "Visit logged successfully", map[string]string{
		"ip": ip,
	}))
}

// ListVisitsHandler returns the most recent visits, newest first.
// Endpoint: GET /api/visits
// Authenticated: Operator
func (a *App) ListVisitsHandler(w http.ResponseWriter, r *http.Request) {
	visits, err := a.Admin().ListVisits(r.Context(), a.authorize(r))
	if err != nil {
		a.writeAdminError(w, r, "list visits", err)
		return
	}
	if visits == nil {
		visits = []db.Visit{}
	}
	writeJsonWithData(w, NewJsonWithData(http.StatusOK, CodeOkVisitsList, "Recent visits", visits))
}
