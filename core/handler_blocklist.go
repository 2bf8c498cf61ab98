package core

import (
	"errors"
	"net/http"

	"github.com/prankvz/sentinel/db"
)

// ListBlockedIpsHandler returns the blocked addresses in ascending order.
// Endpoint: GET /api/blocked-ips
// Authenticated: Operator
func (a *App) ListBlockedIpsHandler(w http.ResponseWriter, r *http.Request) {
	ips, err := a.Admin().ListBlockedIps(r.Context(), a.authorize(r))
	if err != nil {
		a.writeAdminError(w, r, "list blocked ips", err)
		return
	}
	if ips == nil {
		ips = []string{}
	}
	writeJsonWithData(w, NewJsonWithData(http.StatusOK, CodeOkBlockedIpsList, "Blocked IP addresses", ips))
}

// BlockIpHandler blocks an address. Blocking an already blocked address
// succeeds.
// Endpoint: POST /api/block-ip
// Authenticated: Operator
// Allowed Mimetype: application/json
func (a *App) BlockIpHandler(w http.ResponseWriter, r *http.Request) {
	authz := a.authorize(r)
	if !authz.Authorized {
		WriteJsonError(w, errorForbidden)
		return
	}

	var req struct {
		Ip     string `json:"ip"`
		Reason string `json:"reason"`
	}
	if resp, err := a.decodeJson(w, r, &req); err != nil {
		WriteJsonError(w, resp)
		return
	}

	if err := a.Admin().BlockIp(r.Context(), authz, req.Ip, req.Reason); err != nil {
		a.writeAdminError(w, r, "block ip", err)
		return
	}
	WriteJsonOk(w, okIpBlocked)
}

// UnblockIpHandler removes an address from the blocklist. Unblocking an
// address that is not blocked succeeds.
// Endpoint: POST /api/unblock-ip
// Authenticated: Operator
// Allowed Mimetype: application/json
func (a *App) UnblockIpHandler(w http.ResponseWriter, r *http.Request) {
	authz := a.authorize(r)
	if !authz.Authorized {
		WriteJsonError(w, errorForbidden)
		return
	}

	var req struct {
		Ip string `json:"ip"`
	}
	if resp, err := a.decodeJson(w, r, &req); err != nil {
		WriteJsonError(w, resp)
		return
	}

	if err := a.Admin().UnblockIp(r.Context(), authz, req.Ip); err != nil {
		a.writeAdminError(w, r, "unblock ip", err)
		return
	}
	WriteJsonOk(w, okIpUnblocked)
}

// authorize authenticates the caller. Failures yield an unauthorized value;
// the reason is only logged.
func (a *App) authorize(r *http.Request) Authorization {
	authz, err := a.Auth().Authenticate(r)
	if err != nil {
		a.Logger().Debug("operator authentication failed", "ip", a.ClientIP(r), "error", err)
		return Authorization{}
	}
	return authz
}

func (a *App) writeAdminError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrForbidden), errors.Is(err, db.ErrInvalidInput):
	default:
		a.Logger().Error("admin operation failed", "op", op, "error", err)
	}
	WriteJsonError(w, errorResponse(err))
}
