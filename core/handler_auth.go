package core

import (
	"net/http"

	"github.com/prankvz/sentinel/crypto"
)

// AuthData is the payload of a successful operator login.
type AuthData struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// AuthWithPasswordHandler exchanges the operator credential for an access token.
// Endpoint: POST /api/auth-with-password
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) AuthWithPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identity string `json:"identity"`
		Password string `json:"password"`
	}
	if resp, err := a.decodeJson(w, r, &req); err != nil {
		WriteJsonError(w, resp)
		return
	}
	if req.Identity == "" || req.Password == "" {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	cfg := a.Config()
	if cfg.Admin.PasswordHash == "" {
		a.Logger().Warn("operator login attempted but no password hash is configured", "ip", a.ClientIP(r))
		WriteJsonError(w, errorInvalidCredentials)
		return
	}

	// bcrypt runs even for a wrong identity so both failures take the same time
	passwordOk := crypto.CheckPassword(req.Password, cfg.Admin.PasswordHash)
	if req.Identity != cfg.Admin.Username || !passwordOk {
		a.Logger().Info("operator login failed", "ip", a.ClientIP(r))
		WriteJsonError(w, errorInvalidCredentials)
		return
	}

	signingKey, err := operatorSigningKey(cfg)
	if err != nil {
		a.Logger().Error("failed to derive signing key", "error", err)
		WriteJsonError(w, errorTokenGeneration)
		return
	}
	duration := cfg.Jwt.AuthTokenDuration.Duration
	token, _, err := crypto.NewOperatorJwt(cfg.Admin.Username, signingKey, duration)
	if err != nil {
		a.Logger().Error("failed to sign operator token", "error", err)
		WriteJsonError(w, errorTokenGeneration)
		return
	}

	writeJsonWithData(w, NewJsonWithData(http.StatusOK, CodeOkAuthentication, "Authentication successful", AuthData{
		TokenType:   "Bearer",
		AccessToken: token,
		ExpiresIn:   int(duration.Seconds()),
	}))
}
