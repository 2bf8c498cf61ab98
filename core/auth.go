package core

import (
	"errors"
	"net/http"
	"strings"

	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/crypto"
)

var (
	ErrNoAuthHeader       = errors.New("authorization header is required")
	ErrInvalidTokenFormat = errors.New("invalid authorization token format")
	// ErrLoginDisabled is returned when no operator password hash is configured.
	ErrLoginDisabled = errors.New("operator login is disabled")
)

// Authenticator turns a request into an Authorization. On failure the
// returned Authorization is unauthorized and the error tells why.
type Authenticator interface {
	Authenticate(r *http.Request) (Authorization, error)
}

// DefaultAuthenticator verifies operator bearer tokens against a signing key
// derived from the configured credential.
type DefaultAuthenticator struct {
	configProvider *config.Provider
}

func NewDefaultAuthenticator(configProvider *config.Provider) *DefaultAuthenticator {
	return &DefaultAuthenticator{configProvider: configProvider}
}

func (a *DefaultAuthenticator) Authenticate(r *http.Request) (Authorization, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return Authorization{}, ErrNoAuthHeader
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return Authorization{}, ErrInvalidTokenFormat
	}

	cfg := a.configProvider.Get()
	if cfg.Admin.PasswordHash == "" {
		return Authorization{}, ErrLoginDisabled
	}

	signingKey, err := operatorSigningKey(cfg)
	if err != nil {
		return Authorization{}, err
	}

	claims, err := crypto.ParseOperatorJwt(tokenString, signingKey)
	if err != nil {
		return Authorization{}, err
	}

	// The key already binds the username; this guards against a rename that
	// keeps the same hash.
	if claims.Subject != cfg.Admin.Username {
		return Authorization{}, crypto.ErrJwtInvalidToken
	}

	return Authorization{Authorized: true, Subject: claims.Subject}, nil
}

func operatorSigningKey(cfg *config.Config) ([]byte, error) {
	return crypto.NewJwtSigningKeyWithCredentials(cfg.Admin.Username, cfg.Admin.PasswordHash, []byte(cfg.Jwt.AuthSecret))
}
