package core

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/prankvz/sentinel/blocklist"
	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/db/mock"
	"github.com/prankvz/sentinel/router"
	"github.com/prankvz/sentinel/visitlog"
	"github.com/prometheus/client_golang/prometheus"
)

// MockAuth implements Authenticator for testing.
type MockAuth struct {
	AuthenticateFunc func(r *http.Request) (Authorization, error)
}

func (m *MockAuth) Authenticate(r *http.Request) (Authorization, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(r)
	}
	return Authorization{}, ErrNoAuthHeader
}

// operatorAuth authorizes every request.
var operatorAuth = &MockAuth{
	AuthenticateFunc: func(r *http.Request) (Authorization, error) {
		return Authorization{Authorized: true, Subject: "admin"}, nil
	},
}

// MockValidator implements Validator for testing.
type MockValidator struct {
	ContentTypeFunc func(r *http.Request, allowedType string) (jsonResponse, error)
}

func (m *MockValidator) ContentType(r *http.Request, allowedType string) (jsonResponse, error) {
	return m.ContentTypeFunc(r, allowedType)
}

// MockRouter implements router.Router for testing.
type MockRouter struct{}

func (m *MockRouter) Handle(pattern string, handler http.Handler)      {}
func (m *MockRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {}
func (m *MockRouter) Register(chains router.Chains)                    {}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestApp wires a real blocklist and visit log over mockDb. The blocklist
// is loaded before returning.
func newTestApp(t *testing.T, mockDb *mock.Db, cfg *config.Config, auth Authenticator) *App {
	t.Helper()
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	provider := config.NewProvider(cfg)
	logger := newTestLogger()

	store := blocklist.New(mockDb, provider, logger)
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("blocklist refresh failed: %v", err)
	}
	reg := prometheus.NewRegistry()
	visits, err := visitlog.New(mockDb, provider, logger, reg)
	if err != nil {
		t.Fatalf("visitlog.New failed: %v", err)
	}

	app, err := NewApp(
		WithStores(store, visits),
		WithRouter(&MockRouter{}),
		WithConfigProvider(provider),
		WithLogger(logger),
		WithAuthenticator(auth),
		WithGatherer(reg),
	)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}
