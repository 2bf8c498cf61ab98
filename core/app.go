package core

import (
	"context"
	"log/slog"

	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/db"
	"github.com/prankvz/sentinel/router"
	"github.com/prometheus/client_golang/prometheus"
)

// Blocklist is the view of the blocklist store the handlers and the gate need.
type Blocklist interface {
	Add(ctx context.Context, address, reason string) error
	Remove(ctx context.Context, address string) error
	Contains(address string) (bool, error)
	List() ([]string, error)
}

// VisitLog is the view of the visit log the handlers need.
type VisitLog interface {
	Append(ctx context.Context, ip, userAgent string) error
	Recent(ctx context.Context, limit int) ([]db.Visit, error)
}

// App carries the long lived components shared by handlers and prerouter
// middlewares. Handlers are methods on App.
type App struct {
	blocklist      Blocklist
	visits         VisitLog
	admin          *Admin
	router         router.Router
	configProvider *config.Provider
	logger         *slog.Logger
	authenticator  Authenticator
	validator      Validator
	gatherer       prometheus.Gatherer
}

func (a *App) Router() router.Router {
	return a.router
}

func (a *App) SetRouter(r router.Router) {
	a.router = r
}

func (a *App) Blocklist() Blocklist {
	return a.blocklist
}

func (a *App) VisitLog() VisitLog {
	return a.visits
}

// Admin returns the operator facade over the blocklist and the visit log.
func (a *App) Admin() *Admin {
	return a.admin
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) SetLogger(l *slog.Logger) {
	a.logger = l
}

func (a *App) Config() *config.Config {
	return a.configProvider.Get()
}

func (a *App) SetConfigProvider(provider *config.Provider) {
	a.configProvider = provider
}

func (a *App) Auth() Authenticator {
	return a.authenticator
}

func (a *App) SetAuthenticator(auth Authenticator) {
	a.authenticator = auth
}

func (a *App) Validator() Validator {
	return a.validator
}

func (a *App) SetValidator(v Validator) {
	a.validator = v
}

// Gatherer is the registry served on the metrics endpoint.
func (a *App) Gatherer() prometheus.Gatherer {
	return a.gatherer
}
