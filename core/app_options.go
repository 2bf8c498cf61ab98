package core

import (
	"fmt"
	"log/slog"

	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/router"
	"github.com/prometheus/client_golang/prometheus"
)

type Option func(*App)

// WithStores sets the blocklist and the visit log.
func WithStores(b Blocklist, v VisitLog) Option {
	return func(a *App) {
		a.blocklist = b
		a.visits = v
	}
}

func WithRouter(r router.Router) Option {
	return func(a *App) {
		a.router = r
	}
}

func WithConfigProvider(p *config.Provider) Option {
	return func(a *App) {
		a.configProvider = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

func WithAuthenticator(auth Authenticator) Option {
	return func(a *App) {
		a.authenticator = auth
	}
}

func WithValidator(v Validator) Option {
	return func(a *App) {
		a.validator = v
	}
}

// WithGatherer sets the registry exposed on the metrics endpoint.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(a *App) {
		a.gatherer = g
	}
}

// NewApp builds an App. Stores, router, config provider and logger are
// required; the authenticator and validator default to the package ones.
func NewApp(opts ...Option) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}

	if a.blocklist == nil || a.visits == nil {
		return nil, fmt.Errorf("blocklist and visit log are required (use WithStores)")
	}
	if a.router == nil {
		return nil, fmt.Errorf("router is required (use WithRouter)")
	}
	if a.configProvider == nil {
		return nil, fmt.Errorf("config provider is required (use WithConfigProvider)")
	}
	if a.logger == nil {
		return nil, fmt.Errorf("logger is required (use WithLogger)")
	}

	if a.authenticator == nil {
		a.authenticator = NewDefaultAuthenticator(a.configProvider)
	}
	if a.validator == nil {
		a.validator = NewValidator()
	}
	if a.gatherer == nil {
		a.gatherer = prometheus.DefaultGatherer
	}
	a.admin = NewAdmin(a.blocklist, a.visits, a.configProvider, a.logger)

	return a, nil
}
