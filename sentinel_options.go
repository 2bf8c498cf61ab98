package sentinel

import (
	"log/slog"

	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/db"
	"github.com/prankvz/sentinel/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"zombiezen.com/go/sqlite/sqlitex"
)

type Option func(*initializer)

// WithConfigPath sets the TOML file read at startup and on SIGHUP.
func WithConfigPath(path string) Option {
	return func(i *initializer) {
		i.configPath = path
	}
}

// WithConfigProvider uses an already loaded configuration. SIGHUP then only
// refreshes the blocklist unless a config path is also given.
func WithConfigProvider(p *config.Provider) Option {
	return func(i *initializer) {
		i.configProvider = p
	}
}

// WithLogger sets the logger. A custom logger disables the batch log sink.
func WithLogger(l *slog.Logger) Option {
	return func(i *initializer) {
		i.logger = l
	}
}

// WithDbApp sets the storage implementation, bypassing Storage.Backend.
func WithDbApp(dbApp db.DbApp) Option {
	return func(i *initializer) {
		if dbApp == nil {
			panic("DbApp cannot be nil")
		}
		i.dbApp = dbApp
	}
}

// WithZombiezenPool stores data in an existing pool. The caller owns the pool.
func WithZombiezenPool(pool *sqlitex.Pool) Option {
	return func(i *initializer) {
		i.pool = pool
	}
}

// WithRedisClient stores data through an existing client. The caller owns
// the client.
func WithRedisClient(client *redis.Client) Option {
	return func(i *initializer) {
		i.redisClient = client
	}
}

// WithRouter sets the router implementation
func WithRouter(r router.Router) Option {
	return func(i *initializer) {
		i.router = r
	}
}

// WithRegistry sets the registry metrics are registered with and served from.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(i *initializer) {
		i.registry = reg
	}
}
