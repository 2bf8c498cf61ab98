// Package sentinel wires the visit log, the blocklist gate and the admin API
// into a runnable server.
package sentinel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prankvz/sentinel/blocklist"
	"github.com/prankvz/sentinel/cache/ristretto"
	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/core"
	"github.com/prankvz/sentinel/db"
	dbredis "github.com/prankvz/sentinel/db/redis"
	"github.com/prankvz/sentinel/db/zombiezen"
	"github.com/prankvz/sentinel/log"
	"github.com/prankvz/sentinel/migrations"
	"github.com/prankvz/sentinel/router"
	"github.com/prankvz/sentinel/router/httprouter"
	"github.com/prankvz/sentinel/server"
	"github.com/prankvz/sentinel/visitlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"zombiezen.com/go/sqlite/sqlitex"
)

const (
	dedupCacheLevel  = "small"
	redisDialTimeout = 5 * time.Second
	reloadTimeout    = 10 * time.Second
)

type initializer struct {
	configPath     string
	configProvider *config.Provider
	logger         *slog.Logger
	dbApp          db.DbApp
	pool           *sqlitex.Pool
	redisClient    *redis.Client
	router         router.Router
	registry       *prometheus.Registry

	blocklist *blocklist.Store
	daemons   []server.Daemon
	closers   []func() error
}

// New builds the App and a Server ready to Run. Components not supplied
// through options are built from the configuration: storage from
// Storage.Backend, an httprouter router, a fresh metrics registry and a
// console logger (plus the batch sink when Log.Batch is activated).
func New(opts ...Option) (*core.App, *server.Server, error) {
	i := &initializer{}
	for _, opt := range opts {
		opt(i)
	}

	app, srv, err := i.build()
	if err != nil {
		i.close()
		return nil, nil, err
	}
	return app, srv, nil
}

func (i *initializer) build() (*core.App, *server.Server, error) {
	if err := i.setupConfig(); err != nil {
		return nil, nil, err
	}
	cfg := i.configProvider.Get()

	if err := i.setupLogger(cfg); err != nil {
		return nil, nil, err
	}
	if err := i.setupDb(cfg); err != nil {
		return nil, nil, err
	}
	i.setupRegistry()
	i.setupDefaultRouter()

	visits, err := i.setupStores(cfg)
	if err != nil {
		return nil, nil, err
	}

	app, err := core.NewApp(
		core.WithStores(i.blocklist, visits),
		core.WithRouter(i.router),
		core.WithConfigProvider(i.configProvider),
		core.WithLogger(i.logger),
		core.WithGatherer(i.registry),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize core app: %w", err)
	}

	handler, err := route(cfg, app, i.registry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up routes: %w", err)
	}

	srv := server.NewServer(i.configProvider, handler, i.logger, i.reload)
	i.daemons = append(i.daemons, blocklist.NewRefresher(i.blocklist, cfg.BlockIp.RefreshInterval.Duration, i.logger))
	for _, d := range i.daemons {
		srv.AddDaemon(d)
	}
	for _, c := range i.closers {
		srv.AddCloser(c)
	}
	return app, srv, nil
}

func (i *initializer) setupConfig() error {
	if i.configProvider != nil {
		return nil
	}
	bootstrap := slog.New(log.NewConsoleHandler(config.LogFormatJson, os.Stderr, slog.LevelInfo))
	cfg, err := config.LoadFromFile(i.configPath, bootstrap)
	if err != nil {
		return err
	}
	i.configProvider = config.NewProvider(cfg)
	return nil
}

// setupLogger builds the console logger. With Log.Batch activated records
// are also sent to the log daemon, which writes them to their own database.
func (i *initializer) setupLogger(cfg *config.Config) error {
	if i.logger != nil {
		return nil
	}
	console := log.NewConsoleHandler(cfg.Log.Format, os.Stderr, cfg.Log.Level.Level)
	if !cfg.Log.Batch.Activated {
		i.logger = slog.New(console)
		return nil
	}

	path := cfg.Log.Batch.DbPath
	conn, err := zombiezen.NewConn(path)
	if err != nil {
		return err
	}
	err = zombiezen.ApplyMigrations(conn, migrations.Schema(), "log")
	conn.Close()
	if err != nil {
		return fmt.Errorf("failed to migrate log db %s: %w", path, err)
	}

	dbLog, err := zombiezen.NewLog(path)
	if err != nil {
		return err
	}
	i.closers = append(i.closers, dbLog.Close)

	daemon, err := log.New(i.configProvider, slog.New(console), dbLog)
	if err != nil {
		return err
	}
	recordChan, daemonCtx := daemon.Chan()
	i.logger = slog.New(log.Tee{console, log.NewBatchHandler(i.configProvider, recordChan, daemonCtx)})
	i.daemons = append(i.daemons, daemon)
	return nil
}

func (i *initializer) setupDb(cfg *config.Config) error {
	if i.dbApp != nil {
		return nil
	}

	// a supplied handle decides the backend
	backend := cfg.Storage.Backend
	if i.pool != nil {
		backend = config.BackendSqlite
	} else if i.redisClient != nil {
		backend = config.BackendRedis
	}

	switch backend {
	case config.BackendRedis:
		if i.redisClient == nil {
			ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
			defer cancel()
			client, err := dbredis.NewClient(ctx, cfg.Storage.RedisAddr, cfg.Storage.RedisPassword, cfg.Storage.RedisDB)
			if err != nil {
				return err
			}
			i.redisClient = client
			i.closers = append(i.closers, client.Close)
		}
		d, err := dbredis.New(i.redisClient, cfg.Storage.RedisKeyPrefix)
		if err != nil {
			return err
		}
		i.dbApp = d
		i.logger.Info("storage: redis", "addr", cfg.Storage.RedisAddr)

	default:
		if i.pool == nil {
			pool, err := NewZombiezenPool(cfg.Storage.SqlitePath, cfg.Storage.SqlitePoolSize)
			if err != nil {
				return err
			}
			i.pool = pool
			i.closers = append(i.closers, pool.Close)
		}
		if err := zombiezen.ApplyPoolMigrations(i.pool, migrations.Schema(), "app"); err != nil {
			return fmt.Errorf("failed to migrate app db: %w", err)
		}
		d, err := zombiezen.New(i.pool)
		if err != nil {
			return err
		}
		i.dbApp = d
		i.logger.Info("storage: sqlite", "path", cfg.Storage.SqlitePath)
	}
	return nil
}

func (i *initializer) setupRegistry() {
	if i.registry != nil {
		return
	}
	i.registry = prometheus.NewRegistry()
	i.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func (i *initializer) setupDefaultRouter() {
	if i.router != nil {
		return
	}
	i.router = httprouter.New(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			core.WriteJsonError(w, core.ErrorNotFound)
		}),
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			core.WriteJsonError(w, core.ErrorMethodNotAllowed)
		}),
	)
}

// setupStores builds the blocklist and the visit log. A failed first load is
// not fatal: the gate applies the fail policy and the refresher retries.
func (i *initializer) setupStores(cfg *config.Config) (*visitlog.Log, error) {
	i.blocklist = blocklist.New(i.dbApp, i.configProvider, i.logger)
	if err := i.blocklist.Refresh(context.Background()); err != nil {
		i.logger.Warn("blocklist: initial load failed", "err", err, "fail_policy", cfg.BlockIp.FailPolicy)
	}

	visits, err := visitlog.New(i.dbApp, i.configProvider, i.logger, i.registry)
	if err != nil {
		return nil, err
	}
	if cfg.Visits.DedupWindow.Duration > 0 {
		dedup, err := ristretto.New[string, struct{}](dedupCacheLevel)
		if err != nil {
			return nil, err
		}
		i.closers = append(i.closers, func() error { dedup.Close(); return nil })
		visits.WithDedup(dedup)
	}
	return visits, nil
}

// reload runs on SIGHUP: it re-reads the config file, when there is one, and
// refreshes the blocklist from storage.
func (i *initializer) reload() error {
	var errs []error
	if i.configPath != "" {
		if err := config.Reload(i.configPath, i.configProvider, i.logger)(); err != nil {
			errs = append(errs, err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()
	if err := i.blocklist.Refresh(ctx); err != nil {
		errs = append(errs, fmt.Errorf("blocklist refresh: %w", err))
	}
	return errors.Join(errs...)
}

// close releases what build opened when it fails halfway.
func (i *initializer) close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		_ = i.closers[j]()
	}
}
