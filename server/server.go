package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prankvz/sentinel/config"
	"golang.org/x/sync/errgroup"
)

// Daemon is a long running background component started before the HTTP
// server accepts requests and stopped during graceful shutdown.
type Daemon interface {
	Name() string
	Start() error
	Stop(ctx context.Context) error
}

type Server struct {
	configProvider *config.Provider
	handler        http.Handler
	logger         *slog.Logger
	reloadFunc     func() error

	daemons []Daemon
	closers []func() error

	// exitFunc terminates the process; tests replace it.
	exitFunc func(int)

	mu       sync.Mutex
	listener net.Listener
}

func NewServer(provider *config.Provider, handler http.Handler, logger *slog.Logger, reloadFunc func() error) *Server {
	return &Server{
		configProvider: provider,
		handler:        handler,
		logger:         logger,
		reloadFunc:     reloadFunc,
		exitFunc:       os.Exit,
	}
}

// AddDaemon registers d. Daemons start in registration order.
func (s *Server) AddDaemon(d Daemon) {
	s.daemons = append(s.daemons, d)
}

// AddCloser registers fn to run after the HTTP server and all daemons have
// stopped, in reverse registration order. Storage handles go here.
func (s *Server) AddCloser(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Handler is the root handler served by Run.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound listener address once Run is serving, nil before.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run starts daemons and the HTTP server and blocks until SIGINT or SIGTERM.
// SIGHUP calls the reload function and keeps serving. Run always ends by
// calling exitFunc.
func (s *Server) Run() {
	cfg := s.configProvider.Get().Server

	s.logger.Info("server configuration",
		"addr", cfg.Addr,
		"read_timeout", cfg.ReadTimeout.Duration,
		"read_header_timeout", cfg.ReadHeaderTimeout.Duration,
		"write_timeout", cfg.WriteTimeout.Duration,
		"idle_timeout", cfg.IdleTimeout.Duration,
		"shutdown_timeout", cfg.ShutdownGracefulTimeout.Duration,
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadTimeout:       cfg.ReadTimeout.Duration,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout.Duration,
		WriteTimeout:      cfg.WriteTimeout.Duration,
		IdleTimeout:       cfg.IdleTimeout.Duration,
	}

	// Register signals before anything starts so none is lost.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	started := make([]Daemon, 0, len(s.daemons))
	for _, d := range s.daemons {
		s.logger.Info("starting daemon", "name", d.Name())
		if err := d.Start(); err != nil {
			s.logger.Error("daemon failed to start", "name", d.Name(), "err", err)
			s.stopDaemons(started, cfg.ShutdownGracefulTimeout.Duration)
			s.runClosers()
			s.exitFunc(1)
			return
		}
		started = append(started, d)
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		s.logger.Error("listen failed", "addr", cfg.Addr, "err", err)
		s.stopDaemons(started, cfg.ShutdownGracefulTimeout.Duration)
		s.runClosers()
		s.exitFunc(1)
		return
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	serverError := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve error", "err", err)
			serverError <- err
		}
	}()

	exitCode := 0
wait:
	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				s.logger.Info("received SIGHUP, reloading")
				if err := s.reloadFunc(); err != nil {
					s.logger.Error("reload failed", "err", err)
				}
				continue
			}
			s.logger.Info("received shutdown signal, shutting down gracefully", "signal", sig.String())
			break wait
		case err := <-serverError:
			s.logger.Error("server error, initiating shutdown", "err", err)
			exitCode = 1
			break wait
		}
	}

	timeout := s.configProvider.Get().Server.ShutdownGracefulTimeout.Duration
	gracefulCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	shutdownGroup, _ := errgroup.WithContext(gracefulCtx)
	shutdownGroup.Go(func() error {
		if err := srv.Shutdown(gracefulCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "err", err)
			return err
		}
		s.logger.Info("HTTP server stopped gracefully")
		return nil
	})
	for _, d := range started {
		shutdownGroup.Go(func() error {
			if err := d.Stop(gracefulCtx); err != nil {
				s.logger.Error("daemon shutdown error", "name", d.Name(), "err", err)
				return err
			}
			s.logger.Info("daemon stopped", "name", d.Name())
			return nil
		})
	}

	if err := shutdownGroup.Wait(); err != nil {
		s.logger.Error("error during shutdown", "err", err)
		exitCode = 1
	}

	if err := s.runClosers(); err != nil {
		exitCode = 1
	}

	if exitCode == 0 {
		s.logger.Info("all systems stopped gracefully")
	}
	s.exitFunc(exitCode)
}

// stopDaemons stops daemons in reverse start order.
func (s *Server) stopDaemons(daemons []Daemon, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for i := len(daemons) - 1; i >= 0; i-- {
		if err := daemons[i].Stop(ctx); err != nil {
			s.logger.Error("daemon stop failed", "name", daemons[i].Name(), "err", err)
		}
	}
}

// Close runs the registered closers. It is for callers that never Run the
// server; Run closes them itself on shutdown.
func (s *Server) Close() error {
	return s.runClosers()
}

func (s *Server) runClosers() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Error("close failed", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
