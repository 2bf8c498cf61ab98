package blocklist

import (
	"context"
	"log/slog"
	"time"
)

// Refresher periodically reloads a Store so that blocks written by other
// processes (the CLI, another server on the same redis) reach this one.
type Refresher struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRefresher returns a daemon refreshing store every interval. A zero
// interval gives a daemon that does nothing.
func NewRefresher(store *Store, interval time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{
		store:    store,
		interval: interval,
		logger:   logger.With("daemon_component", "BlocklistRefresher"),
	}
}

func (r *Refresher) Name() string {
	return "BlocklistRefresher"
}

func (r *Refresher) Start() error {
	if r.interval <= 0 {
		r.logger.Info("blocklist refresher disabled")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.store.Refresh(ctx); err != nil && ctx.Err() == nil {
					r.logger.Error("blocklist refresh failed", "error", err, "last_sync", r.store.SyncedAt())
				}
			}
		}
	}()
	r.logger.Info("blocklist refresher started", "interval", r.interval)
	return nil
}

func (r *Refresher) Stop(ctx context.Context) error {
	if r.cancel == nil {
		return nil
	}
	r.cancel()
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
