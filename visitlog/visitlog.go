// Package visitlog records page visits. Appends are best effort: a visit that
// cannot be persisted is reported and dropped, never surfaced to the visitor.
package visitlog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prankvz/sentinel/cache"
	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/db"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

const (
	failureMetricName = "sentinel_visit_append_failures_total"
	failureMetricHelp = "Total number of visits that could not be persisted."
)

type Log struct {
	db             db.DbVisit
	configProvider *config.Provider
	logger         *slog.Logger

	// dedup holds recently seen ip/user-agent pairs. Nil disables de-duplication.
	dedup cache.Cache[string, struct{}]

	failures      prometheus.Counter
	reportLimiter *rate.Limiter

	now func() time.Time
}

// New returns a visit log writing to store. Failures are counted on a counter
// registered with reg; a nil reg uses prometheus.DefaultRegisterer.
func New(store db.DbVisit, configProvider *config.Provider, logger *slog.Logger, reg prometheus.Registerer) (*Log, error) {
	if store == nil {
		return nil, fmt.Errorf("visitlog: nil store")
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: failureMetricName,
		Help: failureMetricHelp,
	})
	if err := reg.Register(failures); err != nil {
		return nil, fmt.Errorf("visitlog: register failure counter: %w", err)
	}

	interval := configProvider.Get().Visits.FailureReportInterval.Duration
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &Log{
		db:             store,
		configProvider: configProvider,
		logger:         logger,
		failures:       failures,
		reportLimiter:  rate.NewLimiter(limit, 1),
		now:            time.Now,
	}, nil
}

// WithDedup enables the de-duplication window backed by c.
func (l *Log) WithDedup(c cache.Cache[string, struct{}]) *Log {
	l.dedup = c
	return l
}

// Append records a visit from ip with userAgent. Only validation failures are
// returned; persistence errors are logged (rate limited) and counted.
func (l *Log) Append(ctx context.Context, ip, userAgent string) error {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return fmt.Errorf("%w: empty ip", db.ErrInvalidInput)
	}
	if strings.TrimSpace(userAgent) == "" {
		return fmt.Errorf("%w: empty user agent", db.ErrInvalidInput)
	}

	cfg := l.configProvider.Get().Visits
	if max := cfg.UserAgentMaxLength; max > 0 && len(userAgent) > max {
		userAgent = truncate(userAgent, max)
	}

	window := cfg.DedupWindow.Duration
	dedup := window > 0 && l.dedup != nil
	key := ip + "\x00" + userAgent
	if dedup {
		if _, seen := l.dedup.Get(key); seen {
			return nil
		}
	}

	v := db.Visit{IP: ip, UserAgent: userAgent, Timestamp: l.now().UTC()}
	if _, err := l.db.InsertVisit(ctx, v); err != nil {
		l.failures.Inc()
		if l.reportLimiter.Allow() {
			l.logger.Error("visitlog: failed to record visit", "ip", ip, "error", err)
		}
		return nil
	}
	// only recorded visits open a window, a failed one may be retried
	if dedup {
		l.dedup.SetWithTTL(key, struct{}{}, 1, window)
	}
	return nil
}

// Recent returns up to limit visits, newest first. A non-positive limit
// returns an empty slice without touching storage.
func (l *Log) Recent(ctx context.Context, limit int) ([]db.Visit, error) {
	if limit <= 0 {
		return []db.Visit{}, nil
	}
	visits, err := l.db.RecentVisits(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("visitlog recent: %w", err)
	}
	if visits == nil {
		visits = []db.Visit{}
	}
	return visits, nil
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	cut := max
	for cut > 0 && cut < len(s) && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
