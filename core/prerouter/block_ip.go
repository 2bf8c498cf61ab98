package prerouter

import (
	"errors"
	"net/http"
	"slices"

	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/core"
	"github.com/prankvz/sentinel/db"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Gate decision label values.
const (
	DecisionAllowed     = "allowed"
	DecisionDenied      = "denied"
	DecisionExempt      = "exempt"
	DecisionErrorOpen   = "error_open"
	DecisionErrorClosed = "error_closed"
)

// BlockIp is the access gate. It rejects callers whose address is on the
// blocklist before the router runs, so denied requests never reach a
// handler and no visit is recorded for them.
type BlockIp struct {
	app       *core.App
	decisions *prometheus.CounterVec

	// failures are logged at most once per second
	reportLimiter *rate.Limiter
}

// NewBlockIp registers sentinel_gate_decisions_total with reg.
func NewBlockIp(app *core.App, reg prometheus.Registerer) (*BlockIp, error) {
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_gate_decisions_total",
		Help: "Access gate outcomes, labeled by decision.",
	}, []string{"decision"})
	if err := reg.Register(decisions); err != nil {
		return nil, err
	}
	return &BlockIp{
		app:           app,
		decisions:     decisions,
		reportLimiter: rate.NewLimiter(rate.Limit(1), 1),
	}, nil
}

func (b *BlockIp) Execute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := b.app.Config()
		if !cfg.BlockIp.Activated {
			next.ServeHTTP(w, r)
			return
		}
		if slices.Contains(cfg.BlockIp.ExemptPaths, r.URL.Path) {
			b.decisions.WithLabelValues(DecisionExempt).Inc()
			next.ServeHTTP(w, r)
			return
		}

		ip := b.app.ClientIP(r)
		blocked, err := b.app.Blocklist().Contains(ip)
		switch {
		case errors.Is(err, db.ErrInvalidInput):
			// an unparsable caller address can not be on the list
			b.app.Logger().Debug("blockip: unparsable client address", "ip", ip)
		case err != nil:
			if cfg.BlockIp.FailPolicy == config.FailPolicyOpen {
				b.decisions.WithLabelValues(DecisionErrorOpen).Inc()
				b.report(err, ip, config.FailPolicyOpen)
				next.ServeHTTP(w, r)
				return
			}
			b.decisions.WithLabelValues(DecisionErrorClosed).Inc()
			b.report(err, ip, config.FailPolicyClosed)
			core.WriteJsonError(w, core.ErrorBlocklistUnavailable)
			return
		case blocked:
			b.decisions.WithLabelValues(DecisionDenied).Inc()
			core.WriteJsonError(w, core.ErrorIpBlocked)
			return
		}

		b.decisions.WithLabelValues(DecisionAllowed).Inc()
		next.ServeHTTP(w, r)
	})
}

func (b *BlockIp) report(err error, ip, policy string) {
	if b.reportLimiter.Allow() {
		b.app.Logger().Error("blockip: blocklist check failed", "err", err, "ip", ip, "fail_policy", policy)
	}
}
