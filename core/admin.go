package core

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/db"
)

// ErrForbidden is returned by Admin when the caller is not an authorized operator.
var ErrForbidden = errors.New("forbidden")

// Authorization is the outcome of authenticating a caller. It is produced by
// an Authenticator and never derived from client supplied flags.
type Authorization struct {
	Authorized bool
	// Subject is the operator name when Authorized.
	Subject string
}

// Admin exposes the operator operations. Every method checks authz before
// touching a store.
type Admin struct {
	blocklist      Blocklist
	visits         VisitLog
	configProvider *config.Provider
	logger         *slog.Logger
}

func NewAdmin(b Blocklist, v VisitLog, provider *config.Provider, logger *slog.Logger) *Admin {
	return &Admin{
		blocklist:      b,
		visits:         v,
		configProvider: provider,
		logger:         logger,
	}
}

// ListVisits returns the most recent visits, newest first, up to
// Visits.RecentLimit.
func (ad *Admin) ListVisits(ctx context.Context, authz Authorization) ([]db.Visit, error) {
	if !authz.Authorized {
		return nil, ErrForbidden
	}
	return ad.visits.Recent(ctx, ad.configProvider.Get().Visits.RecentLimit)
}

func (ad *Admin) ListBlockedIps(ctx context.Context, authz Authorization) ([]string, error) {
	if !authz.Authorized {
		return nil, ErrForbidden
	}
	return ad.blocklist.List()
}

func (ad *Admin) BlockIp(ctx context.Context, authz Authorization, address, reason string) error {
	if !authz.Authorized {
		return ErrForbidden
	}
	if err := ad.blocklist.Add(ctx, address, reason); err != nil {
		return err
	}
	ad.logger.Info("admin: ip blocked", "operator", authz.Subject, "ip", address)
	return nil
}

func (ad *Admin) UnblockIp(ctx context.Context, authz Authorization, address string) error {
	if !authz.Authorized {
		return ErrForbidden
	}
	if err := ad.blocklist.Remove(ctx, address); err != nil {
		return err
	}
	ad.logger.Info("admin: ip unblocked", "operator", authz.Subject, "ip", address)
	return nil
}
