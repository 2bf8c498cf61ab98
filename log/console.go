package log

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	charmlog "github.com/charmbracelet/log"
	phuslog "github.com/phuslu/log"

	"github.com/prankvz/sentinel/config"
)

// NewConsoleHandler returns the operator facing handler for format: phuslu's
// JSON handler for "json", charmbracelet's human readable one for "text".
func NewConsoleHandler(format string, w io.Writer, level slog.Level) slog.Handler {
	if format == config.LogFormatText {
		return charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(level),
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
		})
	}
	return phuslog.SlogNewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// Tee fans records out to every handler that accepts their level.
type Tee []slog.Handler

func (t Tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes each handler its own copy of r. A failing handler does not
// stop the others; the errors are joined.
func (t Tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t Tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(Tee, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t Tee) WithGroup(name string) slog.Handler {
	out := make(Tee, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
