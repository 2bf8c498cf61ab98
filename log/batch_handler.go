package log

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prankvz/sentinel/config"
)

var (
	ErrDaemonShuttingDown = errors.New("log daemon shutting down, dropping record")
	ErrChannelFull        = errors.New("log channel full, dropping record")
)

// BatchHandler is a lightweight slog.Handler that hands records to the Daemon
// through a buffered channel. It never blocks the caller: when the channel is
// full or the daemon is stopping the record is dropped and an error returned.
type BatchHandler struct {
	configProvider *config.Provider   // For dynamic log levels
	recordChan     chan<- slog.Record // Write-end of the channel, provided by Daemon
	daemonCtx      context.Context    // Context from daemon for shutdown detection
	attrs          []slog.Attr
	groups         []string
}

// NewBatchHandler panics if any argument is nil.
func NewBatchHandler(configProvider *config.Provider, recordChan chan<- slog.Record, daemonCtx context.Context) *BatchHandler {
	if configProvider == nil {
		panic("batchhandler: configProvider cannot be nil")
	}
	if recordChan == nil {
		panic("batchhandler: recordChan cannot be nil")
	}
	if daemonCtx == nil {
		panic("batchhandler: daemonCtx cannot be nil")
	}
	return &BatchHandler{
		configProvider: configProvider,
		recordChan:     recordChan,
		daemonCtx:      daemonCtx,
	}
}

// Enabled reads the level from the current config, so a reload takes effect
// without rebuilding the logger.
func (h *BatchHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.configProvider.Get().Log.Batch.Level.Level
}

// Handle checks for shutdown before attempting the send: a select over both
// cases would pick one at random.
func (h *BatchHandler) Handle(_ context.Context, r slog.Record) error {
	if h.daemonCtx.Err() != nil {
		return ErrDaemonShuttingDown
	}

	if len(h.attrs) > 0 || len(h.groups) > 0 {
		out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
		out.AddAttrs(h.attrs...)
		var own []slog.Attr
		r.Attrs(func(a slog.Attr) bool {
			own = append(own, a)
			return true
		})
		out.AddAttrs(nest(h.groups, own)...)
		r = out
	}

	select {
	case h.recordChan <- r:
		return nil
	default:
		return ErrChannelFull
	}
}

func (h *BatchHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	h2.attrs = append(h2.attrs, nest(h.groups, attrs)...)
	return h2
}

func (h *BatchHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

func (h *BatchHandler) clone() *BatchHandler {
	return &BatchHandler{
		configProvider: h.configProvider,
		recordChan:     h.recordChan,
		daemonCtx:      h.daemonCtx,
		attrs:          append([]slog.Attr(nil), h.attrs...),
		groups:         append([]string(nil), h.groups...),
	}
}

// nest wraps attrs in the open groups, innermost last.
func nest(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(attrs) == 0 {
		return nil
	}
	for i := len(groups) - 1; i >= 0; i-- {
		args := make([]any, len(attrs))
		for j, a := range attrs {
			args[j] = a
		}
		attrs = []slog.Attr{slog.Group(groups[i], args...)}
	}
	return attrs
}
