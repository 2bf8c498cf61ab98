package prerouter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/prankvz/sentinel/blocklist"
	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/core"
	"github.com/prankvz/sentinel/db/mock"
	"github.com/prankvz/sentinel/router/servemux"
	"github.com/prankvz/sentinel/visitlog"
	"github.com/prometheus/client_golang/prometheus"
)

// memoryHandler is a custom slog.Handler that writes JSON records to an in-memory buffer
// and allows for easy inspection of the last logged record.
type memoryHandler struct {
	b *bytes.Buffer
	h slog.Handler
}

func newMemoryHandler(b *bytes.Buffer) *memoryHandler {
	return &memoryHandler{
		b: b,
		h: slog.NewJSONHandler(b, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}
}

func (h *memoryHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *memoryHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.h.Handle(ctx, r)
}

func (h *memoryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &memoryHandler{b: h.b, h: h.h.WithAttrs(attrs)}
}

func (h *memoryHandler) WithGroup(name string) slog.Handler {
	return &memoryHandler{b: h.b, h: h.h.WithGroup(name)}
}

// Records parses every JSON line in the buffer.
func (h *memoryHandler) Records() ([]map[string]any, error) {
	var out []map[string]any
	dec := json.NewDecoder(bytes.NewReader(h.b.Bytes()))
	for {
		var rec map[string]any
		if err := dec.Decode(&rec); err == io.EOF {
			return out, nil
		} else if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// LastRecord returns the last logged JSON object.
func (h *memoryHandler) LastRecord() (map[string]any, error) {
	recs, err := h.Records()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, io.EOF
	}
	return recs[len(recs)-1], nil
}

// testApp bundles an App with the pieces tests poke at directly.
type testApp struct {
	app       *core.App
	db        *mock.Db
	blocklist *blocklist.Store
	logs      *bytes.Buffer
}

// newTestApp builds an App over mockDb with a loaded blocklist. A nil
// mockDb gets an in-memory one; a nil cfg gets the defaults.
func newTestApp(t *testing.T, mockDb *mock.Db, cfg *config.Config) *testApp {
	t.Helper()
	if mockDb == nil {
		mockDb = &mock.Db{}
	}
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	provider := config.NewProvider(cfg)
	logs := new(bytes.Buffer)
	logger := slog.New(newMemoryHandler(logs))

	store := blocklist.New(mockDb, provider, logger)
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("blocklist refresh failed: %v", err)
	}
	visits, err := visitlog.New(mockDb, provider, logger, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("visitlog.New failed: %v", err)
	}

	app, err := core.NewApp(
		core.WithStores(store, visits),
		core.WithRouter(servemux.New()),
		core.WithConfigProvider(provider),
		core.WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return &testApp{app: app, db: mockDb, blocklist: store, logs: logs}
}
