package log

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/db"
)

// Daemon consumes slog.Records from a channel and writes them in batches to
// a db.DbLog. It owns both the channel and the log database.
type Daemon struct {
	recordChan     chan slog.Record
	db             db.DbLog
	opLogger       *slog.Logger
	configProvider *config.Provider

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownDone chan struct{}
}

func New(configProvider *config.Provider, opLogger *slog.Logger, dbLog db.DbLog) (*Daemon, error) {
	if dbLog == nil {
		return nil, fmt.Errorf("log daemon: database cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cfg := configProvider.Get()

	return &Daemon{
		recordChan:     make(chan slog.Record, cfg.Log.Batch.ChanSize),
		db:             dbLog,
		opLogger:       opLogger.With("daemon_component", "LogDaemon"),
		configProvider: configProvider,
		ctx:            ctx,
		cancel:         cancel,
		shutdownDone:   make(chan struct{}),
	}, nil
}

// Chan returns the write-end of the channel and the daemon's context.
// The context is done once the daemon starts shutting down.
func (ld *Daemon) Chan() (chan<- slog.Record, context.Context) {
	return ld.recordChan, ld.ctx
}

func (ld *Daemon) Name() string {
	return "LogDaemon"
}

func (ld *Daemon) Start() error {
	ld.opLogger.Info("starting log daemon")
	go ld.processLogs()
	return nil
}

// Stop signals shutdown and waits for the final flush, or for ctx.
func (ld *Daemon) Stop(ctx context.Context) error {
	ld.opLogger.Info("stopping log daemon")
	ld.cancel()

	select {
	case <-ld.shutdownDone:
	case <-ctx.Done():
		ld.opLogger.Error("log daemon shutdown timed out", "error", ctx.Err())
		return ctx.Err()
	}
	ld.opLogger.Info("log daemon stopped")
	return nil
}

// toDbLog converts a record; it fails when the attributes do not serialize
// to JSON (NaN floats for instance).
func toDbLog(record slog.Record) (db.Log, error) {
	data := make(map[string]any)
	record.Attrs(func(a slog.Attr) bool {
		resolveAndInsertAttr(data, a)
		return true
	})

	jsonData, err := json.Marshal(data)
	if err != nil {
		return db.Log{}, fmt.Errorf("failed to marshal log attributes: %w", err)
	}

	return db.Log{
		Level:    int64(record.Level),
		Message:  record.Message,
		JsonData: string(jsonData),
		Created:  db.TimeFormat(record.Time),
	}, nil
}

func (ld *Daemon) processLogs() {
	defer close(ld.shutdownDone)

	cfg := ld.configProvider.Get()
	ticker := time.NewTicker(cfg.Log.Batch.FlushInterval.Duration)
	defer ticker.Stop()

	flushSize := cfg.Log.Batch.FlushSize
	batch := make([]db.Log, 0, flushSize)

	flush := func(reason string) {
		if len(batch) == 0 {
			return
		}
		if err := ld.db.InsertBatch(batch); err != nil {
			ld.opLogger.Error("failed to write log batch", "error", err, "batch_size", len(batch), "reason", reason)
		}
		batch = batch[:0]
	}

	add := func(record slog.Record) {
		entry, err := toDbLog(record)
		if err != nil {
			ld.opLogger.Error("skipping log record", "error", err, "record_msg", record.Message)
			return
		}
		batch = append(batch, entry)
		if len(batch) >= flushSize {
			flush("batch_full")
		}
	}

	for {
		select {
		case record := <-ld.recordChan:
			add(record)

		case <-ticker.C:
			flush("ticker")

		case <-ld.ctx.Done():
			// BatchHandler stops sending once ctx is done; drain what is buffered.
		drain:
			for {
				select {
				case record := <-ld.recordChan:
					add(record)
				default:
					break drain
				}
			}
			flush("shutdown")

			if err := ld.db.Close(); err != nil {
				ld.opLogger.Error("failed to close log database", "error", err)
			}
			return
		}
	}
}

// resolveAndInsertAttr recursively resolves attributes and adds them to the map.
func resolveAndInsertAttr(m map[string]any, a slog.Attr) {
	if a.Key == "" {
		return
	}

	val := a.Value.Resolve()
	switch val.Kind() {
	case slog.KindString:
		m[a.Key] = val.String()
	case slog.KindInt64:
		m[a.Key] = val.Int64()
	case slog.KindUint64:
		m[a.Key] = val.Uint64()
	case slog.KindFloat64:
		m[a.Key] = val.Float64()
	case slog.KindBool:
		m[a.Key] = val.Bool()
	case slog.KindDuration:
		m[a.Key] = val.Duration().String()
	case slog.KindTime:
		m[a.Key] = db.TimeFormat(val.Time())
	case slog.KindGroup:
		// repeated groups (handler attrs plus call attrs) merge
		group, ok := m[a.Key].(map[string]any)
		if !ok {
			group = make(map[string]any)
		}
		for _, ga := range val.Group() {
			resolveAndInsertAttr(group, ga)
		}
		if len(group) > 0 {
			m[a.Key] = group
		}
	default:
		switch v := val.Any().(type) {
		case error:
			m[a.Key] = v.Error()
		default:
			m[a.Key] = fmt.Sprint(v)
		}
	}
}
