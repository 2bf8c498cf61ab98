package visitlog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prankvz/sentinel/cache/ristretto"
	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/db"
	"github.com/prankvz/sentinel/db/mock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLog(t *testing.T, store db.DbVisit, cfg *config.Config) (*Log, *syncBuffer) {
	t.Helper()
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	out := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(out, nil))
	l, err := New(store, config.NewProvider(cfg), logger, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return l, out
}

func TestNew_NilStore(t *testing.T) {
	_, err := New(nil, config.NewProvider(config.NewDefaultConfig()), slog.Default(), prometheus.NewRegistry())
	if err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestAppend_Validation(t *testing.T) {
	testCases := []struct {
		name      string
		ip        string
		userAgent string
		wantErr   bool
	}{
		{"valid", "10.0.0.1", "Mozilla/5.0", false},
		{"empty ip", "", "Mozilla/5.0", true},
		{"blank ip", "   ", "Mozilla/5.0", true},
		{"empty user agent", "10.0.0.1", "", true},
		{"blank user agent", "10.0.0.1", "  ", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockDb := &mock.Db{}
			l, _ := newTestLog(t, mockDb, nil)

			err := l.Append(context.Background(), tc.ip, tc.userAgent)
			if tc.wantErr {
				if !errors.Is(err, db.ErrInvalidInput) {
					t.Fatalf("Append() error = %v, want ErrInvalidInput", err)
				}
				if mockDb.Calls("InsertVisit") != 0 {
					t.Error("storage touched on invalid input")
				}
				return
			}
			if err != nil {
				t.Fatalf("Append() failed: %v", err)
			}
			if mockDb.Calls("InsertVisit") != 1 {
				t.Errorf("InsertVisit calls = %d, want 1", mockDb.Calls("InsertVisit"))
			}
		})
	}
}

func TestAppend_RecentNewestFirst(t *testing.T) {
	l, _ := newTestLog(t, &mock.Db{}, nil)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		l.now = func() time.Time { return ts }
		ua := "agent-" + string(rune('a'+i))
		if err := l.Append(ctx, "10.0.0.1", ua); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	got, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("len(Recent) = %d, want 10", len(got))
	}
	for i, v := range got {
		want := "agent-" + string(rune('a'+11-i))
		if v.UserAgent != want {
			t.Errorf("Recent[%d].UserAgent = %q, want %q", i, v.UserAgent, want)
		}
		if v.Timestamp.Location() != time.UTC {
			t.Errorf("Recent[%d].Timestamp not UTC", i)
		}
	}
}

func TestRecent_Limits(t *testing.T) {
	testCases := []struct {
		name  string
		limit int
		want  int
		calls int
	}{
		{"zero", 0, 0, 0},
		{"negative", -5, 0, 0},
		{"fewer than stored", 2, 2, 1},
		{"more than stored", 50, 3, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockDb := &mock.Db{}
			l, _ := newTestLog(t, mockDb, nil)
			for i := 0; i < 3; i++ {
				_ = l.Append(context.Background(), "10.0.0.1", "ua")
			}

			got, err := l.Recent(context.Background(), tc.limit)
			if err != nil {
				t.Fatalf("Recent() failed: %v", err)
			}
			if got == nil {
				t.Fatal("Recent() returned nil slice")
			}
			if len(got) != tc.want {
				t.Errorf("len = %d, want %d", len(got), tc.want)
			}
			if mockDb.Calls("RecentVisits") != tc.calls {
				t.Errorf("RecentVisits calls = %d, want %d", mockDb.Calls("RecentVisits"), tc.calls)
			}
		})
	}
}

func TestRecent_Empty(t *testing.T) {
	l, _ := newTestLog(t, &mock.Db{}, nil)
	got, err := l.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Recent() = %v, want empty slice", got)
	}
}

func TestRecent_StorageError(t *testing.T) {
	mockDb := &mock.Db{
		RecentVisitsFunc: func(ctx context.Context, limit int) ([]db.Visit, error) {
			return nil, db.ErrStorageUnavailable
		},
	}
	l, _ := newTestLog(t, mockDb, nil)
	if _, err := l.Recent(context.Background(), 10); !errors.Is(err, db.ErrStorageUnavailable) {
		t.Errorf("Recent() error = %v, want ErrStorageUnavailable", err)
	}
}

func TestAppend_FailureSwallowed(t *testing.T) {
	mockDb := &mock.Db{
		InsertVisitFunc: func(ctx context.Context, v db.Visit) (db.Visit, error) {
			return db.Visit{}, db.ErrStorageUnavailable
		},
	}
	cfg := config.NewDefaultConfig()
	cfg.Visits.FailureReportInterval = config.Duration{Duration: time.Hour}
	l, out := newTestLog(t, mockDb, cfg)

	for i := 0; i < 5; i++ {
		if err := l.Append(context.Background(), "10.0.0.1", "ua"); err != nil {
			t.Fatalf("Append() returned persistence error: %v", err)
		}
	}

	if got := testutil.ToFloat64(l.failures); got != 5 {
		t.Errorf("failure counter = %v, want 5", got)
	}
	if n := strings.Count(out.String(), "failed to record visit"); n != 1 {
		t.Errorf("failure reported %d times, want 1 within the interval", n)
	}
}

func TestAppend_UserAgentCapped(t *testing.T) {
	mockDb := &mock.Db{}
	cfg := config.NewDefaultConfig()
	cfg.Visits.UserAgentMaxLength = 8
	l, _ := newTestLog(t, mockDb, cfg)

	if err := l.Append(context.Background(), "10.0.0.1", strings.Repeat("x", 100)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	got, _ := l.Recent(context.Background(), 1)
	if got[0].UserAgent != "xxxxxxxx" {
		t.Errorf("UserAgent = %q, want 8 bytes", got[0].UserAgent)
	}
}

func TestTruncate(t *testing.T) {
	testCases := []struct {
		in   string
		max  int
		want string
	}{
		{"abcdef", 3, "abc"},
		{"héllo", 2, "h"},
		{"héllo", 3, "hé"},
		{"ab", 5, "ab"},
	}
	for _, tc := range testCases {
		if got := truncate(tc.in, tc.max); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestAppend_Dedup(t *testing.T) {
	mockDb := &mock.Db{}
	cfg := config.NewDefaultConfig()
	cfg.Visits.DedupWindow = config.Duration{Duration: time.Minute}
	l, _ := newTestLog(t, mockDb, cfg)

	c, err := ristretto.New[string, struct{}]("small")
	if err != nil {
		t.Fatalf("ristretto.New() failed: %v", err)
	}
	defer c.Close()
	l.WithDedup(c)

	ctx := context.Background()
	_ = l.Append(ctx, "10.0.0.1", "ua")
	c.Wait()
	_ = l.Append(ctx, "10.0.0.1", "ua")
	_ = l.Append(ctx, "10.0.0.1", "other")

	if n := mockDb.Calls("InsertVisit"); n != 2 {
		t.Errorf("InsertVisit calls = %d, want 2", n)
	}
}

func TestAppend_DedupSkipsFailedInsert(t *testing.T) {
	failing := true
	mockDb := &mock.Db{}
	mockDb.InsertVisitFunc = func(ctx context.Context, v db.Visit) (db.Visit, error) {
		if failing {
			return db.Visit{}, db.ErrStorageUnavailable
		}
		return v, nil
	}
	cfg := config.NewDefaultConfig()
	cfg.Visits.DedupWindow = config.Duration{Duration: time.Minute}
	l, _ := newTestLog(t, mockDb, cfg)

	c, err := ristretto.New[string, struct{}]("small")
	if err != nil {
		t.Fatalf("ristretto.New() failed: %v", err)
	}
	defer c.Close()
	l.WithDedup(c)

	ctx := context.Background()
	_ = l.Append(ctx, "10.0.0.1", "ua")
	c.Wait()

	failing = false
	_ = l.Append(ctx, "10.0.0.1", "ua")
	c.Wait()
	_ = l.Append(ctx, "10.0.0.1", "ua")

	if n := mockDb.Calls("InsertVisit"); n != 2 {
		t.Errorf("InsertVisit calls = %d, want 2 (failed attempt plus retry)", n)
	}
	if got := testutil.ToFloat64(l.failures); got != 1 {
		t.Errorf("failure counter = %v, want 1", got)
	}
}

func TestAppend_ConcurrentCallers(t *testing.T) {
	mockDb := &mock.Db{}
	l, _ := newTestLog(t, mockDb, nil)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Append(context.Background(), "10.0.0.1", "ua")
		}()
	}
	wg.Wait()

	got, _ := l.Recent(context.Background(), 1000)
	if len(got) != 100 {
		t.Errorf("stored %d visits, want 100", len(got))
	}
	seen := make(map[int64]bool)
	for _, v := range got {
		if seen[v.ID] {
			t.Errorf("duplicate id %d", v.ID)
		}
		seen[v.ID] = true
	}
}
