package zombiezen

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prankvz/sentinel/db"
	"github.com/prankvz/sentinel/migrations"
	"zombiezen.com/go/sqlite/sqlitex"
)

// newTestAppDB creates a temporary file database with the app schema applied.
// A file is used instead of :memory: so that every pool connection sees the
// same tables.
func newTestAppDB(t *testing.T) (*Db, *sqlitex.Pool) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "app.db")
	pool, err := sqlitex.NewPool(dbPath, sqlitex.PoolOptions{
		PoolSize: 2,
	})
	if err != nil {
		t.Fatalf("failed to create db pool: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("failed to close db pool: %v", err)
		}
	})

	if err := ApplyPoolMigrations(pool, migrations.Schema(), "app"); err != nil {
		t.Fatalf("failed to apply app schema: %v", err)
	}

	d, err := New(pool)
	if err != nil {
		t.Fatalf("failed to create db: %v", err)
	}
	return d, pool
}

func TestNew_NilPool(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New(nil) should fail")
	}
}

func TestBlocklistLifecycle(t *testing.T) {
	d, _ := newTestAppDB(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("InsertAndList", func(t *testing.T) {
		err := d.InsertBlockedIp(ctx, db.BlockedIp{Address: "10.0.0.5", Reason: "abuse", BlockedAt: now})
		if err != nil {
			t.Fatalf("InsertBlockedIp() failed: %v", err)
		}
		got, err := d.ListBlockedIps(ctx)
		if err != nil {
			t.Fatalf("ListBlockedIps() failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(got))
		}
		if got[0].Address != "10.0.0.5" || got[0].Reason != "abuse" || !got[0].BlockedAt.Equal(now) {
			t.Errorf("unexpected entry: %+v", got[0])
		}
	})

	t.Run("InsertDuplicateKeepsOriginal", func(t *testing.T) {
		err := d.InsertBlockedIp(ctx, db.BlockedIp{Address: "10.0.0.5", Reason: "other", BlockedAt: now.Add(time.Hour)})
		if err != nil {
			t.Fatalf("duplicate InsertBlockedIp() should not fail: %v", err)
		}
		got, _ := d.ListBlockedIps(ctx)
		if len(got) != 1 {
			t.Fatalf("expected 1 entry after duplicate insert, got %d", len(got))
		}
		if got[0].Reason != "abuse" {
			t.Errorf("reason = %q, want original %q", got[0].Reason, "abuse")
		}
	})

	t.Run("DefaultReason", func(t *testing.T) {
		if err := d.InsertBlockedIp(ctx, db.BlockedIp{Address: "2001:db8::1", BlockedAt: now}); err != nil {
			t.Fatalf("InsertBlockedIp() failed: %v", err)
		}
		got, _ := d.ListBlockedIps(ctx)
		if len(got) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(got))
		}
		if got[1].Reason != db.DefaultBlockReason {
			t.Errorf("reason = %q, want %q", got[1].Reason, db.DefaultBlockReason)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := d.DeleteBlockedIp(ctx, "10.0.0.5"); err != nil {
			t.Fatalf("DeleteBlockedIp() failed: %v", err)
		}
		if err := d.DeleteBlockedIp(ctx, "10.0.0.5"); err != nil {
			t.Fatalf("deleting absent address should not fail: %v", err)
		}
		got, _ := d.ListBlockedIps(ctx)
		if len(got) != 1 || got[0].Address != "2001:db8::1" {
			t.Errorf("unexpected entries after delete: %+v", got)
		}
	})
}

func TestListBlockedIps_Empty(t *testing.T) {
	d, _ := newTestAppDB(t)
	got, err := d.ListBlockedIps(context.Background())
	if err != nil {
		t.Fatalf("ListBlockedIps() failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestVisits(t *testing.T) {
	d, _ := newTestAppDB(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []int64
	for i, ip := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		// identical timestamps: ordering must still follow insertion
		v, err := d.InsertVisit(ctx, db.Visit{IP: ip, UserAgent: "ua", Timestamp: ts})
		if err != nil {
			t.Fatalf("InsertVisit(%d) failed: %v", i, err)
		}
		if v.ID == 0 {
			t.Fatalf("InsertVisit(%d) returned zero id", i)
		}
		ids = append(ids, v.ID)
	}

	testCases := []struct {
		name    string
		limit   int
		wantIPs []string
	}{
		{"All", 10, []string{"3.3.3.3", "2.2.2.2", "1.1.1.1"}},
		{"Limited", 2, []string{"3.3.3.3", "2.2.2.2"}},
		{"Zero", 0, []string{}},
		{"Negative", -1, []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := d.RecentVisits(ctx, tc.limit)
			if err != nil {
				t.Fatalf("RecentVisits() failed: %v", err)
			}
			if len(got) != len(tc.wantIPs) {
				t.Fatalf("got %d visits, want %d", len(got), len(tc.wantIPs))
			}
			for i, ip := range tc.wantIPs {
				if got[i].IP != ip {
					t.Errorf("visit[%d].IP = %q, want %q", i, got[i].IP, ip)
				}
				if !got[i].Timestamp.Equal(ts) {
					t.Errorf("visit[%d].Timestamp = %v, want %v", i, got[i].Timestamp, ts)
				}
			}
		})
	}

	if !(ids[0] < ids[1] && ids[1] < ids[2]) {
		t.Errorf("ids not increasing: %v", ids)
	}
}

func TestStorageUnavailable(t *testing.T) {
	d, pool := newTestAppDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// hold every connection so Take has to wait on the cancelled context
	c1, _ := pool.Take(context.Background())
	c2, _ := pool.Take(context.Background())
	defer pool.Put(c1)
	defer pool.Put(c2)

	if _, err := d.ListBlockedIps(ctx); !errors.Is(err, db.ErrStorageUnavailable) {
		t.Errorf("ListBlockedIps() error = %v, want ErrStorageUnavailable", err)
	}
	if _, err := d.InsertVisit(ctx, db.Visit{IP: "1.1.1.1", UserAgent: "ua"}); !errors.Is(err, db.ErrStorageUnavailable) {
		t.Errorf("InsertVisit() error = %v, want ErrStorageUnavailable", err)
	}
}
