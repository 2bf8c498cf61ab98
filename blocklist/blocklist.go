// Package blocklist keeps the set of blocked client addresses.
//
// Lookups read an immutable in-memory snapshot through an atomic pointer and
// never take a lock. Mutations write through to persistence first and swap
// in a new snapshot only after the write succeeded, so readers observe either
// the state before or after a mutation.
package blocklist

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/db"
	"golang.org/x/sync/singleflight"
)

type snapshot struct {
	entries  map[string]db.BlockedIp
	syncedAt time.Time
}

func (s *snapshot) clone() map[string]db.BlockedIp {
	cp := make(map[string]db.BlockedIp, len(s.entries)+1)
	for k, v := range s.entries {
		cp[k] = v
	}
	return cp
}

type Store struct {
	db             db.DbBlocklist
	configProvider *config.Provider
	logger         *slog.Logger

	// mu serializes mutations and refreshes; readers never take it.
	mu      sync.Mutex
	current atomic.Pointer[snapshot]
	refresh singleflight.Group

	now func() time.Time
}

func New(store db.DbBlocklist, configProvider *config.Provider, logger *slog.Logger) *Store {
	return &Store{
		db:             store,
		configProvider: configProvider,
		logger:         logger,
		now:            time.Now,
	}
}

// Normalize returns the canonical text form of an IP literal. Surrounding
// whitespace is ignored, IPv6 is lowercased and compressed, and IPv4-mapped
// IPv6 collapses to plain IPv4. Zones are rejected.
func Normalize(address string) (string, error) {
	a := strings.ToLower(strings.TrimSpace(address))
	if a == "" {
		return "", fmt.Errorf("%w: empty ip address", db.ErrInvalidInput)
	}
	ip, err := netip.ParseAddr(a)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not an ip address", db.ErrInvalidInput, address)
	}
	if ip.Zone() != "" {
		return "", fmt.Errorf("%w: %q has a zone", db.ErrInvalidInput, address)
	}
	return ip.Unmap().String(), nil
}

// Refresh replaces the snapshot with the persisted set. Concurrent callers
// share one load.
func (s *Store) Refresh(ctx context.Context) error {
	_, err, _ := s.refresh.Do("refresh", func() (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		list, err := s.db.ListBlockedIps(ctx)
		if err != nil {
			return nil, fmt.Errorf("blocklist refresh: %w", err)
		}
		entries := make(map[string]db.BlockedIp, len(list))
		for _, e := range list {
			if addr, err := Normalize(e.Address); err == nil {
				e.Address = addr
			} else {
				s.logger.Warn("blocklist: skipping malformed stored address", "ip", e.Address)
				continue
			}
			entries[e.Address] = e
		}
		s.current.Store(&snapshot{entries: entries, syncedAt: s.now()})
		return nil, nil
	})
	return err
}

// loaded returns the snapshot or ErrStorageUnavailable when there is none
// yet or it is older than BlockIp.MaxStaleness.
func (s *Store) loaded() (*snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, fmt.Errorf("%w: blocklist not loaded", db.ErrStorageUnavailable)
	}
	if max := s.configProvider.Get().BlockIp.MaxStaleness.Duration; max > 0 {
		if age := s.now().Sub(snap.syncedAt); age > max {
			return nil, fmt.Errorf("%w: blocklist stale for %s", db.ErrStorageUnavailable, age.Round(time.Second))
		}
	}
	return snap, nil
}

// Add blocks address. Blocking an already blocked address succeeds and keeps
// the original entry. The insert is always sent to persistence, which
// ignores duplicates, so a stale snapshot cannot swallow a block. The
// snapshot takes the entry as persistence holds it.
func (s *Store) Add(ctx context.Context, address, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := Block(ctx, s.db, address, reason, s.now())
	if err != nil {
		return fmt.Errorf("blocklist add: %w", err)
	}

	// Before the first load only persistence is updated; the next Refresh
	// picks the entry up with everything else.
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	if _, ok := snap.entries[entry.Address]; !ok {
		entries := snap.clone()
		entries[entry.Address] = entry
		s.current.Store(&snapshot{entries: entries, syncedAt: snap.syncedAt})
		s.logger.Info("blocklist: address blocked", "ip", entry.Address, "reason", entry.Reason)
	}
	return nil
}

// Remove unblocks address. Removing an address that is not blocked succeeds.
func (s *Store) Remove(ctx context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr, err := Unblock(ctx, s.db, address)
	if err != nil {
		return fmt.Errorf("blocklist remove: %w", err)
	}

	snap := s.current.Load()
	if snap != nil {
		if _, ok := snap.entries[addr]; ok {
			entries := snap.clone()
			delete(entries, addr)
			s.current.Store(&snapshot{entries: entries, syncedAt: snap.syncedAt})
			s.logger.Info("blocklist: address unblocked", "ip", addr)
		}
	}
	return nil
}

// Contains reports whether address is blocked. Input is normalized the same
// way Add does, so "::ffff:10.0.0.1" matches a block on "10.0.0.1".
func (s *Store) Contains(address string) (bool, error) {
	snap, err := s.loaded()
	if err != nil {
		return false, err
	}
	addr, err := Normalize(address)
	if err != nil {
		return false, err
	}
	_, ok := snap.entries[addr]
	return ok, nil
}

// List returns the blocked addresses in ascending order.
func (s *Store) List() ([]string, error) {
	snap, err := s.loaded()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(snap.entries))
	for addr := range snap.entries {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return compareAddr(out[i], out[j]) < 0
	})
	return out, nil
}

// Entries returns the full entries ordered like List.
func (s *Store) Entries() ([]db.BlockedIp, error) {
	snap, err := s.loaded()
	if err != nil {
		return nil, err
	}
	out := make([]db.BlockedIp, 0, len(snap.entries))
	for _, e := range snap.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return compareAddr(out[i].Address, out[j].Address) < 0
	})
	return out, nil
}

// SyncedAt is the time of the last successful Refresh, zero if none.
func (s *Store) SyncedAt() time.Time {
	if snap := s.current.Load(); snap != nil {
		return snap.syncedAt
	}
	return time.Time{}
}

// compareAddr orders by address value, IPv4 before IPv6. Rows that do not
// parse (written by hand into storage) sort by text.
func compareAddr(a, b string) int {
	ia, errA := netip.ParseAddr(a)
	ib, errB := netip.ParseAddr(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return ia.Compare(ib)
}
