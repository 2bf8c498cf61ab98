package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/prankvz/sentinel/db"
)

// Compile-time check to ensure Db implements the DbApp interface
var _ db.DbApp = (*Db)(nil)

// Db implements db.DbApp for testing purposes.
// Use function fields to allow overriding behavior in specific tests. When a
// function field is nil the call is served by a small in-memory store, so a
// zero Db behaves like a working database.
type Db struct {
	// --- Mock DbBlocklist Methods ---
	InsertBlockedIpFunc func(ctx context.Context, ip db.BlockedIp) error
	DeleteBlockedIpFunc func(ctx context.Context, address string) error
	ListBlockedIpsFunc  func(ctx context.Context) ([]db.BlockedIp, error)

	// --- Mock DbVisit Methods ---
	InsertVisitFunc  func(ctx context.Context, v db.Visit) (db.Visit, error)
	RecentVisitsFunc func(ctx context.Context, limit int) ([]db.Visit, error)

	mu      sync.Mutex
	blocked map[string]db.BlockedIp
	visits  []db.Visit
	calls   map[string]int
}

func (m *Db) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

// Calls returns how many times the named method was invoked.
func (m *Db) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

// TotalCalls returns the number of invocations across all methods.
func (m *Db) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// --- Implement DbBlocklist ---
func (m *Db) InsertBlockedIp(ctx context.Context, ip db.BlockedIp) error {
	m.record("InsertBlockedIp")
	if m.InsertBlockedIpFunc != nil {
		return m.InsertBlockedIpFunc(ctx, ip)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blocked == nil {
		m.blocked = make(map[string]db.BlockedIp)
	}
	if _, ok := m.blocked[ip.Address]; !ok {
		m.blocked[ip.Address] = ip
	}
	return nil
}

func (m *Db) DeleteBlockedIp(ctx context.Context, address string) error {
	m.record("DeleteBlockedIp")
	if m.DeleteBlockedIpFunc != nil {
		return m.DeleteBlockedIpFunc(ctx, address)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blocked, address)
	return nil
}

func (m *Db) ListBlockedIps(ctx context.Context) ([]db.BlockedIp, error) {
	m.record("ListBlockedIps")
	if m.ListBlockedIpsFunc != nil {
		return m.ListBlockedIpsFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]db.BlockedIp, 0, len(m.blocked))
	for _, b := range m.blocked {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

// --- Implement DbVisit ---
func (m *Db) InsertVisit(ctx context.Context, v db.Visit) (db.Visit, error) {
	m.record("InsertVisit")
	if m.InsertVisitFunc != nil {
		return m.InsertVisitFunc(ctx, v)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = int64(len(m.visits) + 1)
	m.visits = append(m.visits, v)
	return v, nil
}

func (m *Db) RecentVisits(ctx context.Context, limit int) ([]db.Visit, error) {
	m.record("RecentVisits")
	if m.RecentVisitsFunc != nil {
		return m.RecentVisitsFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.Visit{}
	for i := len(m.visits) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.visits[i])
	}
	return out, nil
}
