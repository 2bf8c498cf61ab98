// Package redis is the go-redis backed implementation of db.DbApp.
//
// Blocked addresses live in one hash keyed by address, whose value is the
// JSON-encoded entry. Visits are a list (newest at the head) plus a counter
// that hands out ids.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/prankvz/sentinel/db"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "sentinel:"

	keyBlocked  = "blocked_ips"
	keyVisits   = "visits"
	keyVisitSeq = "visits:seq"
)

type Db struct {
	client *redis.Client
	prefix string
}

var _ db.DbApp = (*Db)(nil)

// New wraps an existing client. The client lifecycle is managed externally.
func New(client *redis.Client, prefix string) (*Db, error) {
	if client == nil {
		return nil, fmt.Errorf("provided redis client cannot be nil")
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Db{client: client, prefix: prefix}, nil
}

// NewClient builds a client from addr, password and database index and
// verifies the connection with PING.
func NewClient(ctx context.Context, addr, password string, database int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis ping %s: %v", db.ErrStorageUnavailable, addr, err)
	}
	return client, nil
}

func (d *Db) key(name string) string {
	return d.prefix + name
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", db.ErrStorageUnavailable, op, err)
}

type blockedEntry struct {
	Reason    string `json:"reason"`
	BlockedAt string `json:"blocked_at"`
}

// InsertBlockedIp uses HSETNX so an existing entry is never overwritten.
func (d *Db) InsertBlockedIp(ctx context.Context, ip db.BlockedIp) error {
	reason := ip.Reason
	if reason == "" {
		reason = db.DefaultBlockReason
	}
	value, err := json.Marshal(blockedEntry{Reason: reason, BlockedAt: db.TimeFormat(ip.BlockedAt)})
	if err != nil {
		return fmt.Errorf("encode blocked ip: %w", err)
	}
	if err := d.client.HSetNX(ctx, d.key(keyBlocked), ip.Address, value).Err(); err != nil {
		return unavailable("insert blocked ip", err)
	}
	return nil
}

func (d *Db) DeleteBlockedIp(ctx context.Context, address string) error {
	if err := d.client.HDel(ctx, d.key(keyBlocked), address).Err(); err != nil {
		return unavailable("delete blocked ip", err)
	}
	return nil
}

// ListBlockedIps returns entries ordered by blocked_at, then address. Redis
// hashes carry no insertion order.
func (d *Db) ListBlockedIps(ctx context.Context) ([]db.BlockedIp, error) {
	all, err := d.client.HGetAll(ctx, d.key(keyBlocked)).Result()
	if err != nil {
		return nil, unavailable("list blocked ips", err)
	}

	out := make([]db.BlockedIp, 0, len(all))
	for address, raw := range all {
		var e blockedEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, unavailable("decode blocked ip "+address, err)
		}
		blockedAt, err := db.TimeParse(e.BlockedAt)
		if err != nil {
			return nil, unavailable("parse blocked_at", err)
		}
		out = append(out, db.BlockedIp{Address: address, Reason: e.Reason, BlockedAt: blockedAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BlockedAt.Equal(out[j].BlockedAt) {
			return out[i].BlockedAt.Before(out[j].BlockedAt)
		}
		return out[i].Address < out[j].Address
	})
	return out, nil
}

type visitEntry struct {
	ID        int64  `json:"id,omitempty"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	Timestamp string `json:"timestamp"`
}

// insertVisitScript hands out the next id and pushes the entry in one step.
// ARGV[1] is the entry encoded without its id, so it starts with '{' and
// holds at least one field.
var insertVisitScript = redis.NewScript(`
local id = redis.call('INCR', KEYS[1])
redis.call('LPUSH', KEYS[2], '{"id":' .. id .. ',' .. string.sub(ARGV[1], 2))
return id
`)

// InsertVisit runs the id assignment and the push as one script, so the list
// order always matches id order and concurrent callers never conflict.
func (d *Db) InsertVisit(ctx context.Context, v db.Visit) (db.Visit, error) {
	value, err := json.Marshal(visitEntry{
		IP:        v.IP,
		UserAgent: v.UserAgent,
		Timestamp: db.TimeFormat(v.Timestamp),
	})
	if err != nil {
		return db.Visit{}, fmt.Errorf("encode visit: %w", err)
	}

	id, err := insertVisitScript.Run(ctx, d.client,
		[]string{d.key(keyVisitSeq), d.key(keyVisits)}, value).Int64()
	if err != nil {
		return db.Visit{}, unavailable("insert visit", err)
	}
	v.ID = id
	return v, nil
}

func (d *Db) RecentVisits(ctx context.Context, limit int) ([]db.Visit, error) {
	out := []db.Visit{}
	if limit <= 0 {
		return out, nil
	}

	raws, err := d.client.LRange(ctx, d.key(keyVisits), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, unavailable("recent visits", err)
	}
	for _, raw := range raws {
		var e visitEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, unavailable("decode visit", err)
		}
		ts, err := time.Parse(time.RFC3339, e.Timestamp)
		if err != nil {
			return nil, unavailable("parse visit timestamp", err)
		}
		out = append(out, db.Visit{ID: e.ID, IP: e.IP, UserAgent: e.UserAgent, Timestamp: ts})
	}
	return out, nil
}
