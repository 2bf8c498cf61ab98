package db

import "context"

// DbBlocklist persists the set of blocked addresses.
// Addresses reaching this layer are already normalized.
type DbBlocklist interface {
	// InsertBlockedIp stores the entry. Inserting an address that already
	// exists is not an error and keeps the original row untouched.
	InsertBlockedIp(ctx context.Context, ip BlockedIp) error
	// DeleteBlockedIp removes the address. Deleting an absent address is not
	// an error.
	DeleteBlockedIp(ctx context.Context, address string) error
	// ListBlockedIps returns every stored entry.
	ListBlockedIps(ctx context.Context) ([]BlockedIp, error)
}

// DbVisit is the append-only visit log storage.
type DbVisit interface {
	// InsertVisit appends the visit and returns the stored record with its ID set.
	InsertVisit(ctx context.Context, v Visit) (Visit, error)
	// RecentVisits returns up to limit visits, newest first.
	RecentVisits(ctx context.Context, limit int) ([]Visit, error)
}

// DbApp is the interface combining the DB roles the application needs.
// The concrete implementation (*zombiezen.Db or *redis.Db) must satisfy it.
type DbApp interface {
	DbBlocklist
	DbVisit
}

// DbLog defines the interface for database operations related to logs.
type DbLog interface {
	// InsertBatch inserts a batch of log entries into the database.
	InsertBatch(batch []Log) error
	// Close closes the underlying database connection.
	Close() error
}
