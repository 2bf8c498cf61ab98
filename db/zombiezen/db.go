package zombiezen

import (
	"context"
	"fmt"

	"github.com/prankvz/sentinel/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

type Db struct {
	pool *sqlitex.Pool
}

// Verify interface implementations
var _ db.DbBlocklist = (*Db)(nil)
var _ db.DbVisit = (*Db)(nil)
var _ db.DbApp = (*Db)(nil)

// New creates a new Db instance using an existing pool provided by the user.
// Note: The lifecycle of the provided pool (*sqlitex.Pool) is managed externally.
// This Db type does not close the pool.
func New(pool *sqlitex.Pool) (*Db, error) {
	if pool == nil {
		return nil, fmt.Errorf("provided pool cannot be nil")
	}
	return &Db{pool: pool}, nil
}

// take borrows a connection from the pool. Failing to obtain one means the
// store cannot be reached, so the error is wrapped as ErrStorageUnavailable.
func (d *Db) take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get db connection: %v", db.ErrStorageUnavailable, err)
	}
	return conn, nil
}

// unavailable wraps a statement error so callers can match it with errors.Is.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", db.ErrStorageUnavailable, op, err)
}
