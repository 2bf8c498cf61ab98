package zombiezen

import (
	"context"

	"github.com/prankvz/sentinel/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// InsertBlockedIp adds the address to blocked_ips. An address that is
// already present keeps its original reason and blocked_at.
func (d *Db) InsertBlockedIp(ctx context.Context, ip db.BlockedIp) error {
	conn, err := d.take(ctx)
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	reason := ip.Reason
	if reason == "" {
		reason = db.DefaultBlockReason
	}

	err = sqlitex.Execute(conn,
		`INSERT OR IGNORE INTO blocked_ips (address, reason, blocked_at)
		VALUES (?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{ip.Address, reason, db.TimeFormat(ip.BlockedAt)},
		})
	if err != nil {
		return unavailable("insert blocked ip", err)
	}
	return nil
}

// DeleteBlockedIp removes the address. Deleting an absent address is not an error.
func (d *Db) DeleteBlockedIp(ctx context.Context, address string) error {
	conn, err := d.take(ctx)
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`DELETE FROM blocked_ips WHERE address = ?`,
		&sqlitex.ExecOptions{
			Args: []any{address},
		})
	if err != nil {
		return unavailable("delete blocked ip", err)
	}
	return nil
}

// ListBlockedIps returns every blocked address in insertion order.
func (d *Db) ListBlockedIps(ctx context.Context) ([]db.BlockedIp, error) {
	conn, err := d.take(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var out []db.BlockedIp
	var parseErr error
	err = sqlitex.Execute(conn,
		`SELECT address, reason, blocked_at FROM blocked_ips ORDER BY id ASC`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				blockedAt, err := db.TimeParse(stmt.GetText("blocked_at"))
				if err != nil && parseErr == nil {
					parseErr = err
				}
				out = append(out, db.BlockedIp{
					Address:   stmt.GetText("address"),
					Reason:    stmt.GetText("reason"),
					BlockedAt: blockedAt,
				})
				return nil
			},
		})
	if err != nil {
		return nil, unavailable("list blocked ips", err)
	}
	if parseErr != nil {
		return nil, unavailable("parse blocked_at", parseErr)
	}
	if out == nil {
		out = []db.BlockedIp{}
	}
	return out, nil
}
