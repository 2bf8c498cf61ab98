package zombiezen

import (
	"context"

	"github.com/prankvz/sentinel/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// InsertVisit appends a visit and returns it with the assigned id.
func (d *Db) InsertVisit(ctx context.Context, v db.Visit) (db.Visit, error) {
	conn, err := d.take(ctx)
	if err != nil {
		return db.Visit{}, err
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO visits (ip_address, user_agent, timestamp) VALUES (?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{v.IP, v.UserAgent, db.TimeFormat(v.Timestamp)},
		})
	if err != nil {
		return db.Visit{}, unavailable("insert visit", err)
	}

	v.ID = conn.LastInsertRowID()
	return v, nil
}

// RecentVisits returns at most limit visits, newest first. Ordering is by id,
// which is strictly increasing with insertion even when timestamps tie.
func (d *Db) RecentVisits(ctx context.Context, limit int) ([]db.Visit, error) {
	out := []db.Visit{}
	if limit <= 0 {
		return out, nil
	}

	conn, err := d.take(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var parseErr error
	err = sqlitex.Execute(conn,
		`SELECT id, ip_address, user_agent, timestamp FROM visits
		ORDER BY id DESC
		LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				ts, err := db.TimeParse(stmt.GetText("timestamp"))
				if err != nil && parseErr == nil {
					parseErr = err
				}
				out = append(out, db.Visit{
					ID:        stmt.GetInt64("id"),
					IP:        stmt.GetText("ip_address"),
					UserAgent: stmt.GetText("user_agent"),
					Timestamp: ts,
				})
				return nil
			},
		})
	if err != nil {
		return nil, unavailable("recent visits", err)
	}
	if parseErr != nil {
		return nil, unavailable("parse visit timestamp", parseErr)
	}
	return out, nil
}
