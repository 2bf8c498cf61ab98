package zombiezen

import (
	"context"
	"fmt"
	"io/fs"
	"path"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ApplyMigrations runs every .sql file under dir of fsys against conn, in
// lexical order. Pass "." to apply the whole tree. Schema files use
// IF NOT EXISTS so applying them twice is harmless.
func ApplyMigrations(conn *sqlite.Conn, fsys fs.FS, dir string) error {
	return fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".sql" {
			return nil
		}

		sqlBytes, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", p, err)
		}

		if err := sqlitex.ExecuteScript(conn, string(sqlBytes), nil); err != nil {
			return fmt.Errorf("failed to execute migration file %s: %w", p, err)
		}
		return nil
	})
}

// ApplyPoolMigrations applies dir to one connection of pool. Used at startup
// for the app database and by the init command.
func ApplyPoolMigrations(pool *sqlitex.Pool, fsys fs.FS, dir string) error {
	conn, err := pool.Take(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get db connection: %w", err)
	}
	defer pool.Put(conn)
	return ApplyMigrations(conn, fsys, dir)
}
