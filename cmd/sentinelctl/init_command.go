package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/prankvz/sentinel"
	dbz "github.com/prankvz/sentinel/db/zombiezen"
	"github.com/prankvz/sentinel/migrations"
)

func handleInit(stdout io.Writer, dbPath string, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: init takes no arguments", ErrTooManyArguments)
	}
	return initDb(stdout, dbPath)
}

// initDb creates dbPath with the app schema. It refuses to touch an
// existing file.
func initDb(stdout io.Writer, dbPath string) error {
	if _, err := os.Stat(dbPath); err == nil {
		return fmt.Errorf("%w: %s", ErrDBAlreadyExists, dbPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error checking database file %s: %w", dbPath, err)
	}

	pool, err := sentinel.NewZombiezenPool(dbPath, 1)
	if err != nil {
		return fmt.Errorf("%w (db_path: %s): %v", ErrCreateDbPool, dbPath, err)
	}
	defer pool.Close()

	if err := dbz.ApplyPoolMigrations(pool, migrations.Schema(), "app"); err != nil {
		return fmt.Errorf("%w: %v", ErrMigrate, err)
	}

	if _, err := fmt.Fprintf(stdout, "Created database %s\n", dbPath); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}
