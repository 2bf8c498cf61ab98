// Command sentinelctl manages the sentinel database offline: it creates the
// schema, edits the blocklist and prints recent visits. A running server
// picks up blocklist edits on its next refresh or on SIGHUP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/prankvz/sentinel"
	dbz "github.com/prankvz/sentinel/db/zombiezen"
)

const defaultDBPath = "sentinel.db"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sentinelctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPathFlag := fs.String("dbpath", defaultDBPath, "Path to the SQLite database file")
	fs.Usage = func() {
		help := mainHelp(fs)
		help.Print(stderr, "sentinelctl")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}

	cmdArgs := fs.Args()
	if len(cmdArgs) < 1 {
		fs.Usage()
		return ErrMissingCommand
	}
	command, commandArgs := cmdArgs[0], cmdArgs[1:]

	// commands that do not need an existing database
	switch command {
	case "help":
		return handleHelpCommand(stdout, fs, commandArgs)
	case "hash-password":
		return handleHashPassword(stdout, commandArgs)
	case "init":
		return handleInit(stdout, *dbPathFlag, commandArgs)
	case "block", "unblock", "blocked", "visits":
	default:
		fs.Usage()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}

	if _, err := os.Stat(*dbPathFlag); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "Please create it first using 'sentinelctl -dbpath %s init'.\n", *dbPathFlag)
		return fmt.Errorf("%w: %s", ErrDBNotFound, *dbPathFlag)
	}

	pool, err := sentinel.NewZombiezenPool(*dbPathFlag, 1)
	if err != nil {
		return fmt.Errorf("%w (db_path: %s): %v", ErrCreateDbPool, *dbPathFlag, err)
	}
	defer func() {
		if err := pool.Close(); err != nil {
			fmt.Fprintf(stderr, "Error: error closing database pool: %v\n", err)
		}
	}()

	dbImpl, err := dbz.New(pool)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCreateDbImpl, err)
	}

	ctx := context.Background()
	switch command {
	case "block":
		return handleBlock(ctx, stdout, dbImpl, commandArgs)
	case "unblock":
		return handleUnblock(ctx, stdout, dbImpl, commandArgs)
	case "blocked":
		return handleBlocked(ctx, stdout, dbImpl, commandArgs)
	default:
		return handleVisits(ctx, stdout, dbImpl, commandArgs)
	}
}

func mainHelp(global *flag.FlagSet) CommandHelp {
	return CommandHelp{
		Usage:       "sentinelctl [global options] <command> [command options]",
		Description: "Offline administration of the sentinel blocklist and visit log.",
		Subcommands: []SubcommandGroup{
			{
				Title: "Database",
				Subcommands: []Subcommand{
					{"init", "Create the database and its tables"},
				},
			},
			{
				Title: "Blocklist",
				Subcommands: []Subcommand{
					{"block", "Block an ip address"},
					{"unblock", "Remove an ip address from the blocklist"},
					{"blocked", "List blocked addresses"},
				},
			},
			{
				Title: "Visits",
				Subcommands: []Subcommand{
					{"visits", "Show the most recent visits"},
				},
			},
			{
				Title: "Operator",
				Subcommands: []Subcommand{
					{"hash-password", "Print the bcrypt hash of a password for admin.password_hash"},
					{"help", "Show help for a command"},
				},
			},
		},
		GlobalOptions: global,
		Examples: []string{
			"sentinelctl init",
			"sentinelctl -dbpath /var/lib/sentinel/sentinel.db block 203.0.113.7 -reason scraper",
			"sentinelctl visits -n 20",
		},
	}
}
