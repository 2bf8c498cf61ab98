package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/prankvz/sentinel/blocklist"
	"github.com/prankvz/sentinel/db"
)

// parseWithPositional parses fs allowing flags before and after a single
// positional argument, e.g. "block 10.0.0.1 -reason spam".
func parseWithPositional(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}
	if fs.NArg() < 1 {
		return "", fmt.Errorf("%w: %s requires an ip address", ErrMissingArgument, fs.Name())
	}
	positional := fs.Arg(0)
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}
	if fs.NArg() > 0 {
		return "", fmt.Errorf("%w: unexpected %q", ErrTooManyArguments, fs.Arg(0))
	}
	return positional, nil
}

func handleBlock(ctx context.Context, stdout io.Writer, dbConn db.DbBlocklist, args []string) error {
	fs := flag.NewFlagSet("block", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	reason := fs.String("reason", "", "Reason stored with the block")
	address, err := parseWithPositional(fs, args)
	if err != nil {
		return err
	}
	return blockIp(ctx, stdout, dbConn, address, *reason, time.Now())
}

// blockIp stores address. Blocking a blocked address keeps the original
// entry, which is what gets printed.
func blockIp(ctx context.Context, stdout io.Writer, dbConn db.DbBlocklist, address, reason string, now time.Time) error {
	entry, err := blocklist.Block(ctx, dbConn, address, reason, now)
	if errors.Is(err, db.ErrInvalidInput) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlockFailed, err)
	}

	if _, err := fmt.Fprintf(stdout, "Blocked %s (%s)\n", entry.Address, entry.Reason); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

func handleUnblock(ctx context.Context, stdout io.Writer, dbConn db.DbBlocklist, args []string) error {
	fs := flag.NewFlagSet("unblock", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	address, err := parseWithPositional(fs, args)
	if err != nil {
		return err
	}
	return unblockIp(ctx, stdout, dbConn, address)
}

func unblockIp(ctx context.Context, stdout io.Writer, dbConn db.DbBlocklist, address string) error {
	addr, err := blocklist.Unblock(ctx, dbConn, address)
	if errors.Is(err, db.ErrInvalidInput) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnblockFailed, err)
	}
	if _, err := fmt.Fprintf(stdout, "Unblocked %s\n", addr); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}
