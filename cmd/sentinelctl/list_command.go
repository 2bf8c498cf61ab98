package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/prankvz/sentinel/db"
)

const (
	defaultVisitsLimit = 10
	maxUserAgentWidth  = 60
)

func handleBlocked(ctx context.Context, stdout io.Writer, dbConn db.DbBlocklist, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: blocked takes no arguments", ErrTooManyArguments)
	}
	return listBlocked(ctx, stdout, dbConn)
}

func listBlocked(ctx context.Context, stdout io.Writer, dbConn db.DbBlocklist) error {
	entries, err := dbConn.ListBlockedIps(ctx)
	if err != nil {
		return fmt.Errorf("%w blocked addresses: %v", ErrListFailed, err)
	}

	if len(entries) == 0 {
		if _, err := fmt.Fprintln(stdout, "No blocked addresses."); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tBLOCKED AT\tREASON")
	fmt.Fprintln(w, "-------\t----------\t------")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Address, e.BlockedAt.Format(time.RFC3339), e.Reason)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

func handleVisits(ctx context.Context, stdout io.Writer, dbConn db.DbVisit, args []string) error {
	fs := flag.NewFlagSet("visits", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	limit := fs.Int("n", defaultVisitsLimit, "Number of visits to show")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected %q", ErrTooManyArguments, fs.Arg(0))
	}
	return listVisits(ctx, stdout, dbConn, *limit)
}

// listVisits prints the newest visits first.
func listVisits(ctx context.Context, stdout io.Writer, dbConn db.DbVisit, limit int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: -n must be positive", ErrInvalidFlag)
	}
	visits, err := dbConn.RecentVisits(ctx, limit)
	if err != nil {
		return fmt.Errorf("%w visits: %v", ErrListFailed, err)
	}

	if len(visits) == 0 {
		if _, err := fmt.Fprintln(stdout, "No visits recorded."); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIMESTAMP\tIP\tUSER AGENT")
	fmt.Fprintln(w, "--\t---------\t--\t----------")
	for _, v := range visits {
		ua := v.UserAgent
		if len(ua) > maxUserAgentWidth {
			ua = ua[:maxUserAgentWidth-3] + "..."
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", v.ID, v.Timestamp.Format(time.RFC3339), v.IP, ua)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}
