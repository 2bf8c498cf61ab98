package blocklist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prankvz/sentinel/db"
)

// Block normalizes address and writes it to store with reason, or
// db.DefaultBlockReason when reason is blank. It returns the entry as
// persisted: when the address was already blocked that is the original
// entry, not the one just offered. If the read back fails the offered entry
// is returned, the block itself has succeeded.
func Block(ctx context.Context, store db.DbBlocklist, address, reason string, now time.Time) (db.BlockedIp, error) {
	addr, err := Normalize(address)
	if err != nil {
		return db.BlockedIp{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = db.DefaultBlockReason
	}

	entry := db.BlockedIp{Address: addr, Reason: reason, BlockedAt: now.UTC()}
	if err := store.InsertBlockedIp(ctx, entry); err != nil {
		return db.BlockedIp{}, fmt.Errorf("block %s: %w", addr, err)
	}

	list, err := store.ListBlockedIps(ctx)
	if err != nil {
		return entry, nil
	}
	for _, e := range list {
		if stored, err := Normalize(e.Address); err == nil && stored == addr {
			e.Address = addr
			return e, nil
		}
	}
	return entry, nil
}

// Unblock normalizes address and deletes it from store. It returns the
// normalized address.
func Unblock(ctx context.Context, store db.DbBlocklist, address string) (string, error) {
	addr, err := Normalize(address)
	if err != nil {
		return "", err
	}
	if err := store.DeleteBlockedIp(ctx, addr); err != nil {
		return "", fmt.Errorf("unblock %s: %w", addr, err)
	}
	return addr, nil
}
