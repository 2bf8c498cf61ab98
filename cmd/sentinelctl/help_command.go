package main

import (
	"flag"
	"fmt"
	"io"
)

var commandHelps = map[string]CommandHelp{
	"init": {
		Usage:       "sentinelctl [-dbpath path] init",
		Description: "Create the database file and its tables. Fails if the file exists.",
	},
	"block": {
		Usage:       "sentinelctl block <ip> [-reason text]",
		Description: "Block an IPv4 or IPv6 address. Blocking a blocked address keeps the original entry.",
		Examples:    []string{"sentinelctl block 203.0.113.7 -reason scraper"},
	},
	"unblock": {
		Usage:       "sentinelctl unblock <ip>",
		Description: "Remove an address from the blocklist. Unblocking an unlisted address succeeds.",
	},
	"blocked": {
		Usage:       "sentinelctl blocked",
		Description: "List blocked addresses with the time and reason of the block.",
	},
	"visits": {
		Usage:       "sentinelctl visits [-n count]",
		Description: "Show the most recent visits, newest first. Defaults to 10.",
	},
	"hash-password": {
		Usage:       "sentinelctl hash-password <password>",
		Description: "Print the bcrypt hash of password for admin.password_hash.",
	},
	"help": {
		Usage:       "sentinelctl help [command]",
		Description: "Show help for a command.",
	},
}

func handleHelpCommand(stdout io.Writer, global *flag.FlagSet, args []string) error {
	if len(args) == 0 {
		help := mainHelp(global)
		help.Print(stdout, "sentinelctl")
		return nil
	}
	help, ok := commandHelps[args[0]]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	help.Print(stdout)
	return nil
}
