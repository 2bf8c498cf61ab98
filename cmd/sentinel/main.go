// Command sentinel serves the visit log and admin API behind the blocklist
// gate.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/prankvz/sentinel"
	"github.com/prankvz/sentinel/config"
	"github.com/prankvz/sentinel/log"
)

func main() {
	configPath := flag.String("config", "", "Path to the TOML configuration file")
	envFile := flag.String("env", ".env", "Optional file with KEY=VALUE secrets loaded into the environment")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	_, srv, err := sentinel.New(sentinel.WithConfigPath(*configPath))
	if err != nil {
		logger := slog.New(log.NewConsoleHandler(config.LogFormatJson, os.Stderr, slog.LevelInfo))
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	srv.Run()
}
