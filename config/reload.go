package config

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
)

// restartFields lists settings that only take effect on process start. A
// reload still stores them, but they are reported so the operator knows.
var restartFields = []string{
	"Server.Addr",
	"Server.ReadTimeout",
	"Server.ReadHeaderTimeout",
	"Server.WriteTimeout",
	"Server.IdleTimeout",
	"Storage",
	"Log.Format",
	"Log.Batch",
	"Metrics.Activated",
	"Metrics.Endpoint",
	"Endpoints",
	"BlockIp.RefreshInterval",
}

func fieldByPath(v reflect.Value, path string) reflect.Value {
	for _, name := range strings.Split(path, ".") {
		v = v.FieldByName(name)
	}
	return v
}

// checkChangedRestartFields returns the restart-only fields that differ.
func checkChangedRestartFields(oldCfg, newCfg *Config) []string {
	changed := []string{}
	ov := reflect.ValueOf(oldCfg).Elem()
	nv := reflect.ValueOf(newCfg).Elem()
	for _, path := range restartFields {
		if !reflect.DeepEqual(fieldByPath(ov, path).Interface(), fieldByPath(nv, path).Interface()) {
			changed = append(changed, path)
		}
	}
	return changed
}

// Reload returns a function that re-reads path, validates it and swaps it
// into provider. On any error the current configuration stays in place.
func Reload(path string, provider *Provider, logger *slog.Logger) func() error {
	return func() error {
		logger.Debug("Reload: attempting to load configuration", "path", path)
		newCfg, err := LoadFromFile(path, logger)
		if err != nil {
			logger.Error("Reload: failed to load configuration", "path", path, "error", err)
			return fmt.Errorf("failed to reload configuration from %s: %w", path, err)
		}

		if changed := checkChangedRestartFields(provider.Get(), newCfg); len(changed) > 0 {
			logger.Warn("Reload: some changed fields take effect only after restart", "fields", changed)
		}

		provider.Update(newCfg)
		logger.Info("Reload: configuration successfully reloaded", "path", path)
		return nil
	}
}
