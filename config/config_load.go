package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: failed to load env file %s: %w", path, err)
	}
	return nil
}

// Parse decodes TOML on top of the defaults, applies environment overrides
// and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal TOML: %w", err)
	}
	ApplyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadFromFile reads the TOML file at path. An empty path yields the
// defaults plus environment overrides.
func LoadFromFile(path string, logger *slog.Logger) (*Config, error) {
	if path == "" {
		logger.Info("no config file given, using defaults")
		cfg, err := Parse(nil)
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		logger.Error("failed to load configuration", "path", path, "error", err)
		return nil, err
	}
	cfg.Source = path

	logger.Info("successfully loaded configuration", "path", path)
	return cfg, nil
}

// ApplyEnv overrides secrets with non-empty environment variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvJwtSecret); v != "" {
		cfg.Jwt.AuthSecret = v
	}
	if v := os.Getenv(EnvAdminPasswordHash); v != "" {
		cfg.Admin.PasswordHash = v
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		cfg.Storage.RedisPassword = v
	}
}
