// Package config loads spinpick settings from SPINPICK_* environment
// variables. Command-line flags override what is loaded here.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
	StoreMemory = "memory"
)

// Config holds every setting shared by the spinpick commands.
type Config struct {
	// DBPath locates the result store. Empty means the per-user default.
	DBPath string `env:"SPINPICK_DB"`
	Store  string `env:"SPINPICK_STORE" envDefault:"sqlite"`

	// Catalog is a YAML or CUE movie file. Empty means the built-in catalog.
	Catalog string `env:"SPINPICK_CATALOG"`

	// ProviderURL points at a remote spinpick server to fetch candidates
	// from instead of a local catalog.
	ProviderURL string `env:"SPINPICK_PROVIDER_URL"`

	SpinDuration time.Duration `env:"SPINPICK_SPIN_DURATION" envDefault:"4s"`
	Candidates   int           `env:"SPINPICK_CANDIDATES" envDefault:"8"`
	Tags         []string      `env:"SPINPICK_TAGS" envSeparator:","`

	Addr     string     `env:"SPINPICK_ADDR" envDefault:"127.0.0.1:8080"`
	LogLevel slog.Level `env:"SPINPICK_LOG_LEVEL" envDefault:"info"`
	Watch    bool       `env:"SPINPICK_WATCH"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges. It is called again after flag overrides.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreFile, StoreMemory:
	default:
		return fmt.Errorf("invalid store %q: want sqlite, file or memory", c.Store)
	}
	if c.Candidates < 1 {
		return fmt.Errorf("invalid candidates %d: must be at least 1", c.Candidates)
	}
	if c.SpinDuration < 0 {
		return fmt.Errorf("invalid spin duration %s: must not be negative", c.SpinDuration)
	}
	if c.Catalog != "" && c.ProviderURL != "" {
		return fmt.Errorf("catalog and provider url are mutually exclusive")
	}
	return nil
}

// StorePath returns DBPath, or the default location for the configured
// backend under the user config directory.
func (c Config) StorePath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	name := "last-outcome.db"
	if c.Store == StoreFile {
		name = "last-outcome.json"
	}
	return filepath.Join(dir, "spinpick", name), nil
}
