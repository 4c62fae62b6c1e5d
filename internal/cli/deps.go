package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/spinpick/internal/catalog"
	"github.com/roach88/spinpick/internal/config"
	"github.com/roach88/spinpick/internal/reveal"
	"github.com/roach88/spinpick/internal/selection"
	"github.com/roach88/spinpick/internal/store"
)

// openStore opens the configured result store backend.
func openStore(cfg config.Config) (store.Backend, error) {
	if cfg.Store == config.StoreMemory {
		return store.NewMemoryStore(), nil
	}

	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	slog.Debug("opening result store", "backend", cfg.Store, "path", path)

	if cfg.Store == config.StoreFile {
		return store.NewFileStore(path), nil
	}
	return store.Open(path)
}

// openCatalog loads the configured catalog file, or the built-in one.
func openCatalog(cfg config.Config, rng selection.RNG) (*catalog.Local, error) {
	if cfg.Catalog == "" {
		return catalog.Default(rng)
	}
	return catalog.OpenLocal(cfg.Catalog, rng)
}

// openProvider returns where reveal candidates come from: the remote
// server when a provider URL is set, the local catalog otherwise.
func openProvider(cfg config.Config, rng selection.RNG) (reveal.Provider, error) {
	if cfg.ProviderURL != "" {
		slog.Debug("using remote provider", "url", cfg.ProviderURL)
		return catalog.NewClient(cfg.ProviderURL, nil)
	}
	return openCatalog(cfg, rng)
}

// controllerOptions maps the config onto controller options.
func controllerOptions(cfg config.Config, rng selection.RNG) []reveal.Option {
	return []reveal.Option{
		reveal.WithRNG(rng),
		reveal.WithSpinDuration(cfg.SpinDuration),
		reveal.WithDesiredCount(cfg.Candidates),
	}
}
