package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog/sqlstore"
	"github.com/lehigh-university-libraries/bepress-migrate/config"
	"github.com/lehigh-university-libraries/bepress-migrate/fetch"
	"github.com/lehigh-university-libraries/bepress-migrate/mapping"
)

// loadConfig reads the configuration file and reconfigures logging from it.
func loadConfig() (*config.Config, error) {
	cfg, path, exists, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	if !exists {
		slog.Debug("config file not found, using defaults", "path", path)
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*sqlstore.Store, error) {
	store, err := sqlstore.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	return store, nil
}

func newFetchClient(cfg *config.Config) *fetch.Client {
	return fetch.New(fetch.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		Logger:    slog.Default(),
	})
}

// loadProfile resolves the import profile: the embedded default overlaid
// with the file given on the command line or in the configuration. The
// second result is the file's own profile, nil when none is used.
func loadProfile(cfg *config.Config, flagPath string) (*mapping.Profile, *mapping.Profile, error) {
	path := flagPath
	if path == "" {
		path = cfg.Import.ProfileFile
	}
	profile, err := mapping.Resolve(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading profile: %w", err)
	}
	if path == "" {
		return profile, nil, nil
	}
	custom, err := mapping.LoadProfile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading profile: %w", err)
	}
	return profile, custom, nil
}
