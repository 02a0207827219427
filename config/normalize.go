package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeImport()
	c.normalizeHTTP()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ArchiveRoot, err = expandPath(strings.TrimSpace(c.Paths.ArchiveRoot)); err != nil {
		return fmt.Errorf("paths.archive_root: %w", err)
	}
	if c.Paths.FilesDir, err = expandPath(strings.TrimSpace(c.Paths.FilesDir)); err != nil {
		return fmt.Errorf("paths.files_dir: %w", err)
	}
	if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	if c.Import.ProfileFile, err = expandPath(strings.TrimSpace(c.Import.ProfileFile)); err != nil {
		return fmt.Errorf("import.profile_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = defaultStoreDriver
	}
	if value, ok := os.LookupEnv("BEPRESS_MIGRATE_DSN"); ok && strings.TrimSpace(value) != "" {
		c.Store.DSN = value
	}
	c.Store.DSN = strings.TrimSpace(c.Store.DSN)
	if c.Store.Driver == defaultStoreDriver {
		dsn, err := expandPath(c.Store.DSN)
		if err != nil {
			return fmt.Errorf("store.dsn: %w", err)
		}
		c.Store.DSN = dsn
	}
	return nil
}

func (c *Config) normalizeImport() {
	c.Import.Structure = strings.ToLower(strings.TrimSpace(c.Import.Structure))
	if c.Import.Structure == "" {
		c.Import.Structure = defaultStructure
	}
	c.Import.JournalCode = strings.TrimSpace(c.Import.JournalCode)
	c.Import.JournalName = strings.TrimSpace(c.Import.JournalName)
	c.Import.DummyEmailDomain = strings.TrimSpace(c.Import.DummyEmailDomain)
	if c.Import.DummyEmailDomain == "" {
		c.Import.DummyEmailDomain = defaultDummyEmailDomain
	}
	if c.Import.Workers <= 0 {
		c.Import.Workers = defaultWorkers
	}
}

func (c *Config) normalizeHTTP() {
	if c.HTTP.TimeoutSeconds <= 0 {
		c.HTTP.TimeoutSeconds = defaultHTTPTimeout
	}
	c.HTTP.UserAgent = strings.TrimSpace(c.HTTP.UserAgent)
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
