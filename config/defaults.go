package config

const (
	defaultConfigPath       = "~/.config/bepress-migrate/config.toml"
	defaultArchiveRoot      = "~/bepress"
	defaultFilesDir         = "~/.local/share/bepress-migrate/files"
	defaultStoreDriver      = "sqlite"
	defaultStoreDSN         = "~/.local/share/bepress-migrate/catalog.db"
	defaultStructure        = "journal"
	defaultSection          = "Articles"
	defaultDummyEmailDomain = "bepress-import.invalid"
	defaultWorkers          = 1
	defaultHTTPTimeout      = 30
	defaultUserAgent        = "bepress-migrate/1.0"
	defaultLogFormat        = "text"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ArchiveRoot: defaultArchiveRoot,
			FilesDir:    defaultFilesDir,
		},
		Store: Store{
			Driver: defaultStoreDriver,
			DSN:    defaultStoreDSN,
		},
		Import: Import{
			Structure:        defaultStructure,
			DefaultSection:   defaultSection,
			DummyEmailDomain: defaultDummyEmailDomain,
			Workers:          defaultWorkers,
		},
		HTTP: HTTP{
			TimeoutSeconds: defaultHTTPTimeout,
			UserAgent:      defaultUserAgent,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
