// Package config loads the TOML configuration of bepress-migrate.
//
// Values are read from ~/.config/bepress-migrate/config.toml unless a path
// is given. Path fields accept a leading ~ and are made absolute; the
// database DSN of the sqlite driver is a file path and is expanded the same
// way.
package config
