// Package cmd provides CLI commands for bepress-migrate.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var configPath string

// setupLogger installs the default logger. LOG_LEVEL overrides the
// configured level.
func setupLogger(level, format string) {
	logLevel := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = strings.ToUpper(level)
	}

	var lvl slog.Level
	switch logLevel {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "INFO":
		lvl = slog.LevelInfo
	case "WARN", "WARNING":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: lvl,
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

var rootCmd = &cobra.Command{
	Use:   "bepress-migrate",
	Short: "Import bepress Digital Commons exports into a scholarly catalog",
	Long: `bepress-migrate reconciles bepress / Digital Commons exports into a
scholarly publishing catalog of articles, issues, authors and files.

Exports arrive either as a directory tree of metadata.xml files with their
payloads, or as a CSV export that is first converted into such a tree.
Every import is idempotent: re-running an export updates the records it
created before.

Examples:
  bepress-migrate config init
  bepress-migrate folders
  bepress-migrate convert-csv export.csv
  bepress-migrate import law-review --structure journal
  bepress-migrate harvest https://digitalcommons.example.edu/do/oai/ --set publication:lawreview
  bepress-migrate validate xml -i metadata.xml`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	setupLogger("", "")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: ~/.config/bepress-migrate/config.toml)")
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(harvestCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(foldersCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(profilesCmd)
}
