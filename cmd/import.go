package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bepress-migrate/archive"
	"github.com/lehigh-university-libraries/bepress-migrate/config"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
	"github.com/lehigh-university-libraries/bepress-migrate/mapping"
	"github.com/lehigh-university-libraries/bepress-migrate/storage"
)

var (
	importProfileFile    string
	importStructure      string
	importStamped        bool
	importDefaultSection string
	importSectionField   string
	importPath           string
	importWorkers        int
	importDryRun         bool
	importJournalCode    string
	importJournalName    string
	importDummyAccounts  bool
)

var importCmd = &cobra.Command{
	Use:   "import <export-name>",
	Short: "Import a bepress export directory into the catalog",
	Long: `Import every metadata.xml below {archive_root}/<export-name>.

The structure decides how directories map onto issues:
  journal  vol{N}/iss{M}/{id}
  series   one issue per publication year
  events   {year}/... grouped into yearly collections
  books    documents are chapters of the book named by publication-title

Command-line flags override the import profile, which overrides the
configuration file.

Examples:
  bepress-migrate import law-review
  bepress-migrate import law-review --import-path vol12 --dry-run
  bepress-migrate import conference --structure events --workers 4
  bepress-migrate import press --structure books`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importProfileFile, "profile-file", "", "Import profile YAML file")
	importCmd.Flags().StringVar(&importStructure, "structure", "", "Export structure (journal, series, events, books)")
	importCmd.Flags().BoolVar(&importStamped, "stamped", false, "Fetch the cover-stamped PDF variant")
	importCmd.Flags().StringVar(&importDefaultSection, "default-section", "", "Section for documents that name none")
	importCmd.Flags().StringVar(&importSectionField, "section-field", "", "Generic field holding the section title")
	importCmd.Flags().StringVar(&importPath, "import-path", "", "Only import directories whose path contains this value")
	importCmd.Flags().IntVar(&importWorkers, "workers", 0, "Top-level subtrees imported concurrently")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse every document without writing to the catalog")
	importCmd.Flags().StringVar(&importJournalCode, "journal-code", "", "Journal code (default: export name)")
	importCmd.Flags().StringVar(&importJournalName, "journal-name", "", "Journal name (default: journal code)")
	importCmd.Flags().BoolVar(&importDummyAccounts, "dummy-accounts", false, "Link authors without an email to a synthesized account")
}

func runImport(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	profile, custom, err := loadProfile(cfg, importProfileFile)
	if err != nil {
		return err
	}
	driverCfg, err := importSettings(cmd, cfg, custom)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing catalog: %w", cerr)
		}
	}()

	driver, err := archive.New(driverCfg, store, newFetchClient(cfg), storage.NewDisk(cfg.Paths.FilesDir), profile)
	if err != nil {
		return err
	}
	summary, err := driver.Run(ctx, args[0])
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}
	return printSummary(cmd.OutOrStdout(), summary)
}

// importSettings merges flags over the profile file over the configuration
// file. profile holds only the values the profile file sets.
func importSettings(cmd *cobra.Command, cfg *config.Config, profile *mapping.Profile) (archive.Config, error) {
	out := archive.Config{
		ArchiveRoot:      cfg.Paths.ArchiveRoot,
		JournalCode:      cfg.Import.JournalCode,
		JournalName:      cfg.Import.JournalName,
		SectionField:     cfg.Import.SectionField,
		DefaultSection:   cfg.Import.DefaultSection,
		DummyAccounts:    cfg.Import.DummyAccounts,
		DummyEmailDomain: cfg.Import.DummyEmailDomain,
		Stamped:          cfg.Import.Stamped,
		Workers:          cfg.Import.Workers,
		MetricsFile:      cfg.Metrics.Textfile,
		Logger:           slog.Default(),
	}
	structure := cfg.Import.Structure

	if profile != nil {
		if profile.Structure != "" {
			structure = profile.Structure
		}
		if profile.Stamped != nil {
			out.Stamped = *profile.Stamped
		}
		if profile.SectionField != "" {
			out.SectionField = profile.SectionField
		}
		if profile.DefaultSection != "" {
			out.DefaultSection = profile.DefaultSection
		}
	}

	flags := cmd.Flags()
	if flags.Changed("structure") {
		structure = importStructure
	}
	if flags.Changed("stamped") {
		out.Stamped = importStamped
	}
	if flags.Changed("default-section") {
		out.DefaultSection = importDefaultSection
	}
	if flags.Changed("section-field") {
		out.SectionField = importSectionField
	}
	if flags.Changed("workers") {
		out.Workers = importWorkers
	}
	if flags.Changed("journal-code") {
		out.JournalCode = importJournalCode
	}
	if flags.Changed("journal-name") {
		out.JournalName = importJournalName
	}
	if flags.Changed("dummy-accounts") {
		out.DummyAccounts = importDummyAccounts
	}
	out.ImportPath = importPath
	out.DryRun = importDryRun

	kind, err := hub.ParseStructureKind(structure)
	if err != nil {
		return out, err
	}
	out.Structure = kind
	return out, nil
}

