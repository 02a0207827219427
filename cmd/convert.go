package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bepress-migrate/format"
	"github.com/lehigh-university-libraries/bepress-migrate/format/bepresscsv"
)

var (
	convertOutputRoot string
	convertProfile    string
	convertNoScrape   bool
	convertDryRun     bool
	convertStripHTML  bool
	convertStamped    bool
)

var convertCmd = &cobra.Command{
	Use:   "convert-csv <csv-path>",
	Short: "Convert a bepress CSV export into a metadata.xml tree",
	Long: `Convert every row of a bepress batch CSV export into
{root}/{issue}/{article_id}/metadata.xml so the result can be imported
with the import command.

Rows without a fulltext URL or article id are completed from their
landing page (calc_url) unless --no-scrape is given.

Input "-" reads from stdin. --dry-run prints the rendered XML instead of
writing files.

Examples:
  bepress-migrate convert-csv export.csv
  bepress-migrate convert-csv export.csv --output-root /tmp/bepress --no-scrape
  cat export.csv | bepress-migrate convert-csv - --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutputRoot, "output-root", "o", "", "Directory the tree is written under (default: archive root)")
	convertCmd.Flags().StringVar(&convertProfile, "profile-file", "", "Import profile YAML file (CSV delimiter, keyword separator)")
	convertCmd.Flags().BoolVar(&convertNoScrape, "no-scrape", false, "Do not fetch landing pages for missing fulltext URLs")
	convertCmd.Flags().BoolVar(&convertDryRun, "dry-run", false, "Print rendered XML instead of writing files")
	convertCmd.Flags().BoolVar(&convertStripHTML, "strip-html", false, "Strip HTML from titles and keywords")
	convertCmd.Flags().BoolVar(&convertStamped, "stamped", false, "Rewrite scraped PDF links to the cover-stamped variant")
}

func runConvert(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	profile, _, err := loadProfile(cfg, convertProfile)
	if err != nil {
		return err
	}

	var (
		input     io.Reader
		inputName string
	)
	if args[0] == "-" {
		input = os.Stdin
		inputName = "stdin"
	} else {
		f, openErr := os.Open(args[0])
		if openErr != nil {
			return fmt.Errorf("opening input file: %w", openErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing input file: %w", cerr)
			}
		}()
		input = f
		inputName = args[0]
	}

	parser, err := format.GetParser("csv")
	if err != nil {
		return err
	}
	input, peek, err := format.Peek(input)
	if err != nil {
		return err
	}
	if !parser.CanParse(peek) {
		return fmt.Errorf("%s is not a bepress CSV export (want a header with title and author1_ columns)", inputName)
	}
	docs, err := parser.Parse(input, &format.ParseOptions{
		Profile:    profile,
		StripHTML:  convertStripHTML,
		SourceName: inputName,
	})
	if err != nil {
		return fmt.Errorf("parsing input: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Parsed %d records\n", len(docs))

	root := convertOutputRoot
	if root == "" {
		root = cfg.Paths.ArchiveRoot
	}
	converter := &bepresscsv.Converter{
		Root:   root,
		DryRun: convertDryRun,
	}
	if !convertNoScrape {
		stamped := cfg.Import.Stamped || convertStamped || profile.IsStamped()
		converter.Scraper = bepresscsv.NewScraper(newFetchClient(cfg), stamped, nil)
	}

	outputs, err := converter.Convert(cmd.Context(), docs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if convertDryRun {
		for _, o := range outputs {
			fmt.Fprint(out, o.XML)
			if !strings.HasSuffix(o.XML, "\n") {
				fmt.Fprintln(out)
			}
		}
		return nil
	}
	fmt.Fprintf(out, "Wrote %d of %d documents under %s\n", len(outputs), len(docs), root)
	return nil
}
