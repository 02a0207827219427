package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bepress-migrate/format"
	"github.com/lehigh-university-libraries/bepress-migrate/mapping"
)

var (
	validateInput       string
	validateProfileFile string
	validateVerbose     bool
	validateRender      bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [format]",
	Short: "Validate metadata without importing",
	Long: `Validate metadata by parsing it into documents.

This command parses the input and reports what was found without touching
the catalog. Useful for checking an export before importing it.

Arguments:
  format  Input format (xml, csv); detected from the input when omitted

Input defaults to stdin. --render prints the parsed documents as a bepress
metadata export, which shows how a CSV row will look after convert-csv.

Examples:
  bepress-migrate validate -i vol1/iss1/3/metadata.xml
  bepress-migrate validate csv -i export.csv --verbose
  bepress-migrate validate -i export.csv --render
  cat metadata.xml | bepress-migrate validate xml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateInput, "input", "i", "", "Input file (default: stdin)")
	validateCmd.Flags().StringVar(&validateProfileFile, "profile-file", "", "Import profile YAML file")
	validateCmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "Show detailed information")
	validateCmd.Flags().BoolVar(&validateRender, "render", false, "Print the parsed documents as bepress XML")
}

func runValidate(cmd *cobra.Command, args []string) (err error) {
	// Determine input source
	var input io.Reader
	var inputName string

	if validateInput != "" {
		f, openErr := os.Open(validateInput)
		if openErr != nil {
			return fmt.Errorf("opening input file: %w", openErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing input file: %w", cerr)
			}
		}()
		input = f
		inputName = validateInput
	} else {
		input = os.Stdin
		inputName = "stdin"
	}

	input, peek, err := format.Peek(input)
	if err != nil {
		return err
	}
	var parser format.Parser
	if len(args) == 1 {
		parser, err = format.GetParser(args[0])
	} else {
		parser, err = detectParser(inputName, peek)
	}
	if err != nil {
		return err
	}

	profile, err := mapping.Resolve(validateProfileFile)
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}

	docs, err := parser.Parse(input, &format.ParseOptions{
		Profile:    profile,
		SourceName: inputName,
	})
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if validateRender {
		serializer, err := format.GetSerializer("xml")
		if err != nil {
			return err
		}
		return serializer.Serialize(out, docs, format.NewSerializeOptions())
	}
	fmt.Fprintf(out, "✓ Valid: parsed %d %s documents from %s\n", len(docs), parser.Name(), inputName)

	if validateVerbose {
		fmt.Fprintln(out, "\nDocument summary:")
		for i, d := range docs {
			fmt.Fprintf(out, "\n  Document %d:\n", i+1)
			fmt.Fprintf(out, "    ID: %s\n", d.ExternalID)
			fmt.Fprintf(out, "    Title: %s\n", truncate(d.Title, 60))
			fmt.Fprintf(out, "    Authors: %d\n", len(d.Authors))
			fmt.Fprintf(out, "    Keywords: %d\n", len(d.Keywords))
			fmt.Fprintf(out, "    Supplemental files: %d\n", len(d.SupplementalFiles))
			if d.PublishedAt != nil {
				fmt.Fprintf(out, "    Published: %s\n", d.PublishedAt.Format("2006-01-02"))
			}
			if d.FulltextURL != "" {
				fmt.Fprintf(out, "    Fulltext: %s\n", d.FulltextURL)
			}
			if section := d.Section(); section != "" {
				fmt.Fprintf(out, "    Section: %s\n", section)
			}
		}
	}

	return nil
}

func detectParser(inputName string, peek []byte) (format.Parser, error) {
	f, err := format.Detect(inputName, peek)
	if err != nil {
		return nil, err
	}
	p, ok := f.(format.Parser)
	if !ok {
		return nil, fmt.Errorf("format %s cannot parse", f.Name())
	}
	return p, nil
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
