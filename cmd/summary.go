package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/lehigh-university-libraries/bepress-migrate/archive"
)

// printSummary writes a table on terminals and key=value lines otherwise.
func printSummary(w io.Writer, s archive.Summary) error {
	rows := [][2]string{
		{"export", s.Export},
		{"processed", strconv.Itoa(s.Processed)},
		{"created", strconv.Itoa(s.Created)},
		{"updated", strconv.Itoa(s.Updated)},
		{"failed", strconv.Itoa(s.Failed)},
		{"skipped", strconv.Itoa(s.Skipped)},
		{"books", strconv.Itoa(s.Books)},
		{"duration", s.Duration.Round(time.Millisecond).String()},
	}

	if !isTerminal(w) {
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, "%s=%s\n", r[0], r[1]); err != nil {
				return err
			}
		}
		return nil
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Result", "Count"})
	for _, r := range rows {
		tw.AppendRow(table.Row{r[0], r[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
