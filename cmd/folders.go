package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bepress-migrate/archive"
)

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List the export folders under the archive root",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		folders, err := archive.Folders(cfg.Paths.ArchiveRoot)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(folders) == 0 {
			fmt.Fprintf(out, "No exports found in %s\n", cfg.Paths.ArchiveRoot)
			return nil
		}
		for _, name := range folders {
			fmt.Fprintln(out, name)
		}
		return nil
	},
}
