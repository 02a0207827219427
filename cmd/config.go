package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bepress-migrate/config"
)

var (
	configInitPath      string
	configInitOverwrite bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a sample configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := strings.TrimSpace(configInitPath)
		if target == "" {
			target = configPath
		}
		var err error
		if target == "" {
			target, err = config.DefaultConfigPath()
		} else {
			target, err = config.ExpandPath(target)
		}
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}

		if !configInitOverwrite {
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("check config path: %w", err)
			}
		}

		if err := config.CreateSample(target); err != nil {
			return fmt.Errorf("create sample config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, exists, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		data, err := cfg.Encode()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if exists {
			fmt.Fprintf(out, "# %s\n", path)
		} else {
			fmt.Fprintf(out, "# %s does not exist; defaults shown\n", path)
		}
		_, err = out.Write(data)
		return err
	},
}

func init() {
	configInitCmd.Flags().StringVarP(&configInitPath, "path", "p", "", "Destination for the configuration file")
	configInitCmd.Flags().BoolVar(&configInitOverwrite, "overwrite", false, "Overwrite existing configuration if present")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
