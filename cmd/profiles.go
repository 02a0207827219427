package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/bepress-migrate/mapping"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage import profiles",
	Long:  `List and inspect the embedded import profiles.`,
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := mapping.NewProfileRegistry()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		profiles := registry.List()
		if len(profiles) == 0 {
			fmt.Fprintln(out, "No profiles found")
			return nil
		}

		fmt.Fprintln(out, "Available profiles:")
		for _, name := range profiles {
			profile, _ := registry.Get(name)
			desc := ""
			if profile.Description != "" {
				desc = " - " + profile.Description
			}
			fmt.Fprintf(out, "  %s%s\n", name, desc)
		}

		return nil
	},
}

var profilesShowCmd = &cobra.Command{
	Use:   "show [profile]",
	Short: "Show profile details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := lookupProfile(args[0])
		if err != nil {
			return err
		}

		// Print as YAML
		out, err := yaml.Marshal(profile)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var profilesFieldsCmd = &cobra.Command{
	Use:   "fields [profile]",
	Short: "List the custom fields of a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := lookupProfile(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Custom fields in %s profile:\n\n", profile.Name)
		fmt.Fprintf(out, "%-30s -> %-25s %s\n", "bepress Field", "Catalog Field", "Options")
		fmt.Fprintf(out, "%-30s    %-25s %s\n", "-------------", "-------------", "-------")

		for _, source := range profile.CustomFieldNames() {
			m, _ := profile.GetFieldMapping(source)
			opts := ""
			if m.Transform != "" {
				opts = m.Transform
			}
			if m.Default != "" {
				if opts != "" {
					opts += ", "
				}
				opts += "default:" + m.Default
			}
			fmt.Fprintf(out, "%-30s -> %-25s %s\n", source, m.Field, opts)
		}

		return nil
	},
}

func lookupProfile(name string) (*mapping.Profile, error) {
	registry, err := mapping.NewProfileRegistry()
	if err != nil {
		return nil, err
	}
	profile, ok := registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown profile: %s", name)
	}
	return profile, nil
}

func init() {
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesShowCmd)
	profilesCmd.AddCommand(profilesFieldsCmd)
}
