package main

import (
	"fmt"
	"io"

	"github.com/dgnsrekt/nudge/internal/settings"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Read and change the saved preferences",
		Long: paragraph(fmt.Sprintf("\nThe same preferences as the settings screen, stored as one %s object in the user data directory.",
			keyword("JSON"))),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return settingsGetCmd.RunE(cmd, nil)
		},
	}

	settingsGetCmd = &cobra.Command{
		Use:   "get [KEY]",
		Short: "Print one setting, or all of them",
		Args:  cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return settings.Keys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openSettings()
			if err != nil {
				return err
			}
			return printSettings(cmd.OutOrStdout(), st.Get(), args)
		},
	}

	settingsSetCmd = &cobra.Command{
		Use:     "set KEY VALUE",
		Short:   "Change a setting",
		Example: paragraph("nudge settings set minutes 25\nnudge settings set randomMode true\nnudge settings set speechRate 1.2"),
		Args:    cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return settings.Keys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openSettings()
			if err != nil {
				return err
			}
			if err := st.Update(args[0], args[1]); err != nil {
				return fmt.Errorf("unable to set %s: %w", args[0], err)
			}
			// the store may have clamped the value
			v, _ := st.Get().Value(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", args[0], v)
			return nil
		},
	}

	settingsResetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openSettings()
			if err != nil {
				return err
			}
			if err := st.Reset(); err != nil {
				return fmt.Errorf("unable to reset settings: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings restored to defaults")
			return nil
		},
	}

	settingsExportCmd = &cobra.Command{
		Use:   "export",
		Short: "Print the settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openSettings()
			if err != nil {
				return err
			}
			return exportSettings(cmd.OutOrStdout(), st.Get())
		},
	}
)

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd, settingsResetCmd, settingsExportCmd)
}

func printSettings(w io.Writer, s settings.Settings, keys []string) error {
	if len(keys) == 1 {
		v, err := s.Value(keys[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, v)
		return nil
	}

	width := 0
	for _, k := range settings.Keys() {
		width = max(width, runewidth.StringWidth(k))
	}
	for _, k := range settings.Keys() {
		v, _ := s.Value(k)
		fmt.Fprintf(w, "%s %v\n", subtle(runewidth.FillRight(k, width)), v)
	}
	return nil
}

func exportSettings(w io.Writer, s settings.Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("unable to encode settings: %w", err)
	}
	return enc.Close()
}
