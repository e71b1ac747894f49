package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fontanka/edc-check/internal/cli"
	"github.com/fontanka/edc-check/internal/config"
)

func tuningCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tuning",
		Short: "Manage custom include and exclude keywords",
		Long: `Custom excludes block a match before anything else is checked; custom
includes match before the built-in vocabulary. Keywords match on word
boundaries, case-insensitively, and are saved to tuning.path.`,
	}

	cmd.AddCommand(tuningListCmd())
	cmd.AddCommand(tuningEditCmd("include", "Always classify terms containing a keyword as a match",
		(*config.TuningStore).AddInclude, "Added custom include", "already a custom include"))
	cmd.AddCommand(tuningEditCmd("exclude", "Never classify terms containing a keyword as a match",
		(*config.TuningStore).AddExclude, "Added custom exclude", "already a custom exclude"))
	cmd.AddCommand(tuningEditCmd("remove-include", "Remove custom include keywords",
		(*config.TuningStore).RemoveInclude, "Removed custom include", "not a custom include"))
	cmd.AddCommand(tuningEditCmd("remove-exclude", "Remove custom exclude keywords",
		(*config.TuningStore).RemoveExclude, "Removed custom exclude", "not a custom exclude"))

	return cmd
}

func tuningListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List custom keywords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tuning, err := openTuning()
			if err != nil {
				return err
			}
			snapshot := tuning.Tuning().Snapshot()

			content := fmt.Sprintf("Includes: %s\nExcludes: %s",
				keywordList(snapshot.Includes), keywordList(snapshot.Excludes))
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Tuning ("+tuning.Path()+")", content))
			return nil
		},
	}
}

type tuningEdit func(*config.TuningStore, string) (bool, error)

func tuningEditCmd(use, short string, edit tuningEdit, done, unchanged string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <keyword>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tuning, err := openTuning()
			if err != nil {
				return err
			}
			return applyTuningEdits(cmd, tuning, args, edit, done, unchanged)
		},
	}
}

func applyTuningEdits(cmd *cobra.Command, tuning *config.TuningStore, keywords []string, edit tuningEdit, done, unchanged string) error {
	out := cmd.OutOrStdout()
	for _, keyword := range keywords {
		changed, err := edit(tuning, keyword)
		if err != nil {
			return err
		}
		if changed {
			_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s %q", done, keyword)))
		} else {
			_, _ = fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%q is %s", keyword, unchanged)))
		}
	}
	return nil
}

func keywordList(keywords []string) string {
	if len(keywords) == 0 {
		return cli.SubtleStyle.Render("(none)")
	}
	return strings.Join(keywords, ", ")
}
