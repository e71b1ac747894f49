package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fontanka/edc-check/internal/common"
	"github.com/fontanka/edc-check/internal/source"
	"github.com/fontanka/edc-check/internal/tui"
	"github.com/fontanka/edc-check/internal/tui/themes"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <patient-id>",
		Short: "Review one patient's events interactively",
		Long: `Open the review screen for one patient. Step through the pre- and
post-treatment events, include or exclude them, add notes and add missed
hospitalizations. Each change is saved to the review log immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: runReview,
	}

	cmd.Flags().String("theme", "", "color theme (default, catppuccin)")
	_ = viper.BindPFlag("review.theme", cmd.Flags().Lookup("theme"))

	return cmd
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	patientID := source.NormalizePatientID(args[0])

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if !a.engine.Dataset().HasPatient(patientID) {
		return common.NewUserError(fmt.Sprintf("Patient %s is not in the main table", args[0]), common.ErrNotFound)
	}

	err = tui.Run(ctx, tui.Config{
		Summarizer: a.engine,
		Reviewer:   a.overrides,
		PatientID:  patientID,
	}, tui.WithTheme(themes.ByName(viper.GetString("review.theme"))))
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
