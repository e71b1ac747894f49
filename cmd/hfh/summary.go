package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fontanka/edc-check/internal/cli"
	"github.com/fontanka/edc-check/internal/common"
	"github.com/fontanka/edc-check/internal/engine"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count hospitalizations for every patient",
		Long: `Summarize every patient in the main table: the number of distinct heart
failure hospitalization dates in the six month and one year windows before
and after treatment, with reviewer edits applied.

Press Ctrl+C to stop early; the patients finished so far are still shown.`,
		Args: cobra.NoArgs,
		RunE: runSummary,
	}

	cmd.Flags().Bool("no-progress", false, "Hide the progress bar")

	return cmd
}

func runSummary(cmd *cobra.Command, _ []string) error {
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	handler := cli.NewInterruptHandler(os.Stderr)
	ctx, stop := handler.HandleInterrupts(cmd.Context())
	defer stop()

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	summaries, err := a.summarizeAll(ctx, !noProgress)
	if err != nil && !handler.WasInterrupted() {
		return fmt.Errorf("failed to summarize patients: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, cli.FormatTitle("HF hospitalizations"))
	_, _ = fmt.Fprintln(out, cli.RenderSummaryTable(summaries))

	if handler.WasInterrupted() {
		_, _ = fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Stopped after %d of %d patients",
			len(summaries), len(a.engine.Dataset().PatientIDs()))))
		return nil
	}

	slog.Info("Summary complete", "patients", len(summaries))
	return nil
}

func patientCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patient <patient-id>",
		Short: "Show one patient's events and counts",
		Long: `Show the treatment date, the four counts and every listed pre- and
post-treatment event of one patient. Excluded events are dimmed.`,
		Args: cobra.ExactArgs(1),
		RunE: runPatient,
	}
}

func runPatient(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	summary, err := a.engine.GetPatientSummary(ctx, args[0])
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("Patient %s is not in the main table", args[0]), err)
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderPatientSummary(summary))
	return nil
}

// requireEvent checks that eventID is listed for the patient before an edit
// is recorded against it.
func requireEvent(cmd *cobra.Command, a *app, patientID, eventID string) error {
	summary, err := a.engine.GetPatientSummary(cmd.Context(), patientID)
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("Patient %s is not in the main table", patientID), err)
	}
	if err != nil {
		return err
	}
	if _, _, ok := engine.FindEvent(summary, eventID); !ok {
		return common.NewUserError(
			fmt.Sprintf("Event %s is not listed for patient %s", eventID, patientID), common.ErrNotFound)
	}
	return nil
}
