package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fontanka/edc-check/internal/cli"
	"github.com/fontanka/edc-check/internal/model"
	"github.com/fontanka/edc-check/internal/source"
)

func overrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Record reviewer decisions about events",
		Long: `Include or exclude detected events, annotate them, and add events the
extraction missed. Every change is appended to the review log and applied on
the next summary; nothing is ever rewritten.`,
	}

	cmd.PersistentFlags().Bool("force", false, "Skip checking that the event is listed for the patient")

	cmd.AddCommand(overrideIncludeCmd(true))
	cmd.AddCommand(overrideIncludeCmd(false))
	cmd.AddCommand(overrideNotesCmd())
	cmd.AddCommand(overrideAddCmd())
	cmd.AddCommand(overrideDeleteCmd())
	cmd.AddCommand(overrideHistoryCmd())
	cmd.AddCommand(overrideExportCmd())
	cmd.AddCommand(overrideImportCmd())

	return cmd
}

// openForEdit opens the review log and, unless --force is set, checks that
// the event is listed for the patient.
func openForEdit(cmd *cobra.Command, patientID, eventID string) (*app, error) {
	force, _ := cmd.Flags().GetBool("force")

	a, err := openApp(cmd.Context(), !force)
	if err != nil {
		return nil, err
	}
	if !force {
		if err := requireEvent(cmd, a, patientID, eventID); err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	return a, nil
}

func overrideIncludeCmd(included bool) *cobra.Command {
	use, short := "include", "Count an event toward the summary"
	if !included {
		use, short = "exclude", "Stop counting an event toward the summary"
	}

	return &cobra.Command{
		Use:   use + " <patient-id> <event-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patientID, eventID := source.NormalizePatientID(args[0]), args[1]

			a, err := openForEdit(cmd, patientID, eventID)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.overrides.SetIncluded(cmd.Context(), patientID, eventID, included); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s: %sd %s", patientID, use, eventID)))
			return nil
		},
	}
}

func overrideNotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes <patient-id> <event-id> <text>",
		Short: "Set the reviewer notes of an event",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			patientID, eventID := source.NormalizePatientID(args[0]), args[1]

			a, err := openForEdit(cmd, patientID, eventID)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.overrides.SetNotes(cmd.Context(), patientID, eventID, args[2]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s: notes saved on %s", patientID, eventID)))
			return nil
		},
	}
}

func overrideAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <patient-id>",
		Short: "Add a hospitalization the extraction missed",
		Long: `Add a manual event to the pre- or post-treatment list. Manual events are
always included; an undated manual event counts toward the one year window.

Example:
  hfh override add 1001 --period pre --date 2024-11-03 --term "ADHF admission"`,
		Args: cobra.ExactArgs(1),
		RunE: runOverrideAdd,
	}

	cmd.Flags().String("period", "", "pre or post (required)")
	cmd.Flags().String("date", "", "event date, e.g. 2024-11-03 or 11/03/2024")
	cmd.Flags().String("term", "", "event description (required)")
	cmd.Flags().String("notes", "", "reviewer notes")
	_ = cmd.MarkFlagRequired("period")
	_ = cmd.MarkFlagRequired("term")

	return cmd
}

func runOverrideAdd(cmd *cobra.Command, args []string) error {
	periodFlag, _ := cmd.Flags().GetString("period")
	date, _ := cmd.Flags().GetString("date")
	term, _ := cmd.Flags().GetString("term")
	notes, _ := cmd.Flags().GetString("notes")

	period, err := model.ParsePeriod(periodFlag)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	event, err := a.overrides.AddManualEvent(cmd.Context(), source.NormalizePatientID(args[0]), period, date, term, notes)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s (%s)", event.EventID, period)))
	return nil
}

func overrideDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <patient-id> <event-id>",
		Short: "Remove a manual event or revert an event to its detected state",
		Args:  cobra.ExactArgs(2),
		RunE:  runOverrideDelete,
	}

	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func runOverrideDelete(cmd *cobra.Command, args []string) error {
	patientID, eventID := source.NormalizePatientID(args[0]), args[1]
	yes, _ := cmd.Flags().GetBool("yes")

	if !yes {
		prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
		ok, err := prompter.Confirm(cmd.Context(), fmt.Sprintf("Delete edits of %s for patient %s?", eventID, patientID))
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing changed"))
			return nil
		}
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.overrides.DeleteEvent(cmd.Context(), patientID, eventID); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s: deleted %s", patientID, eventID)))
	return nil
}

func overrideHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [patient-id]",
		Short: "Show the review log",
		Long:  `Show one patient's review log, or every patient's when no id is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			patients := a.overrides.Patients()
			if len(args) == 1 {
				patients = []string{source.NormalizePatientID(args[0])}
			}

			out := cmd.OutOrStdout()
			for _, patientID := range patients {
				records := a.overrides.History(patientID)
				_, _ = fmt.Fprintln(out, cli.BoldStyle.Render(fmt.Sprintf("Patient %s (%d edits)", patientID, len(records))))
				if len(records) == 0 {
					_, _ = fmt.Fprintln(out, cli.SubtleStyle.Render("none"))
					continue
				}
				_, _ = fmt.Fprintln(out, cli.RenderEditHistory(records))
			}
			return nil
		},
	}
}

func overrideExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export the review log as JSON",
		Long:  `Write the whole review log as JSON to file, or to stdout when no file is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 0 {
				return store.ExportJSON(ctx, cmd.OutOrStdout())
			}
			return writeFile(args[0], func(w io.Writer) error {
				return store.ExportJSON(ctx, w)
			})
		},
	}
}

func overrideImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Append the records of an exported review log",
		Long: `Append the records of a JSON review log export in their original order.
Records already present are skipped, so importing the same file twice is safe.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			f, err := os.Open(filepath.Clean(args[0]))
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			result, err := store.ImportJSON(ctx, f)
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", args[0], err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Imported %d edits, skipped %d already present", result.Imported, result.Skipped)))
			return nil
		},
	}
}

// writeFile creates path and hands it to write, closing it afterwards.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()
	return write(f)
}
