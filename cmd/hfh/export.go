package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fontanka/edc-check/internal/cli"
	"github.com/fontanka/edc-check/internal/common"
	"github.com/fontanka/edc-check/internal/config"
	"github.com/fontanka/edc-check/internal/model"
	"github.com/fontanka/edc-check/internal/report"
	"github.com/fontanka/edc-check/internal/service"
	"github.com/fontanka/edc-check/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export summaries to CSV or Google Sheets",
		Long: `Summarize every patient and write the results out.

--csv writes one summary row per patient; --detail adds a file with one row
per listed event. --sheets replaces the summary and event tabs of the
configured spreadsheet, creating it when sheets.spreadsheet_id is empty.`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().String("csv", "", "write the summary CSV to this file")
	cmd.Flags().String("detail", "", "write the per-event CSV to this file")
	cmd.Flags().Bool("sheets", false, "export to Google Sheets")
	cmd.Flags().Bool("no-progress", false, "Hide the progress bar")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	csvPath, _ := cmd.Flags().GetString("csv")
	detailPath, _ := cmd.Flags().GetString("detail")
	toSheets, _ := cmd.Flags().GetBool("sheets")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	if csvPath == "" && detailPath == "" && !toSheets {
		return common.NewUserError("Nothing to export. Pass --csv, --detail or --sheets.", common.ErrInvalidInput)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	summaries, err := a.summarizeAll(ctx, !noProgress)
	if err != nil {
		return fmt.Errorf("failed to summarize patients: %w", err)
	}

	out := cmd.OutOrStdout()

	if csvPath != "" || detailPath != "" {
		if err := exportCSV(cmd, csvPath, detailPath, summaries); err != nil {
			return err
		}
	}

	if toSheets {
		writer, err := newSheetsWriter(cmd)
		if err != nil {
			return err
		}
		if err := publish(cmd, writer, summaries); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, cli.FormatSuccess("Exported to Google Sheets"))
	}

	return nil
}

func newSheetsWriter(cmd *cobra.Command) (*sheets.Writer, error) {
	sheetsConfig, err := config.LoadSheetsConfig()
	if err != nil {
		return nil, common.NewUserError("Google Sheets is not configured. Run 'hfh auth sheets' first.", err)
	}
	return sheets.NewWriter(cmd.Context(), *sheetsConfig, slog.Default())
}

func publish(cmd *cobra.Command, writer service.ReportWriter, summaries []model.PatientSummary) error {
	if err := writer.Write(cmd.Context(), summaries); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	return nil
}

// exportCSV writes the summary file and the optional detail file. With only
// a detail path the summary table is discarded.
func exportCSV(cmd *cobra.Command, csvPath, detailPath string, summaries []model.PatientSummary) error {
	var summaryOut io.Writer = io.Discard
	var detailOut io.Writer
	var files []*os.File
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()

	for _, target := range []struct {
		path string
		dst  *io.Writer
	}{{csvPath, &summaryOut}, {detailPath, &detailOut}} {
		if target.path == "" {
			continue
		}
		f, err := os.Create(filepath.Clean(target.path))
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", target.path, err)
		}
		files = append(files, f)
		*target.dst = f
	}

	if err := publish(cmd, report.NewCSVWriter(summaryOut, detailOut), summaries); err != nil {
		return err
	}
	for _, f := range files {
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", f.Name(), err)
		}
	}
	files = nil

	out := cmd.OutOrStdout()
	if csvPath != "" {
		_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Wrote %d patients to %s", len(summaries), csvPath)))
	}
	if detailPath != "" {
		_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Wrote event detail to %s", detailPath)))
	}
	return nil
}
