package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/fontanka/edc-check/internal/model"
)

// CSVWriter writes the summary table and, optionally, the event detail table.
type CSVWriter struct {
	summary io.Writer
	detail  io.Writer
}

// NewCSVWriter creates a writer. detail may be nil to skip the event table.
func NewCSVWriter(summary, detail io.Writer) *CSVWriter {
	return &CSVWriter{summary: summary, detail: detail}
}

// Write implements the ReportWriter interface.
func (w *CSVWriter) Write(ctx context.Context, summaries []model.PatientSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := BuildRows(summaries)
	if err := WriteSummaryCSV(w.summary, rows.Summary); err != nil {
		return err
	}
	if w.detail != nil {
		if err := WriteEventsCSV(w.detail, rows.Events); err != nil {
			return err
		}
	}

	slog.Debug("Wrote CSV report", "patients", len(rows.Summary), "events", len(rows.Events))
	return nil
}

// WriteSummaryCSV writes the header and one line per patient.
func WriteSummaryCSV(w io.Writer, rows []SummaryRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return fmt.Errorf("summary csv: write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("summary csv: write patient %s: %w", r.PatientID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("summary csv: %w", err)
	}
	return nil
}

// WriteEventsCSV writes the header and one line per event.
func WriteEventsCSV(w io.Writer, rows []EventRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EventHeader); err != nil {
		return fmt.Errorf("events csv: write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("events csv: write event %s: %w", r.Event.EventID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("events csv: %w", err)
	}
	return nil
}
