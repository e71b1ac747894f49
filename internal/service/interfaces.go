// Package service defines the interfaces shared between the application layers.
package service

import (
	"context"
	"io"
	"time"

	"github.com/fontanka/edc-check/internal/model"
)

// OverrideStorage persists the append-only review log.
type OverrideStorage interface {
	AppendEdit(ctx context.Context, record *model.EditRecord) error
	GetEdits(ctx context.Context) ([]model.EditRecord, error)
}

// Storage is the full persistence contract used by the CLI.
type Storage interface {
	OverrideStorage

	GetEditsByPatient(ctx context.Context, patientID string) ([]model.EditRecord, error)
	CountEdits(ctx context.Context) (int, error)

	ExportJSON(ctx context.Context, w io.Writer) error
	ImportJSON(ctx context.Context, r io.Reader) (ImportResult, error)

	Migrate(ctx context.Context) error
	Close() error
}

// ImportResult reports what an import of the review log did.
type ImportResult struct {
	Imported int
	Skipped  int
}

// ReportWriter publishes patient summaries to an external destination.
type ReportWriter interface {
	Write(ctx context.Context, summaries []model.PatientSummary) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
