package tui

import (
	"context"

	"github.com/fontanka/edc-check/internal/model"
	"github.com/fontanka/edc-check/internal/tui/themes"
)

// Summarizer recomputes one patient's summary.
type Summarizer interface {
	GetPatientSummary(ctx context.Context, patientID string) (*model.PatientSummary, error)
}

// Reviewer records the reviewer's edits.
type Reviewer interface {
	SetIncluded(ctx context.Context, patientID, eventID string, included bool) error
	SetNotes(ctx context.Context, patientID, eventID, notes string) error
	AddManualEvent(ctx context.Context, patientID string, period model.Period, date, term, notes string) (model.HFEvent, error)
	DeleteEvent(ctx context.Context, patientID, eventID string) error
}

// Config holds TUI configuration.
type Config struct {
	Theme      themes.Theme
	Summarizer Summarizer
	Reviewer   Reviewer
	PatientID  string
	Width      int
	Height     int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// WithTheme sets the color theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

func defaultConfig() Config {
	return Config{
		Theme:  themes.Default,
		Width:  100,
		Height: 30,
	}
}
