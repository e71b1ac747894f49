package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the review screen for cfg.PatientID until the user quits or ctx
// is canceled. Edits are saved as they are made.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	if cfg.Summarizer == nil {
		return fmt.Errorf("summarizer is required")
	}
	if cfg.Reviewer == nil {
		return fmt.Errorf("reviewer is required")
	}

	base := defaultConfig()
	if cfg.Width == 0 {
		cfg.Width = base.Width
	}
	if cfg.Height == 0 {
		cfg.Height = base.Height
	}
	if cfg.Theme.Primary == "" {
		cfg.Theme = base.Theme
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	program := tea.NewProgram(newModel(ctx, cfg), tea.WithContext(ctx), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("review screen failed: %w", err)
	}
	if m, ok := final.(Model); ok && !m.ready && m.lastError != nil {
		return m.lastError
	}
	return nil
}
