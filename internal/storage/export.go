package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fontanka/edc-check/internal/model"
	"github.com/fontanka/edc-check/internal/service"
)

// EditLogExportVersion is the format version written by ExportJSON.
const EditLogExportVersion = "1.0"

// EditLogExport is the JSON document produced by ExportJSON.
type EditLogExport struct {
	ExportedAt time.Time          `json:"exported_at"`
	Version    string             `json:"version"`
	Edits      []model.EditRecord `json:"edits"`
	Count      int                `json:"count"`
}

// ExportJSON writes the whole review log as an indented JSON document.
func (s *SQLiteStorage) ExportJSON(ctx context.Context, w io.Writer) error {
	edits, err := s.GetEdits(ctx)
	if err != nil {
		return fmt.Errorf("failed to list edits: %w", err)
	}
	if edits == nil {
		edits = []model.EditRecord{}
	}

	export := &EditLogExport{
		Version:    EditLogExportVersion,
		ExportedAt: time.Now().UTC(),
		Count:      len(edits),
		Edits:      edits,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON appends the records of an exported log in their original order.
// Records whose id is already present are skipped. The import is atomic.
func (s *SQLiteStorage) ImportJSON(ctx context.Context, r io.Reader) (service.ImportResult, error) {
	var result service.ImportResult
	if err := validateContext(ctx); err != nil {
		return result, err
	}

	var export EditLogExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return result, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for i := range export.Edits {
		if err := validateEdit(&export.Edits[i]); err != nil {
			return result, fmt.Errorf("edit at index %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := range export.Edits {
		record := &export.Edits[i]

		var exists int
		err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM override_edits WHERE id = ?`, record.ID).Scan(&exists)
		if err != nil {
			return service.ImportResult{}, fmt.Errorf("failed to check existing edit: %w", err)
		}
		if exists > 0 {
			result.Skipped++
			continue
		}

		if err = s.appendEditTx(ctx, tx, record); err != nil {
			return service.ImportResult{}, err
		}
		result.Imported++
	}

	if err = tx.Commit(); err != nil {
		return service.ImportResult{}, fmt.Errorf("failed to commit import: %w", err)
	}
	return result, nil
}
