package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fontanka/edc-check/internal/model"
)

const editColumns = `id, patient_id, kind, event_id, field, value, author, created_at`

// AppendEdit writes one record to the end of the review log.
func (s *SQLiteStorage) AppendEdit(ctx context.Context, record *model.EditRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEdit(record); err != nil {
		return err
	}
	return s.appendEditTx(ctx, s.db, record)
}

func (s *SQLiteStorage) appendEditTx(ctx context.Context, q queryable, record *model.EditRecord) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO override_edits (`+editColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.PatientID,
		string(record.Kind),
		record.EventID,
		record.Field,
		nullableJSON(record.Value),
		record.Author,
		record.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append edit %s: %w", record.ID, err)
	}
	return nil
}

// GetEdits returns the whole review log in write order.
func (s *SQLiteStorage) GetEdits(ctx context.Context) ([]model.EditRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryEdits(ctx, s.db, `SELECT `+editColumns+` FROM override_edits ORDER BY seq`)
}

// GetEditsByPatient returns one patient's records in write order.
func (s *SQLiteStorage) GetEditsByPatient(ctx context.Context, patientID string) ([]model.EditRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(patientID, "patientID"); err != nil {
		return nil, err
	}
	return s.queryEdits(ctx, s.db,
		`SELECT `+editColumns+` FROM override_edits WHERE patient_id = ? ORDER BY seq`, patientID)
}

// CountEdits returns the number of records in the review log.
func (s *SQLiteStorage) CountEdits(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM override_edits`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count edits: %w", err)
	}
	return count, nil
}

func (s *SQLiteStorage) queryEdits(ctx context.Context, q queryable, query string, args ...any) ([]model.EditRecord, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query edits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.EditRecord
	for rows.Next() {
		var (
			record    model.EditRecord
			kind      string
			field     sql.NullString
			value     sql.NullString
			createdAt string
		)
		if err := rows.Scan(&record.ID, &record.PatientID, &kind, &record.EventID,
			&field, &value, &record.Author, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan edit: %w", err)
		}

		record.Kind = model.EditKind(kind)
		record.Field = field.String
		if value.Valid && value.String != "" {
			record.Value = json.RawMessage(value.String)
		}
		record.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp of edit %s: %w", record.ID, err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edits: %w", err)
	}
	return records, nil
}

func nullableJSON(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}
