// Package override keeps the reviewer's decisions as an append-only log per
// patient and replays it over freshly extracted events.
package override

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fontanka/edc-check/internal/common"
	"github.com/fontanka/edc-check/internal/model"
	"github.com/fontanka/edc-check/internal/service"
	"github.com/fontanka/edc-check/internal/window"
)

// Input errors.
var (
	ErrEmptyTerm   = errors.New("manual event needs a term")
	ErrInvalidDate = errors.New("unreadable date")
)

// Store is the in-memory review log backed by optional persistent storage.
// Every change is written to storage before it becomes visible; a failed
// write leaves the store unchanged.
type Store struct {
	storage service.OverrideStorage
	records map[string][]model.EditRecord
	now     func() time.Time
	newID   func() string
	author  string
	mu      sync.RWMutex
}

// Option configures a Store.
type Option func(*Store)

// WithAuthor stamps every new record with the reviewer's name.
func WithAuthor(author string) Option {
	return func(s *Store) { s.author = author }
}

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the record id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore creates a store. storage may be nil for a purely in-memory log.
func NewStore(storage service.OverrideStorage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		records: make(map[string][]model.EditRecord),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory log with the persisted one.
func (s *Store) Load(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}

	edits, err := s.storage.GetEdits(ctx)
	if err != nil {
		return fmt.Errorf("%w: loading review log: %v", common.ErrPersistence, err)
	}

	records := make(map[string][]model.EditRecord)
	for _, rec := range edits {
		records[rec.PatientID] = append(records[rec.PatientID], rec)
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	slog.Debug("Loaded review log", "records", len(edits), "patients", len(records))
	return nil
}

// SetIncluded records whether an event counts toward the summary.
func (s *Store) SetIncluded(ctx context.Context, patientID, eventID string, included bool) error {
	return s.setField(ctx, patientID, eventID, model.FieldIsIncluded, included)
}

// SetNotes records reviewer notes for an event.
func (s *Store) SetNotes(ctx context.Context, patientID, eventID, notes string) error {
	return s.setField(ctx, patientID, eventID, model.FieldNotes, notes)
}

func (s *Store) setField(ctx context.Context, patientID, eventID, field string, value any) error {
	if err := requireIDs(patientID, eventID); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", field, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendLocked(ctx, model.EditRecord{
		PatientID: patientID,
		Kind:      model.EditSetField,
		EventID:   eventID,
		Field:     field,
		Value:     raw,
	})
}

// AddManualEvent records a reviewer-entered event for one period. The date
// may be empty; when given it must be readable.
func (s *Store) AddManualEvent(ctx context.Context, patientID string, period model.Period, date, term, notes string) (model.HFEvent, error) {
	if err := requireIDs(patientID, "manual"); err != nil {
		return model.HFEvent{}, err
	}
	if period != model.PeriodPre && period != model.PeriodPost {
		return model.HFEvent{}, fmt.Errorf("%w: %q", model.ErrUnknownPeriod, period)
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return model.HFEvent{}, ErrEmptyTerm
	}
	normalizedDate := ""
	if strings.TrimSpace(date) != "" {
		normalizedDate = window.NormalizeDate(date)
		if normalizedDate == "" {
			return model.HFEvent{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 1
	for _, rec := range s.records[patientID] {
		if rec.Kind == model.EditAddEvent {
			n++
		}
	}

	event := model.HFEvent{
		EventID:        ManualEventID(patientID, n),
		Date:           normalizedDate,
		SourceForm:     period.ManualForm(),
		SourceRow:      n,
		OriginalTerm:   term,
		MatchedSynonym: term,
		MatchType:      model.MatchManual,
		Confidence:     1.0,
		IsIncluded:     true,
		IsManual:       true,
		Notes:          strings.TrimSpace(notes),
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return model.HFEvent{}, fmt.Errorf("failed to encode manual event: %w", err)
	}

	err = s.appendLocked(ctx, model.EditRecord{
		PatientID: patientID,
		Kind:      model.EditAddEvent,
		EventID:   event.EventID,
		Value:     raw,
	})
	if err != nil {
		return model.HFEvent{}, err
	}
	return event, nil
}

// DeleteEvent removes a manual event, or reverts an automatic event to its
// detected state.
func (s *Store) DeleteEvent(ctx context.Context, patientID, eventID string) error {
	if err := requireIDs(patientID, eventID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendLocked(ctx, model.EditRecord{
		PatientID: patientID,
		Kind:      model.EditDeleteEvent,
		EventID:   eventID,
	})
}

// appendLocked persists rec and then adds it to the log. s.mu must be held.
func (s *Store) appendLocked(ctx context.Context, rec model.EditRecord) error {
	rec.ID = s.newID()
	rec.Author = s.author
	rec.Timestamp = s.now().UTC()
	if err := rec.Validate(); err != nil {
		return err
	}

	if s.storage != nil {
		if err := s.storage.AppendEdit(ctx, &rec); err != nil {
			return fmt.Errorf("%w: %v", common.ErrPersistence, err)
		}
	}

	s.records[rec.PatientID] = append(s.records[rec.PatientID], rec)
	slog.Info("Recorded review edit",
		"patient_id", rec.PatientID,
		"event_id", rec.EventID,
		"kind", rec.Kind,
		"field", rec.Field)
	return nil
}

// History returns a copy of one patient's records in write order.
func (s *Store) History(patientID string) []model.EditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.records[patientID]
	out := make([]model.EditRecord, len(src))
	for i, rec := range src {
		rec.Value = slices.Clone(rec.Value)
		out[i] = rec
	}
	return out
}

// Patients returns the ids of patients with at least one record, sorted.
func (s *Store) Patients() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ManualEventID builds the id of the n-th manual event of a patient.
func ManualEventID(patientID string, n int) string {
	return fmt.Sprintf("MANUAL_%s_%d", patientID, n)
}

func requireIDs(patientID, eventID string) error {
	if strings.TrimSpace(patientID) == "" {
		return fmt.Errorf("%w: empty patient id", common.ErrInvalidInput)
	}
	if strings.TrimSpace(eventID) == "" {
		return fmt.Errorf("%w: empty event id", common.ErrInvalidInput)
	}
	return nil
}
