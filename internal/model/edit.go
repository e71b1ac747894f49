package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EditKind distinguishes the records of the override log.
type EditKind string

// Edit kinds.
const (
	// EditSetField replaces one field of an event.
	EditSetField EditKind = "set"
	// EditAddEvent adds a reviewer-entered event.
	EditAddEvent EditKind = "add"
	// EditDeleteEvent removes a manual event or reverts an automatic one.
	EditDeleteEvent EditKind = "delete"
)

// Editable event fields.
const (
	FieldIsIncluded = "is_included"
	FieldNotes      = "notes"
)

// EditRecord is one entry of the append-only review log.
type EditRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	ID        string          `json:"id"`
	PatientID string          `json:"patient_id"`
	Kind      EditKind        `json:"kind"`
	EventID   string          `json:"event_id"`
	Field     string          `json:"field,omitempty"`
	Author    string          `json:"author,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
}

// Validate checks that the record can be replayed.
func (r *EditRecord) Validate() error {
	if r.ID == "" || r.PatientID == "" || r.EventID == "" {
		return fmt.Errorf("%w: edit record needs id, patient and event", ErrInvalidEdit)
	}
	switch r.Kind {
	case EditSetField:
		if r.Field != FieldIsIncluded && r.Field != FieldNotes {
			return fmt.Errorf("%w: unsupported field %q", ErrInvalidEdit, r.Field)
		}
		if len(r.Value) == 0 {
			return fmt.Errorf("%w: set record without value", ErrInvalidEdit)
		}
	case EditAddEvent:
		if len(r.Value) == 0 {
			return fmt.Errorf("%w: add record without event", ErrInvalidEdit)
		}
	case EditDeleteEvent:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEdit, r.Kind)
	}
	return nil
}

// AddedEvent decodes the event carried by an add record.
func (r *EditRecord) AddedEvent() (HFEvent, error) {
	var event HFEvent
	if r.Kind != EditAddEvent {
		return event, fmt.Errorf("%w: record %s is not an add", ErrInvalidEdit, r.ID)
	}
	if err := json.Unmarshal(r.Value, &event); err != nil {
		return event, fmt.Errorf("%w: %v", ErrInvalidEdit, err)
	}
	return event, nil
}
