package override

import (
	"encoding/json"
	"log/slog"

	"github.com/fontanka/edc-check/internal/model"
)

// fieldState is the latest reviewer value of each editable field.
type fieldState struct {
	included *bool
	notes    *string
}

func (f *fieldState) apply(event *model.HFEvent) {
	if f == nil {
		return
	}
	if f.included != nil {
		event.IsIncluded = *f.included
	}
	if f.notes != nil {
		event.Notes = *f.notes
	}
}

// replayed is the result of folding a patient's log.
type replayed struct {
	fields map[string]*fieldState
	manual []model.HFEvent
}

func replay(records []model.EditRecord) replayed {
	r := replayed{fields: make(map[string]*fieldState)}
	removed := make(map[string]bool)

	for i := range records {
		rec := &records[i]
		switch rec.Kind {
		case model.EditSetField:
			state := r.fields[rec.EventID]
			if state == nil {
				state = &fieldState{}
				r.fields[rec.EventID] = state
			}
			if err := decodeField(rec, state); err != nil {
				slog.Warn("Skipping unreadable review edit", "id", rec.ID, "error", err)
			}
		case model.EditAddEvent:
			event, err := rec.AddedEvent()
			if err != nil {
				slog.Warn("Skipping unreadable manual event", "id", rec.ID, "error", err)
				continue
			}
			r.manual = append(r.manual, event)
		case model.EditDeleteEvent:
			delete(r.fields, rec.EventID)
			removed[rec.EventID] = true
		}
	}

	kept := r.manual[:0]
	for _, event := range r.manual {
		if !removed[event.EventID] {
			kept = append(kept, event)
		}
	}
	r.manual = kept
	return r
}

func decodeField(rec *model.EditRecord, state *fieldState) error {
	switch rec.Field {
	case model.FieldIsIncluded:
		var v bool
		if err := json.Unmarshal(rec.Value, &v); err != nil {
			return err
		}
		state.included = &v
	case model.FieldNotes:
		var v string
		if err := json.Unmarshal(rec.Value, &v); err != nil {
			return err
		}
		state.notes = &v
	}
	return nil
}

// Apply replays a patient's log over events of one period and appends the
// manual events entered for that period. Overrides for ids that are not in
// events stay in the log and apply again when the event reappears. The input
// is not modified.
func (s *Store) Apply(patientID string, period model.Period, events []model.HFEvent) []model.HFEvent {
	r := replay(s.History(patientID))

	out := make([]model.HFEvent, 0, len(events)+len(r.manual))
	for _, event := range events {
		event = event.Clone()
		r.fields[event.EventID].apply(&event)
		out = append(out, event)
	}

	form := period.ManualForm()
	for _, event := range r.manual {
		if event.SourceForm != form {
			continue
		}
		r.fields[event.EventID].apply(&event)
		out = append(out, event)
	}
	return out
}
