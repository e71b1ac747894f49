// Package extraction turns source table cells into classified heart failure
// event candidates.
package extraction

import (
	"fmt"
	"log/slog"

	"github.com/fontanka/edc-check/internal/model"
	"github.com/fontanka/edc-check/internal/source"
	"github.com/fontanka/edc-check/internal/window"
)

// Classifier decides whether a term describes a heart failure event.
type Classifier interface {
	Classify(text string) model.ClassificationResult
}

// Extractor reads candidate events for a patient from a dataset.
type Extractor struct {
	dataset    *source.Dataset
	classifier Classifier
}

// NewExtractor creates an extractor over dataset.
func NewExtractor(dataset *source.Dataset, classifier Classifier) *Extractor {
	return &Extractor{dataset: dataset, classifier: classifier}
}

// ExtractPre returns the matched events of the pre-treatment forms in form,
// column and entry order. Every non-empty entry advances the form's row
// ordinal, matched or not, so ids do not shift when tuning changes.
func (x *Extractor) ExtractPre(patientID string) []model.HFEvent {
	patientID = source.NormalizePatientID(patientID)
	row, ok := x.dataset.Patient(patientID)
	if !ok {
		return nil
	}

	var events []model.HFEvent
	for _, form := range x.dataset.Forms() {
		ordinal := 0
		for _, pair := range form.Columns {
			for _, c := range pairEntries(row.Get(pair.Term), row.Get(pair.Date)) {
				ordinal++
				if event, matched := x.classify(form.Form, patientID, ordinal, c.term, c.date); matched {
					events = append(events, event)
				}
			}
		}
	}

	slog.Debug("Extracted pre-treatment events", "patient_id", patientID, "count", len(events))
	return events
}

// ExtractPost returns the matched adverse events of a patient in table order.
func (x *Extractor) ExtractPost(patientID string) []model.HFEvent {
	patientID = source.NormalizePatientID(patientID)

	var events []model.HFEvent
	for _, ae := range x.dataset.AdverseEvents(patientID) {
		if ae.Term == "" {
			continue
		}
		if event, matched := x.classify(model.FormAE, patientID, ae.Index, ae.Term, ae.Onset); matched {
			events = append(events, event)
		}
	}

	slog.Debug("Extracted adverse events", "patient_id", patientID, "count", len(events))
	return events
}

func (x *Extractor) classify(form model.SourceForm, patientID string, row int, term, rawDate string) (model.HFEvent, bool) {
	result := x.classifier.Classify(term)
	if !result.Matched {
		return model.HFEvent{}, false
	}

	date := window.NormalizeDate(rawDate)
	if date == "" && rawDate != "" {
		slog.Debug("Unreadable event date kept for review",
			"patient_id", patientID,
			"form", form,
			"row", row,
			"raw_date", rawDate)
	}

	return model.HFEvent{
		EventID:        EventID(form, patientID, row),
		Date:           date,
		SourceForm:     form,
		SourceRow:      row,
		OriginalTerm:   term,
		MatchedSynonym: result.MatchedSynonym,
		MatchType:      result.MatchType,
		Confidence:     result.Confidence,
		IsIncluded:     true,
	}, true
}

// EventID builds the deterministic id of an automatically extracted event.
func EventID(form model.SourceForm, patientID string, row int) string {
	return fmt.Sprintf("%s_%s_%d", form, patientID, row)
}
