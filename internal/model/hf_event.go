package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SourceForm identifies the clinical form an event was read from.
type SourceForm string

// Source form constants.
const (
	FormHFH        SourceForm = "HFH"
	FormHMEH       SourceForm = "HMEH"
	FormCVH        SourceForm = "CVH"
	FormAE         SourceForm = "AE"
	FormManualPre  SourceForm = "MANUAL_PRE"
	FormManualPost SourceForm = "MANUAL_POST"
)

// IsManual reports whether the form is one of the reviewer-entered forms.
func (f SourceForm) IsManual() bool {
	return f == FormManualPre || f == FormManualPost
}

// Period is the side of the treatment date an event belongs to.
type Period string

// Period constants.
const (
	PeriodPre  Period = "pre"
	PeriodPost Period = "post"
)

// ParsePeriod converts user input into a Period.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pre", "before":
		return PeriodPre, nil
	case "post", "after":
		return PeriodPost, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// ManualForm returns the manual source form for the period.
func (p Period) ManualForm() SourceForm {
	if p == PeriodPost {
		return FormManualPost
	}
	return FormManualPre
}

// Validation errors for events.
var (
	ErrInvalidEvent  = errors.New("invalid event")
	ErrUnknownPeriod = errors.New("unknown period")
	ErrInvalidEdit   = errors.New("invalid edit record")
)

// HFEvent is one candidate heart failure hospitalization.
// Date is YYYY-MM-DD or empty when the source date could not be read.
type HFEvent struct {
	EventID        string     `json:"event_id"`
	Date           string     `json:"date"`
	SourceForm     SourceForm `json:"source_form"`
	OriginalTerm   string     `json:"original_term"`
	MatchedSynonym string     `json:"matched_synonym"`
	MatchType      MatchType  `json:"match_type"`
	Notes          string     `json:"notes"`
	MergedIDs      []string   `json:"merged_ids,omitempty"`
	SourceRow      int        `json:"source_row"`
	Confidence     float64    `json:"confidence"`
	IsIncluded     bool       `json:"is_included"`
	IsManual       bool       `json:"is_manual"`
}

// Validate checks the structural invariants of an event.
func (e *HFEvent) Validate() error {
	if strings.TrimSpace(e.EventID) == "" {
		return fmt.Errorf("%w: missing event id", ErrInvalidEvent)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("%w: confidence %.2f out of range", ErrInvalidEvent, e.Confidence)
	}
	if !e.MatchType.IsValid() {
		return fmt.Errorf("%w: unknown match type %q", ErrInvalidEvent, e.MatchType)
	}
	if (e.MatchType == MatchManual) != e.IsManual {
		return fmt.Errorf("%w: manual flag disagrees with match type %q", ErrInvalidEvent, e.MatchType)
	}
	if e.SourceForm.IsManual() != e.IsManual {
		return fmt.Errorf("%w: source form %s used for manual=%t", ErrInvalidEvent, e.SourceForm, e.IsManual)
	}
	return nil
}

// Clone returns a deep copy of the event.
func (e HFEvent) Clone() HFEvent {
	if e.MergedIDs != nil {
		e.MergedIDs = append([]string(nil), e.MergedIDs...)
	}
	return e
}

// ToDict converts the event into a plain map keyed by the JSON field names.
func (e HFEvent) ToDict() (map[string]any, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	var dict map[string]any
	if err := json.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("failed to convert event: %w", err)
	}
	return dict, nil
}

// EventFromDict rebuilds an event from a map produced by ToDict.
func EventFromDict(dict map[string]any) (HFEvent, error) {
	var event HFEvent
	data, err := json.Marshal(dict)
	if err != nil {
		return event, fmt.Errorf("failed to marshal event map: %w", err)
	}
	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return event, nil
}
