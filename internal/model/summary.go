package model

// PatientSummary is the per-patient review result. It is recomputed on demand
// and never persisted.
type PatientSummary struct {
	PatientID     string    `json:"patient_id"`
	TreatmentDate string    `json:"treatment_date"`
	PreEvents     []HFEvent `json:"pre_events"`
	PostEvents    []HFEvent `json:"post_events"`
	PreCount6M    int       `json:"pre_count_6m"`
	PreCount1Y    int       `json:"pre_count_1y"`
	PostCount6M   int       `json:"post_count_6m"`
	PostCount1Y   int       `json:"post_count_1y"`
}

// HasTreatmentDate reports whether a treatment date was resolved.
func (s *PatientSummary) HasTreatmentDate() bool {
	return s.TreatmentDate != ""
}

// Events returns the events of one period.
func (s *PatientSummary) Events(period Period) []HFEvent {
	if period == PeriodPost {
		return s.PostEvents
	}
	return s.PreEvents
}
