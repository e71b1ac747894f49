// Package report flattens patient summaries into tables and writes them as CSV.
package report

import (
	"strconv"
	"strings"

	"github.com/fontanka/edc-check/internal/model"
)

// Column headers.
var (
	SummaryHeader = []string{"Patient", "Treatment Date", "Pre-6M HF Hosps", "Pre-1Y HF Hosps", "Post-6M HF Hosps", "Post-1Y HF Hosps"}
	EventHeader   = []string{"Patient", "Period", "Event ID", "Date", "Source", "Original Term", "Matched Synonym", "Match Type", "Confidence", "Included", "Manual", "Merged IDs", "Notes"}
)

// SummaryRow is one patient of the summary table.
type SummaryRow struct {
	PatientID     string
	TreatmentDate string
	Pre6M         int
	Pre1Y         int
	Post6M        int
	Post1Y        int
}

// Values returns the row in SummaryHeader order.
func (r SummaryRow) Values() []any {
	return []any{r.PatientID, r.TreatmentDate, r.Pre6M, r.Pre1Y, r.Post6M, r.Post1Y}
}

// Record returns the row as CSV fields.
func (r SummaryRow) Record() []string {
	return []string{
		r.PatientID,
		r.TreatmentDate,
		strconv.Itoa(r.Pre6M),
		strconv.Itoa(r.Pre1Y),
		strconv.Itoa(r.Post6M),
		strconv.Itoa(r.Post1Y),
	}
}

// EventRow is one event of the detail table.
type EventRow struct {
	PatientID string
	Period    model.Period
	Event     model.HFEvent
}

// Values returns the row in EventHeader order.
func (r EventRow) Values() []any {
	e := r.Event
	return []any{
		r.PatientID,
		string(r.Period),
		e.EventID,
		e.Date,
		string(e.SourceForm),
		e.OriginalTerm,
		e.MatchedSynonym,
		string(e.MatchType),
		e.Confidence,
		e.IsIncluded,
		e.IsManual,
		joinIDs(e.MergedIDs),
		e.Notes,
	}
}

// Record returns the row as CSV fields.
func (r EventRow) Record() []string {
	e := r.Event
	return []string{
		r.PatientID,
		string(r.Period),
		e.EventID,
		e.Date,
		string(e.SourceForm),
		e.OriginalTerm,
		e.MatchedSynonym,
		string(e.MatchType),
		strconv.FormatFloat(e.Confidence, 'f', 2, 64),
		strconv.FormatBool(e.IsIncluded),
		strconv.FormatBool(e.IsManual),
		joinIDs(e.MergedIDs),
		e.Notes,
	}
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ";")
}

// Rows holds both tables of one report.
type Rows struct {
	Summary []SummaryRow
	Events  []EventRow
}

// BuildRows flattens summaries, keeping their order. Pre events come before
// post events for each patient.
func BuildRows(summaries []model.PatientSummary) Rows {
	rows := Rows{Summary: make([]SummaryRow, 0, len(summaries))}

	for i := range summaries {
		s := &summaries[i]
		rows.Summary = append(rows.Summary, SummaryRow{
			PatientID:     s.PatientID,
			TreatmentDate: s.TreatmentDate,
			Pre6M:         s.PreCount6M,
			Pre1Y:         s.PreCount1Y,
			Post6M:        s.PostCount6M,
			Post1Y:        s.PostCount1Y,
		})

		for _, period := range []model.Period{model.PeriodPre, model.PeriodPost} {
			for _, event := range s.Events(period) {
				rows.Events = append(rows.Events, EventRow{PatientID: s.PatientID, Period: period, Event: event})
			}
		}
	}
	return rows
}
