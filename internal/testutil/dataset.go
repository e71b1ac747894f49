package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fontanka/edc-check/internal/source"
)

// Column names of the fixture tables, following the default layout.
const (
	ColPatient       = "Screening #"
	ColTreatmentDate = "TV_PR_SVDTC"
	ColHFHTerm       = "SBV_HFH_HOTERM"
	ColHFHDate       = "SBV_HFH_HOSTDTC"
	ColHMEHTerm      = "SBV_HMEH_HOTERM"
	ColHMEHDate      = "SBV_HMEH_HOSTDTC"
	ColCVHTerm       = "SBV_CVH_PRTRT"
	ColCVHDate       = "SBV_CVH_PRSTDTC"
	ColAETerm        = "LOGS_AE_AETERM"
	ColAEOnset       = "LOGS_AE_AESTDTC"
	ColAETemplate    = "Template number"
)

// Entry is one dated term of a repeated-entry form.
type Entry struct {
	Date string
	Term string
}

// DatasetBuilder assembles main and AE tables for tests.
//
// Example:
//
//	ds := testutil.NewDatasetBuilder(t).
//		WithPatient("101", "2025-06-01").
//		WithHFH("101", testutil.Entry{Date: "2025-03-01", Term: "heart failure"}).
//		WithAE("101", "2025-09-01", "pulmonary edema").
//		Build()
type DatasetBuilder struct {
	t        *testing.T
	patients map[string]source.Row
	order    []string
	ae       []source.Row
}

// NewDatasetBuilder creates an empty builder.
func NewDatasetBuilder(t *testing.T) *DatasetBuilder {
	t.Helper()
	return &DatasetBuilder{t: t, patients: make(map[string]source.Row)}
}

// WithPatient adds a patient row with the given treatment date.
func (b *DatasetBuilder) WithPatient(id, treatmentDate string) *DatasetBuilder {
	row, ok := b.patients[id]
	if !ok {
		row = source.Row{ColPatient: id}
		b.patients[id] = row
		b.order = append(b.order, id)
	}
	row[ColTreatmentDate] = treatmentDate
	return b
}

// WithHFH stores entries in the piped "#n / date / term" format, the same
// triple in both the term and the date column.
func (b *DatasetBuilder) WithHFH(id string, entries ...Entry) *DatasetBuilder {
	cell := PipedCell(entries...)
	row := b.row(id)
	row[ColHFHTerm] = cell
	row[ColHFHDate] = cell
	return b
}

// WithHMEH stores plain entries, terms and dates in parallel cells.
func (b *DatasetBuilder) WithHMEH(id string, entries ...Entry) *DatasetBuilder {
	terms, dates := plainCells(entries)
	row := b.row(id)
	row[ColHMEHTerm] = terms
	row[ColHMEHDate] = dates
	return b
}

// WithCVH stores plain entries, terms and dates in parallel cells.
func (b *DatasetBuilder) WithCVH(id string, entries ...Entry) *DatasetBuilder {
	terms, dates := plainCells(entries)
	row := b.row(id)
	row[ColCVHTerm] = terms
	row[ColCVHDate] = dates
	return b
}

// WithCell sets a raw main table cell.
func (b *DatasetBuilder) WithCell(id, column, value string) *DatasetBuilder {
	b.row(id)[column] = value
	return b
}

// WithAE appends an adverse event row.
func (b *DatasetBuilder) WithAE(id, onset, term string) *DatasetBuilder {
	b.ae = append(b.ae, source.Row{
		ColPatient:    id,
		ColAETemplate: fmt.Sprint(len(b.ae) + 1),
		ColAETerm:     term,
		ColAEOnset:    onset,
	})
	return b
}

// Tables returns the main and AE tables built so far.
func (b *DatasetBuilder) Tables() (source.Table, source.Table) {
	main := source.Table{Columns: []string{
		ColPatient, ColTreatmentDate,
		ColHFHTerm, ColHFHDate,
		ColHMEHTerm, ColHMEHDate,
		ColCVHTerm, ColCVHDate,
	}}
	for _, id := range b.order {
		main.Rows = append(main.Rows, b.patients[id])
	}

	ae := source.Table{Columns: []string{ColPatient, ColAETemplate, ColAETerm, ColAEOnset}, Rows: b.ae}
	return main, ae
}

// Build resolves the tables with the default layout.
func (b *DatasetBuilder) Build() *source.Dataset {
	b.t.Helper()
	main, ae := b.Tables()
	ds, err := source.NewDataset(main, ae, source.DefaultLayout())
	if err != nil {
		b.t.Fatalf("failed to build dataset: %v", err)
	}
	return ds
}

func (b *DatasetBuilder) row(id string) source.Row {
	row, ok := b.patients[id]
	if !ok {
		b.WithPatient(id, "")
		row = b.patients[id]
	}
	return row
}

// PipedCell renders entries as "#1 / date / term | #2 / ...".
func PipedCell(entries ...Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("#%d / %s / %s", i+1, e.Date, e.Term)
	}
	return strings.Join(parts, " | ")
}

func plainCells(entries []Entry) (string, string) {
	terms := make([]string, len(entries))
	dates := make([]string, len(entries))
	for i, e := range entries {
		terms[i] = e.Term
		dates[i] = e.Date
	}
	return strings.Join(terms, " | "), strings.Join(dates, " | ")
}
