package source

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fontanka/edc-check/internal/window"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing required column")

// AERecord is one adverse event row with its position in the AE table.
type AERecord struct {
	Term  string
	Onset string
	Index int
}

// Dataset is the loaded main and adverse event tables with the layout
// resolved into concrete columns. It is read-only after construction.
type Dataset struct {
	patients      map[string]Row
	adverseEvents map[string][]AERecord
	treatmentCol  string
	patientIDs    []string
	forms         []ResolvedForm
}

// NewDataset resolves layout against the tables and indexes rows by patient.
// The AE table may be empty.
func NewDataset(main, ae Table, layout Layout) (*Dataset, error) {
	if !main.HasColumn(layout.PatientIDColumn) {
		return nil, fmt.Errorf("%w: %q in main table", ErrMissingColumn, layout.PatientIDColumn)
	}

	d := &Dataset{
		patients:      make(map[string]Row, len(main.Rows)),
		adverseEvents: make(map[string][]AERecord),
		treatmentCol:  main.findColumn(layout.TreatmentDateColumn),
	}
	if d.treatmentCol == "" {
		slog.Warn("Treatment date column not found, all counts will be zero",
			"column", layout.TreatmentDateColumn)
	}

	for _, row := range main.Rows {
		id := NormalizePatientID(row.Get(layout.PatientIDColumn))
		if id == "" {
			continue
		}
		if _, seen := d.patients[id]; seen {
			slog.Debug("Duplicate patient row ignored", "patient_id", id)
			continue
		}
		d.patients[id] = row
		d.patientIDs = append(d.patientIDs, id)
	}
	sort.Strings(d.patientIDs)

	for _, schema := range layout.Forms {
		resolved := schema.Resolve(&main)
		slog.Debug("Resolved form columns", "form", resolved.Form, "columns", len(resolved.Columns))
		d.forms = append(d.forms, resolved)
	}

	if len(ae.Rows) > 0 {
		for _, column := range []string{layout.AEPatientIDColumn, layout.AETermColumn} {
			if !ae.HasColumn(column) {
				return nil, fmt.Errorf("%w: %q in adverse event table", ErrMissingColumn, column)
			}
		}
		for i, row := range ae.Rows {
			id := NormalizePatientID(row.Get(layout.AEPatientIDColumn))
			if id == "" {
				continue
			}
			d.adverseEvents[id] = append(d.adverseEvents[id], AERecord{
				Index: i,
				Term:  row.Get(layout.AETermColumn),
				Onset: row.Get(layout.AEOnsetColumn),
			})
		}
	}

	return d, nil
}

// PatientIDs returns every patient of the main table in sorted order.
func (d *Dataset) PatientIDs() []string {
	return append([]string(nil), d.patientIDs...)
}

// HasPatient reports whether the main table holds the patient.
func (d *Dataset) HasPatient(patientID string) bool {
	_, ok := d.patients[NormalizePatientID(patientID)]
	return ok
}

// Patient returns the main table row of a patient.
func (d *Dataset) Patient(patientID string) (Row, bool) {
	row, ok := d.patients[NormalizePatientID(patientID)]
	return row, ok
}

// Forms returns the resolved pre-treatment forms in layout order.
func (d *Dataset) Forms() []ResolvedForm {
	return d.forms
}

// AdverseEvents returns the AE rows of a patient in table order.
func (d *Dataset) AdverseEvents(patientID string) []AERecord {
	return d.adverseEvents[NormalizePatientID(patientID)]
}

// TreatmentDate resolves the treatment date of a patient. It reports false
// when the patient, the column or a readable value is missing.
func (d *Dataset) TreatmentDate(patientID string) (time.Time, bool) {
	row, ok := d.Patient(patientID)
	if !ok || d.treatmentCol == "" {
		return time.Time{}, false
	}
	return window.ParseDate(row.Get(d.treatmentCol))
}
