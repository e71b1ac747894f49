package source

import (
	"strings"

	"github.com/fontanka/edc-check/internal/model"
)

// FieldPair names a term field code and the date field code recorded with it.
type FieldPair struct {
	Term string `mapstructure:"term" yaml:"term"`
	Date string `mapstructure:"date" yaml:"date"`
}

// FormSchema describes where one pre-treatment form lives in the main table.
// A column belongs to the form when it contains Marker, and holds terms when
// it ends with one of the Fields' Term codes.
type FormSchema struct {
	Form   model.SourceForm `mapstructure:"form" yaml:"form"`
	Marker string           `mapstructure:"marker" yaml:"marker"`
	Fields []FieldPair      `mapstructure:"fields" yaml:"fields"`
}

// Layout is the full column layout of the main and adverse event tables.
type Layout struct {
	PatientIDColumn     string       `mapstructure:"patient_id_column"`
	TreatmentDateColumn string       `mapstructure:"treatment_date_column"`
	AEPatientIDColumn   string       `mapstructure:"ae_patient_id_column"`
	AETermColumn        string       `mapstructure:"ae_term_column"`
	AEOnsetColumn       string       `mapstructure:"ae_onset_column"`
	Forms               []FormSchema `mapstructure:"forms"`
}

// DefaultLayout returns the layout of the trial's EDC export.
func DefaultLayout() Layout {
	return Layout{
		PatientIDColumn:     "Screening #",
		TreatmentDateColumn: "TV_PR_SVDTC",
		AEPatientIDColumn:   "Screening #",
		AETermColumn:        "LOGS_AE_AETERM",
		AEOnsetColumn:       "LOGS_AE_AESTDTC",
		Forms: []FormSchema{
			{
				Form:   model.FormHFH,
				Marker: "_HFH_",
				Fields: []FieldPair{{Term: "HOTERM", Date: "HOSTDTC"}},
			},
			{
				Form:   model.FormHMEH,
				Marker: "HMEH_",
				Fields: []FieldPair{
					{Term: "HOTERM", Date: "HOSTDTC"},
					{Term: "MHTERM", Date: "MHSTDTC"},
				},
			},
			{
				Form:   model.FormCVH,
				Marker: "_CVH_",
				Fields: []FieldPair{
					{Term: "PRTRT", Date: "PRSTDTC"},
					{Term: "MHTERM", Date: "MHSTDTC"},
				},
			},
		},
	}
}

// ColumnPair is a resolved term column and its date column. Date is empty when
// the table has no matching date column.
type ColumnPair struct {
	Term string
	Date string
}

// ResolvedForm is a FormSchema bound to concrete column names.
type ResolvedForm struct {
	Form    model.SourceForm
	Columns []ColumnPair
}

// Resolve binds the schema to the columns of table, in table column order.
func (s FormSchema) Resolve(table *Table) ResolvedForm {
	resolved := ResolvedForm{Form: s.Form}
	for _, column := range table.Columns {
		if s.Marker == "" || !strings.Contains(column, s.Marker) {
			continue
		}
		for _, field := range s.Fields {
			if field.Term == "" || !strings.HasSuffix(column, field.Term) {
				continue
			}
			pair := ColumnPair{Term: column}
			if field.Date != "" {
				dateColumn := strings.TrimSuffix(column, field.Term) + field.Date
				if table.HasColumn(dateColumn) {
					pair.Date = dateColumn
				}
			}
			resolved.Columns = append(resolved.Columns, pair)
			break
		}
	}
	return resolved
}
