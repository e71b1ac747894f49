// Package source models the clinical input tables and resolves the per-form
// column layout once, when a dataset is loaded.
package source

import (
	"strings"
)

// Row is one record of a source table keyed by column name.
type Row map[string]string

// Get returns the trimmed value of column, or "" when the row lacks it.
func (r Row) Get(column string) string {
	if column == "" {
		return ""
	}
	return strings.TrimSpace(r[column])
}

// Table is a rectangular source table with ordered column names.
type Table struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the table carries column.
func (t *Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// findColumn returns the column equal to name, else the first column that
// contains it.
func (t *Table) findColumn(name string) string {
	if name == "" {
		return ""
	}
	if t.HasColumn(name) {
		return name
	}
	for _, c := range t.Columns {
		if strings.Contains(c, name) {
			return c
		}
	}
	return ""
}

// NormalizePatientID trims an id and drops the ".0" suffix spreadsheets add
// to numeric cells.
func NormalizePatientID(id string) string {
	id = strings.TrimSpace(id)
	return strings.TrimSuffix(id, ".0")
}
