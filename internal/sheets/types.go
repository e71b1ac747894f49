package sheets

import (
	"github.com/fontanka/edc-check/internal/report"
)

func headerValues(header []string) []any {
	values := make([]any, len(header))
	for i, h := range header {
		values[i] = h
	}
	return values
}

func summaryValues(rows []report.SummaryRow) [][]any {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, headerValues(report.SummaryHeader))
	for _, r := range rows {
		values = append(values, r.Values())
	}
	return values
}

func eventValues(rows []report.EventRow) [][]any {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, headerValues(report.EventHeader))
	for _, r := range rows {
		values = append(values, r.Values())
	}
	return values
}
