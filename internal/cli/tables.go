package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fontanka/edc-check/internal/model"
	"github.com/fontanka/edc-check/internal/report"
)

func newTable(headers []string, rows [][]string, dim func(row int) bool) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case dim != nil && dim(row):
				return TableCellStyle.Foreground(SubtleColor)
			default:
				return TableCellStyle
			}
		})
	return t.String()
}

// RenderSummaryTable renders one line per patient with the four counts.
func RenderSummaryTable(summaries []model.PatientSummary) string {
	rows := report.BuildRows(summaries).Summary
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = r.Record()
		if cells[i][1] == "" {
			cells[i][1] = "n/a"
		}
	}
	return newTable(report.SummaryHeader, cells, nil)
}

// RenderEventTable renders the events of one period. Excluded events are dimmed.
func RenderEventTable(events []model.HFEvent) string {
	headers := []string{"Event ID", "Date", "Source", "Term", "Match", "Conf", "Included", "Notes"}
	cells := make([][]string, len(events))
	for i, e := range events {
		date := e.Date
		if date == "" {
			date = "unknown"
		}
		match := string(e.MatchType)
		if e.MatchedSynonym != "" && !e.IsManual {
			match = fmt.Sprintf("%s (%s)", e.MatchType, e.MatchedSynonym)
		}
		id := e.EventID
		if len(e.MergedIDs) > 0 {
			id += " +" + strconv.Itoa(len(e.MergedIDs))
		}
		cells[i] = []string{
			id,
			date,
			string(e.SourceForm),
			e.OriginalTerm,
			match,
			strconv.FormatFloat(e.Confidence, 'f', 2, 64),
			yesNo(e.IsIncluded),
			e.Notes,
		}
	}
	return newTable(headers, cells, func(row int) bool {
		return row >= 0 && row < len(events) && !events[row].IsIncluded
	})
}

// RenderPatientSummary renders a patient's counts and both event tables.
func RenderPatientSummary(s *model.PatientSummary) string {
	var b strings.Builder

	treatment := s.TreatmentDate
	if !s.HasTreatmentDate() {
		treatment = WarningStyle.Render("unknown (counts are zero)")
	}
	counts := fmt.Sprintf("Treatment date: %s\nPre:  6M %d  1Y %d\nPost: 6M %d  1Y %d",
		treatment, s.PreCount6M, s.PreCount1Y, s.PostCount6M, s.PostCount1Y)
	b.WriteString(RenderBox("Patient "+s.PatientID, counts))
	b.WriteString("\n\n")

	for _, period := range []model.Period{model.PeriodPre, model.PeriodPost} {
		events := s.Events(period)
		title := "Pre-treatment events"
		if period == model.PeriodPost {
			title = "Post-treatment events"
		}
		b.WriteString(BoldStyle.Render(fmt.Sprintf("%s (%d)", title, len(events))))
		b.WriteString("\n")
		if len(events) == 0 {
			b.WriteString(SubtleStyle.Render("none"))
		} else {
			b.WriteString(RenderEventTable(events))
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

// RenderClassification renders the verdict for a single term.
func RenderClassification(term string, result model.ClassificationResult) string {
	if !result.Matched {
		detail := "no match"
		if result.MatchedSynonym != "" {
			detail = fmt.Sprintf("blocked by %q (%s)", result.MatchedSynonym, result.MatchType)
		}
		return FormatWarning(fmt.Sprintf("%q: %s", term, detail))
	}
	return FormatSuccess(fmt.Sprintf("%q: %s match on %q, confidence %.2f", term, result.MatchType, result.MatchedSynonym, result.Confidence))
}

// RenderEditHistory renders a patient's review log.
func RenderEditHistory(records []model.EditRecord) string {
	headers := []string{"Time", "Kind", "Event ID", "Field", "Value", "Author"}
	cells := make([][]string, len(records))
	for i, r := range records {
		cells[i] = []string{
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			string(r.Kind),
			r.EventID,
			r.Field,
			string(r.Value),
			r.Author,
		}
	}
	return newTable(headers, cells, nil)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
