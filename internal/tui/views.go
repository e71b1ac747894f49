package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fontanka/edc-check/internal/model"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		if m.lastError != nil {
			return m.theme.StatusError.Render("Error: "+m.lastError.Error()) + "\n\nPress q to quit.\n"
		}
		return m.theme.Subtitle.Render("Loading patient " + m.patientID + "...")
	}

	sections := []string{
		m.renderHeader(),
		m.renderTabs(),
		m.renderEvents(),
	}
	if m.state != StateList {
		sections = append(sections, m.input.View())
	}
	sections = append(sections, m.renderStatus(), m.help.View(m.keymap))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	s := m.summary
	treatment := s.TreatmentDate
	if !s.HasTreatmentDate() {
		treatment = "unknown (counts are zero)"
	}
	counts := fmt.Sprintf("Treatment %s   Pre 6M %d  1Y %d   Post 6M %d  1Y %d",
		treatment, s.PreCount6M, s.PreCount1Y, s.PostCount6M, s.PostCount1Y)
	return m.theme.RoundedBox.Render(
		m.theme.Title.Render("Patient "+s.PatientID) + "\n" + m.theme.Normal.Render(counts))
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, 2)
	for _, period := range []model.Period{model.PeriodPre, model.PeriodPost} {
		label := fmt.Sprintf("%s-treatment (%d)", period, len(m.summary.Events(period)))
		if period == m.period {
			tabs = append(tabs, m.theme.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, m.theme.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderEvents() string {
	events := m.events()
	if len(events) == 0 {
		return m.theme.Subtitle.Render("  no events")
	}

	lines := make([]string, 0, len(events))
	for i, event := range events {
		line := formatEvent(event)
		switch {
		case i == m.cursor:
			line = m.theme.Selected.Render("> " + line)
		case !event.IsIncluded:
			line = "  " + m.theme.Excluded.Render(line)
		default:
			line = "  " + m.theme.Normal.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatEvent(event model.HFEvent) string {
	mark := "[x]"
	if !event.IsIncluded {
		mark = "[ ]"
	}
	date := event.Date
	if date == "" {
		date = "unknown   "
	}
	line := fmt.Sprintf("%s %s  %-12s %-14s %s", mark, date, event.SourceForm, event.EventID, event.OriginalTerm)
	if len(event.MergedIDs) > 0 {
		line += fmt.Sprintf("  (+%d merged)", len(event.MergedIDs))
	}
	if event.Notes != "" {
		line += "  # " + event.Notes
	}
	return line
}

func (m Model) renderStatus() string {
	if m.lastError != nil {
		return m.theme.StatusError.Render("Error: " + m.lastError.Error())
	}
	if m.status != "" {
		return m.theme.StatusSuccess.Render(m.status)
	}
	return ""
}
