package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fontanka/edc-check/internal/model"
)

func (m Model) loadSummary() tea.Cmd {
	ctx, summarizer, patientID := m.ctx, m.summarizer, m.patientID
	return func() tea.Msg {
		summary, err := summarizer.GetPatientSummary(ctx, patientID)
		return summaryLoadedMsg{summary: summary, err: err}
	}
}

func (m Model) setIncluded(event model.HFEvent, included bool) tea.Cmd {
	ctx, reviewer, patientID := m.ctx, m.reviewer, m.patientID
	return func() tea.Msg {
		err := reviewer.SetIncluded(ctx, patientID, event.EventID, included)
		verb := "Excluded"
		if included {
			verb = "Included"
		}
		return editSavedMsg{status: fmt.Sprintf("%s %s", verb, event.EventID), err: err}
	}
}

func (m Model) setNotes(event model.HFEvent, notes string) tea.Cmd {
	ctx, reviewer, patientID := m.ctx, m.reviewer, m.patientID
	return func() tea.Msg {
		err := reviewer.SetNotes(ctx, patientID, event.EventID, notes)
		return editSavedMsg{status: "Saved notes on " + event.EventID, err: err}
	}
}

func (m Model) deleteEvent(event model.HFEvent) tea.Cmd {
	ctx, reviewer, patientID := m.ctx, m.reviewer, m.patientID
	return func() tea.Msg {
		err := reviewer.DeleteEvent(ctx, patientID, event.EventID)
		status := "Reverted " + event.EventID
		if event.IsManual {
			status = "Deleted " + event.EventID
		}
		return editSavedMsg{status: status, err: err}
	}
}

func (m Model) addEvent(date, term string) tea.Cmd {
	ctx, reviewer, patientID, period := m.ctx, m.reviewer, m.patientID, m.period
	return func() tea.Msg {
		event, err := reviewer.AddManualEvent(ctx, patientID, period, date, term, "")
		return editSavedMsg{status: "Added " + event.EventID, err: err}
	}
}
