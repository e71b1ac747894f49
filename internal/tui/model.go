// Package tui is the interactive review screen for one patient: step through
// the listed events, include or exclude them, annotate them and add missed
// hospitalizations. Every change goes through the review log and the summary
// is recomputed after each save.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fontanka/edc-check/internal/model"
	"github.com/fontanka/edc-check/internal/tui/themes"
)

// State represents the current state of the TUI.
type State int

const (
	StateList State = iota
	StateNotes
	StateAddDate
	StateAddTerm
)

// Model holds the main TUI state.
type Model struct {
	ctx        context.Context
	theme      themes.Theme
	summarizer Summarizer
	reviewer   Reviewer
	lastError  error
	summary    *model.PatientSummary
	keymap     KeyMap
	help       help.Model
	input      textinput.Model
	patientID  string
	period     model.Period
	status     string
	addDate    string
	cursor     int
	width      int
	height     int
	state      State
	ready      bool
	quitting   bool
}

func newModel(ctx context.Context, cfg Config) Model {
	input := textinput.New()
	input.CharLimit = 200

	return Model{
		ctx:        ctx,
		theme:      cfg.Theme,
		summarizer: cfg.Summarizer,
		reviewer:   cfg.Reviewer,
		keymap:     DefaultKeyMap(),
		help:       help.New(),
		input:      input,
		patientID:  cfg.PatientID,
		period:     model.PeriodPre,
		state:      StateList,
		width:      cfg.Width,
		height:     cfg.Height,
	}
}

// Init loads the patient's summary.
func (m Model) Init() tea.Cmd {
	return m.loadSummary()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case summaryLoadedMsg:
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.summary = msg.summary
		m.ready = true
		m.clampCursor()
		return m, nil

	case editSavedMsg:
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.lastError = nil
		m.status = msg.status
		return m, m.loadSummary()

	case tea.KeyMsg:
		if m.state != StateList {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(m.events())-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keymap.SwitchTab):
		if m.period == model.PeriodPre {
			m.period = model.PeriodPost
		} else {
			m.period = model.PeriodPre
		}
		m.cursor = 0

	case key.Matches(msg, m.keymap.Reload):
		return m, m.loadSummary()

	case key.Matches(msg, m.keymap.Toggle):
		if event, ok := m.selected(); ok {
			return m, m.setIncluded(event, !event.IsIncluded)
		}

	case key.Matches(msg, m.keymap.Delete):
		if event, ok := m.selected(); ok {
			return m, m.deleteEvent(event)
		}

	case key.Matches(msg, m.keymap.Notes):
		if event, ok := m.selected(); ok {
			return m, m.startInput(StateNotes, "Notes for "+event.EventID, event.Notes)
		}

	case key.Matches(msg, m.keymap.Add):
		m.addDate = ""
		return m, m.startInput(StateAddDate, "Date (blank if unknown)", "")
	}

	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		m.stopInput()
		m.status = "Cancelled"
		return m, nil

	case key.Matches(msg, m.keymap.Confirm):
		value := strings.TrimSpace(m.input.Value())
		switch m.state {
		case StateNotes:
			event, ok := m.selected()
			m.stopInput()
			if !ok {
				return m, nil
			}
			return m, m.setNotes(event, value)

		case StateAddDate:
			m.addDate = value
			m.input.Blur()
			return m, m.startInput(StateAddTerm, "Term", "")

		case StateAddTerm:
			date := m.addDate
			m.stopInput()
			return m, m.addEvent(date, value)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) startInput(state State, prompt, value string) tea.Cmd {
	m.state = state
	m.input.Prompt = prompt + ": "
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) stopInput() {
	m.state = StateList
	m.input.Blur()
	m.input.Reset()
}

// events returns the listed events of the current period.
func (m Model) events() []model.HFEvent {
	if m.summary == nil {
		return nil
	}
	return m.summary.Events(m.period)
}

func (m Model) selected() (model.HFEvent, bool) {
	events := m.events()
	if m.cursor < 0 || m.cursor >= len(events) {
		return model.HFEvent{}, false
	}
	return events[m.cursor], true
}

func (m *Model) clampCursor() {
	if n := len(m.events()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}
