package tui

import "github.com/fontanka/edc-check/internal/model"

type summaryLoadedMsg struct {
	err     error
	summary *model.PatientSummary
}

type editSavedMsg struct {
	err    error
	status string
}
