// Package main runs the review screen against a built-in demo patient with an
// in-memory review log.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fontanka/edc-check/internal/classification"
	"github.com/fontanka/edc-check/internal/engine"
	"github.com/fontanka/edc-check/internal/override"
	"github.com/fontanka/edc-check/internal/source"
	"github.com/fontanka/edc-check/internal/tui"
)

const demoPatient = "DEMO-1"

func demoTables() (source.Table, source.Table) {
	mainTable := source.Table{
		Columns: []string{"Screening #", "TV_PR_SVDTC", "SBV_HFH_HOTERM", "SBV_HFH_HOSTDTC", "SBV_CVH_PRTRT", "SBV_CVH_PRSTDTC"},
		Rows: []source.Row{{
			"Screening #":     demoPatient,
			"TV_PR_SVDTC":     "2025-06-01",
			"SBV_HFH_HOTERM":  "#1 / 2025-03-01 / Acute decompensated heart failure | #2 / 2024-11-20 / CHF exacerbation",
			"SBV_HFH_HOSTDTC": "#1 / 2025-03-01 / Acute decompensated heart failure | #2 / 2024-11-20 / CHF exacerbation",
			"SBV_CVH_PRTRT":   "Right heart catheterization | Knee replacement",
			"SBV_CVH_PRSTDTC": "2025-03-01 | 2024-08-14",
		}},
	}
	ae := source.Table{
		Columns: []string{"Screening #", "LOGS_AE_AETERM", "LOGS_AE_AESTDTC"},
		Rows: []source.Row{
			{"Screening #": demoPatient, "LOGS_AE_AETERM": "Pulmonary oedema", "LOGS_AE_AESTDTC": "2025-09-01"},
			{"Screening #": demoPatient, "LOGS_AE_AETERM": "Renal colic", "LOGS_AE_AESTDTC": "2025-10-12"},
		},
	}
	return mainTable, ae
}

func run(ctx context.Context) error {
	mainTable, ae := demoTables()
	dataset, err := source.NewDataset(mainTable, ae, source.DefaultLayout())
	if err != nil {
		return err
	}

	classifier, err := classification.NewTermClassifier(
		classification.DefaultVocabulary(), classification.NewTuning(nil, nil), classification.DefaultConfig())
	if err != nil {
		return err
	}

	overrides := override.NewStore(nil, override.WithAuthor("demo"))
	eng := engine.New(dataset, classifier, overrides, engine.DefaultConfig())

	return tui.Run(ctx, tui.Config{
		Summarizer: eng,
		Reviewer:   overrides,
		PatientID:  demoPatient,
	})
}

func main() {
	if err := run(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
