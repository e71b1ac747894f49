package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fontanka/edc-check/internal/classification"
	"github.com/fontanka/edc-check/internal/common"
	"github.com/fontanka/edc-check/internal/dedup"
	"github.com/fontanka/edc-check/internal/model"
	"github.com/fontanka/edc-check/internal/override"
	"github.com/fontanka/edc-check/internal/source"
	"github.com/fontanka/edc-check/internal/testutil"
)

func newClassifier(t *testing.T) *classification.TermClassifier {
	t.Helper()
	c, err := classification.NewTermClassifier(classification.DefaultVocabulary(), nil, classification.DefaultConfig())
	require.NoError(t, err)
	return c
}

func newEngine(t *testing.T, ds *source.Dataset, overrides Overrides) *Engine {
	t.Helper()
	return New(ds, newClassifier(t), overrides, DefaultConfig())
}

func summarize(t *testing.T, e *Engine, patientID string) *model.PatientSummary {
	t.Helper()
	summary, err := e.GetPatientSummary(context.Background(), patientID)
	require.NoError(t, err)
	return summary
}

func eventIDs(events []model.HFEvent) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.EventID
	}
	return ids
}

func TestGetPatientSummary_EndToEnd(t *testing.T) {
	ds := testutil.NewDatasetBuilder(t).
		WithPatient("101", "2025-06-01").
		WithHFH("101", testutil.Entry{Date: "2025-03-01", Term: "heart failure"}).
		WithAE("101", "2025-09-01", "pulmonary edema").
		Build()

	summary := summarize(t, newEngine(t, ds, nil), "101")

	assert.Equal(t, "101", summary.PatientID)
	assert.Equal(t, "2025-06-01", summary.TreatmentDate)
	assert.Equal(t, []string{"HFH_101_1"}, eventIDs(summary.PreEvents))
	assert.Equal(t, []string{"AE_101_0"}, eventIDs(summary.PostEvents))

	// 92 days before treatment is inside the 183 day horizon.
	assert.Equal(t, 1, summary.PreCount6M)
	assert.Equal(t, 1, summary.PreCount1Y)
	assert.Equal(t, 1, summary.PostCount6M)
	assert.Equal(t, 1, summary.PostCount1Y)
}

func TestGetPatientSummary_NumberedDateCell(t *testing.T) {
	ds := testutil.NewDatasetBuilder(t).
		WithPatient("102", "2025-06-01").
		WithCell("102", testutil.ColHFHTerm, "Heart failure | CHF").
		WithCell("102", testutil.ColHFHDate, "#1 / 2025-03-01 | #2 / 2025-04-01").
		Build()

	summary := summarize(t, newEngine(t, ds, nil), "102")

	require.Len(t, summary.PreEvents, 2)
	assert.Equal(t, "2025-03-01", summary.PreEvents[0].Date)
	assert.Equal(t, "2025-04-01", summary.PreEvents[1].Date)
	assert.Equal(t, 2, summary.PreCount6M)
	assert.Equal(t, 2, summary.PreCount1Y)
}

func TestGetPatientSummary_TreatmentDayBoundary(t *testing.T) {
	ds := testutil.NewDatasetBuilder(t).
		WithPatient("101", "2025-06-01").
		WithHFH("101", testutil.Entry{Date: "2025-06-01", Term: "heart failure"}).
		WithAE("101", "2025-06-01", "heart failure").
		Build()

	summary := summarize(t, newEngine(t, ds, nil), "101")

	assert.Equal(t, 1, summary.PreCount6M)
	assert.Equal(t, 1, summary.PreCount1Y)
	assert.Equal(t, 0, summary.PostCount6M)
	assert.Equal(t, 0, summary.PostCount1Y)
	assert.Empty(t, summary.PostEvents, "treatment day is not listed after treatment")
}

func TestGetPatientSummary_Horizons(t *testing.T) {
	ds := testutil.NewDatasetBuilder(t).
		WithPatient("101", "2025-06-01").
		WithHFH("101",
			testutil.Entry{Date: "2025-01-30", Term: "heart failure"}, // 122 days
			testutil.Entry{Date: "2024-10-30", Term: "heart failure"}, // 214 days
			testutil.Entry{Date: "2024-04-01", Term: "heart failure"}, // 426 days
			testutil.Entry{Date: "", Term: "heart failure"},
		).
		WithAE("101", "2025-10-01", "fluid overload"). // 122 days
		WithAE("101", "2026-01-01", "fluid overload"). // 214 days
		WithAE("101", "2028-06-01", "fluid overload"). // 3 years
		WithAE("101", "2031-06-01", "fluid overload"). // 6 years
		Build()

	summary := summarize(t, newEngine(t, ds, nil), "101")

	assert.Equal(t, []string{"HFH_101_1", "HFH_101_2", "HFH_101_4"}, eventIDs(summary.PreEvents))
	assert.Equal(t, 1, summary.PreCount6M)
	assert.Equal(t, 2, summary.PreCount1Y)

	assert.Equal(t, []string{"AE_101_0", "AE_101_1", "AE_101_2"}, eventIDs(summary.PostEvents))
	assert.Equal(t, 1, summary.PostCount6M)
	assert.Equal(t, 2, summary.PostCount1Y)
}

func TestGetPatientSummary_CountsDistinctDates(t *testing.T) {
	ds := testutil.NewDatasetBuilder(t).
		WithPatient("101", "2025-06-01").
		WithHFH("101", testutil.Entry{Date: "2025-03-01", Term: "heart failure"}).
		WithCVH("101", testutil.Entry{Date: "2025-03-01", Term: "thoracentesis"}).
		Build()

	summary := summarize(t, newEngine(t, ds, nil), "101")

	assert.Len(t, summary.PreEvents, 2, "different terms on one day are both listed")
	assert.Equal(t, 1, summary.PreCount1Y)
}

func TestGetPatientSummary_Deduplicates(t *testing.T) {
	ds := testutil.NewDatasetBuilder(t).
		WithPatient("101", "2025-06-01").
		WithHMEH("101", testutil.Entry{Date: "2025-03-01", Term: "Heart Failure"}).
		WithHFH("101", testutil.Entry{Date: "2025-03-01", Term: "heart failure"}).
		Build()

	summary := summarize(t, newEngine(t, ds, nil), "101")

	require.Len(t, summary.PreEvents, 1)
	assert.Equal(t, "HFH_101_1", summary.PreEvents[0].EventID)
	assert.Equal(t, []string{"HMEH_101_1"}, summary.PreEvents[0].MergedIDs)
}

func TestGetPatientSummary_DateStrategyMergesSameDay(t *testing.T) {
	ds := testutil.NewDatasetBuilder(t).
		WithPatient("101", "2025-06-01").
		WithHFH("101", testutil.Entry{Date: "2025-03-01", Term: "heart failure"}).
		WithCVH("101", testutil.Entry{Date: "2025-03-01", Term: "thoracentesis"}).
		Build()

	config := DefaultConfig()
	config.DedupStrategy = dedup.StrategyDate
	summary, err := New(ds, newClassifier(t), nil, config).GetPatientSummary(context.Background(), "101")
	require.NoError(t, err)

	assert.Equal(t, []string{"HFH_101_1"}, eventIDs(summary.PreEvents))
}

func TestGetPatientSummary_NoTreatmentDate(t *testing.T) {
	ds := testutil.NewDatasetBuilder(t).
		WithPatient("101", "").
		WithHFH("101", testutil.Entry{Date: "2019-03-01", Term: "heart failure"}).
		WithAE("101", "2031-09-01", "pulmonary edema").
		Build()

	summary := summarize(t, newEngine(t, ds, nil), "101")

	assert.False(t, summary.HasTreatmentDate())
	assert.Len(t, summary.PreEvents, 1)
	assert.Len(t, summary.PostEvents, 1)
	assert.Zero(t, summary.PreCount6M+summary.PreCount1Y+summary.PostCount6M+summary.PostCount1Y)
}

func TestGetPatientSummary_UnknownPatient(t *testing.T) {
	ds := testutil.NewDatasetBuilder(t).WithPatient("101", "2025-06-01").Build()

	_, err := newEngine(t, ds, nil).GetPatientSummary(context.Background(), "999")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetPatientSummary_NormalizesPatientID(t *testing.T) {
	ds := testutil.NewDatasetBuilder(t).WithPatient("101", "2025-06-01").Build()

	summary := summarize(t, newEngine(t, ds, nil), " 101.0 ")
	assert.Equal(t, "101", summary.PatientID)
}

func TestGetPatientSummary_NilContext(t *testing.T) {
	ds := testutil.NewDatasetBuilder(t).WithPatient("101", "2025-06-01").Build()

	//nolint:staticcheck // nil context is the case under test
	_, err := newEngine(t, ds, nil).GetPatientSummary(nil, "101")
	require.ErrorIs(t, err, ErrNilContext)
}

func TestGetPatientSummary_Overrides(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewDatasetBuilder(t).
		WithPatient("101", "2025-06-01").
		WithHFH("101",
			testutil.Entry{Date: "2025-03-01", Term: "heart failure"},
			testutil.Entry{Date: "2025-04-01", Term: "heart failure"},
		).
		WithCVH("101", testutil.Entry{Date: "2025-02-01", Term: "pneumonia"}).
		Build()

	store := override.NewStore(nil)
	e := newEngine(t, ds, store)

	before := summarize(t, e, "101")
	assert.Equal(t, 2, before.PreCount1Y)

	require.NoError(t, store.SetIncluded(ctx, "101", "HFH_101_2", false))
	_, err := store.AddManualEvent(ctx, "101", model.PeriodPre, "", "HF admission abroad", "")
	require.NoError(t, err)
	_, err = store.AddManualEvent(ctx, "101", model.PeriodPre, "2025-05-01", "HF admission", "")
	require.NoError(t, err)
	_, err = store.AddManualEvent(ctx, "101", model.PeriodPost, "2025-07-01", "HF admission", "")
	require.NoError(t, err)

	after := summarize(t, e, "101")

	assert.Equal(t, []string{"HFH_101_1", "HFH_101_2", "MANUAL_101_1", "MANUAL_101_2"}, eventIDs(after.PreEvents))
	assert.False(t, after.PreEvents[1].IsIncluded)
	// HFH_101_1, undated manual, dated manual
	assert.Equal(t, 3, after.PreCount1Y)
	assert.Equal(t, 2, after.PreCount6M)

	assert.Equal(t, []string{"MANUAL_101_3"}, eventIDs(after.PostEvents))
	assert.Equal(t, 1, after.PostCount6M)
	assert.Equal(t, 1, after.PostCount1Y)
}

func TestGetPatientSummary_ManualEventOutsideHorizonCountsTowardYear(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewDatasetBuilder(t).WithPatient("101", "2025-06-01").Build()
	store := override.NewStore(nil)

	_, err := store.AddManualEvent(ctx, "101", model.PeriodPre, "2023-01-01", "HF", "")
	require.NoError(t, err)

	summary := summarize(t, newEngine(t, ds, store), "101")
	assert.Equal(t, 1, summary.PreCount1Y)
	assert.Equal(t, 0, summary.PreCount6M)
}

func TestGetPatientSummary_Idempotent(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewDatasetBuilder(t).
		WithPatient("101", "2025-06-01").
		WithHFH("101",
			testutil.Entry{Date: "2025-03-01", Term: "heart failure"},
			testutil.Entry{Date: "", Term: "CHF exacerbation"},
		).
		WithHMEH("101", testutil.Entry{Date: "2025-03-01", Term: "heart failure"}).
		WithAE("101", "2025-09-01", "pulmonary edema").
		Build()
	store := override.NewStore(nil)
	require.NoError(t, store.SetNotes(ctx, "101", "HFH_101_1", "confirmed"))
	e := newEngine(t, ds, store)

	first := summarize(t, e, "101")
	second := summarize(t, e, "101")
	assert.Equal(t, first, second)
}

func TestGetAllPatientsSummary(t *testing.T) {
	ds := testutil.NewDatasetBuilder(t).
		WithPatient("103", "2025-06-01").
		WithPatient("101", "2025-06-01").
		WithPatient("102", "").
		WithHFH("101", testutil.Entry{Date: "2025-03-01", Term: "heart failure"}).
		WithAE("103", "2025-09-01", "pulmonary edema").
		Build()

	var mu sync.Mutex
	var calls []int
	config := DefaultConfig()
	config.Progress = func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, total)
		calls = append(calls, done)
	}

	summaries, err := New(ds, newClassifier(t), nil, config).GetAllPatientsSummary(context.Background())
	require.NoError(t, err)

	require.Len(t, summaries, 3)
	assert.Equal(t, "101", summaries[0].PatientID)
	assert.Equal(t, "102", summaries[1].PatientID)
	assert.Equal(t, "103", summaries[2].PatientID)
	assert.Equal(t, 1, summaries[0].PreCount1Y)
	assert.Equal(t, 1, summaries[2].PostCount1Y)
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestGetAllPatientsSummary_WorkersKeepOrder(t *testing.T) {
	b := testutil.NewDatasetBuilder(t)
	for _, id := range []string{"110", "104", "108", "101", "103", "109", "102", "105", "107", "106"} {
		b.WithPatient(id, "2025-06-01").WithHFH(id, testutil.Entry{Date: "2025-03-01", Term: "heart failure"})
	}
	ds := b.Build()

	sequential, err := newEngine(t, ds, nil).GetAllPatientsSummary(context.Background())
	require.NoError(t, err)

	config := DefaultConfig()
	config.Workers = 4
	parallel, err := New(ds, newClassifier(t), nil, config).GetAllPatientsSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
	assert.Equal(t, "101", parallel[0].PatientID)
	assert.Equal(t, "110", parallel[9].PatientID)
}

func TestGetAllPatientsSummary_Canceled(t *testing.T) {
	ds := testutil.NewDatasetBuilder(t).
		WithPatient("101", "2025-06-01").
		WithPatient("102", "2025-06-01").
		Build()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summaries, err := newEngine(t, ds, nil).GetAllPatientsSummary(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summaries)
}

func TestFindEvent(t *testing.T) {
	summary := &model.PatientSummary{
		PreEvents:  []model.HFEvent{{EventID: "HFH_1_1", MergedIDs: []string{"HMEH_1_1"}}},
		PostEvents: []model.HFEvent{{EventID: "AE_1_0"}},
	}

	event, period, ok := FindEvent(summary, "AE_1_0")
	require.True(t, ok)
	assert.Equal(t, model.PeriodPost, period)
	assert.Equal(t, "AE_1_0", event.EventID)

	event, period, ok = FindEvent(summary, "HMEH_1_1")
	require.True(t, ok)
	assert.Equal(t, model.PeriodPre, period)
	assert.Equal(t, "HFH_1_1", event.EventID)

	_, _, ok = FindEvent(summary, "missing")
	assert.False(t, ok)
}
