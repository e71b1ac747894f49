package override

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fontanka/edc-check/internal/common"
	"github.com/fontanka/edc-check/internal/model"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) AppendEdit(ctx context.Context, rec *model.EditRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockStorage) GetEdits(ctx context.Context) ([]model.EditRecord, error) {
	args := m.Called(ctx)
	if edits := args.Get(0); edits != nil {
		return edits.([]model.EditRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestStore(storage *mockStorage) *Store {
	n := 0
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	opts := []Option{
		WithAuthor("reviewer"),
		WithClock(func() time.Time { return clock }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("edit-%d", n)
		}),
	}
	if storage == nil {
		return NewStore(nil, opts...)
	}
	return NewStore(storage, opts...)
}

func autoEvents() []model.HFEvent {
	return []model.HFEvent{
		{
			EventID:        "HFH_P1_1",
			Date:           "2024-01-10",
			SourceForm:     model.FormHFH,
			OriginalTerm:   "Heart failure",
			MatchedSynonym: "heart failure",
			MatchType:      model.MatchExact,
			Confidence:     1.0,
			IsIncluded:     true,
		},
		{
			EventID:      "CVH_P1_1",
			Date:         "2023-11-02",
			SourceForm:   model.FormCVH,
			OriginalTerm: "Pneumonia",
			MatchType:    model.MatchNone,
			IsIncluded:   false,
		},
	}
}

func TestStore_SetIncludedAndNotes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil)

	require.NoError(t, store.SetIncluded(ctx, "P1", "HFH_P1_1", false))
	require.NoError(t, store.SetNotes(ctx, "P1", "HFH_P1_1", "readmission, not index event"))
	require.NoError(t, store.SetIncluded(ctx, "P1", "CVH_P1_1", true))

	events := autoEvents()
	got := store.Apply("P1", model.PeriodPre, events)

	require.Len(t, got, 2)
	assert.False(t, got[0].IsIncluded)
	assert.Equal(t, "readmission, not index event", got[0].Notes)
	assert.True(t, got[1].IsIncluded)

	// input untouched
	assert.True(t, events[0].IsIncluded)
	assert.Empty(t, events[0].Notes)
}

func TestStore_LatestEditWins(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil)

	require.NoError(t, store.SetIncluded(ctx, "P1", "HFH_P1_1", false))
	require.NoError(t, store.SetIncluded(ctx, "P1", "HFH_P1_1", true))
	require.NoError(t, store.SetIncluded(ctx, "P1", "HFH_P1_1", false))

	got := store.Apply("P1", model.PeriodPre, autoEvents())
	assert.False(t, got[0].IsIncluded)
	assert.Len(t, store.History("P1"), 3)
}

func TestStore_ApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil)

	require.NoError(t, store.SetIncluded(ctx, "P1", "HFH_P1_1", false))
	_, err := store.AddManualEvent(ctx, "P1", model.PeriodPre, "2023-12-01", "HF admission", "")
	require.NoError(t, err)

	first := store.Apply("P1", model.PeriodPre, autoEvents())
	second := store.Apply("P1", model.PeriodPre, autoEvents())
	assert.Equal(t, first, second)
}

func TestStore_AddManualEvent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil)

	event, err := store.AddManualEvent(ctx, "P1", model.PeriodPost, "2024-05-03", "  HF admission  ", "from discharge letter")
	require.NoError(t, err)

	assert.Equal(t, "MANUAL_P1_1", event.EventID)
	assert.Equal(t, model.FormManualPost, event.SourceForm)
	assert.Equal(t, "2024-05-03", event.Date)
	assert.Equal(t, "HF admission", event.OriginalTerm)
	assert.Equal(t, model.MatchManual, event.MatchType)
	assert.True(t, event.IsManual)
	assert.True(t, event.IsIncluded)
	assert.InDelta(t, 1.0, event.Confidence, 0.0001)

	post := store.Apply("P1", model.PeriodPost, nil)
	require.Len(t, post, 1)
	assert.Equal(t, event, post[0])

	pre := store.Apply("P1", model.PeriodPre, nil)
	assert.Empty(t, pre)
}

func TestStore_AddManualEvent_NormalizesDate(t *testing.T) {
	store := newTestStore(nil)

	event, err := store.AddManualEvent(context.Background(), "P1", model.PeriodPre, "2023-7-4", "HF", "")
	require.NoError(t, err)
	assert.Equal(t, "2023-07-04", event.Date)

	undated, err := store.AddManualEvent(context.Background(), "P1", model.PeriodPre, "", "HF", "")
	require.NoError(t, err)
	assert.Empty(t, undated.Date)
	assert.Equal(t, "MANUAL_P1_2", undated.EventID)
}

func TestStore_AddManualEvent_Invalid(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		patient string
		period  model.Period
		date    string
		term    string
	}{
		{name: "empty term", patient: "P1", period: model.PeriodPre, term: "  ", wantErr: ErrEmptyTerm},
		{name: "bad date", patient: "P1", period: model.PeriodPre, date: "sometime", term: "HF", wantErr: ErrInvalidDate},
		{name: "unknown period", patient: "P1", period: model.Period("during"), term: "HF", wantErr: model.ErrUnknownPeriod},
		{name: "empty patient", patient: "", period: model.PeriodPre, term: "HF", wantErr: common.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(nil)
			_, err := store.AddManualEvent(context.Background(), tt.patient, tt.period, tt.date, tt.term, "")
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.History(tt.patient))
		})
	}
}

func TestStore_ManualIDsAreNeverReused(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil)

	first, err := store.AddManualEvent(ctx, "P1", model.PeriodPre, "", "HF", "")
	require.NoError(t, err)
	require.NoError(t, store.DeleteEvent(ctx, "P1", first.EventID))

	second, err := store.AddManualEvent(ctx, "P1", model.PeriodPre, "", "HF", "")
	require.NoError(t, err)
	assert.Equal(t, "MANUAL_P1_2", second.EventID)

	other, err := store.AddManualEvent(ctx, "P2", model.PeriodPre, "", "HF", "")
	require.NoError(t, err)
	assert.Equal(t, "MANUAL_P2_1", other.EventID)
}

func TestStore_DeleteEvent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil)

	manual, err := store.AddManualEvent(ctx, "P1", model.PeriodPre, "2023-12-01", "HF", "")
	require.NoError(t, err)
	require.NoError(t, store.SetIncluded(ctx, "P1", "HFH_P1_1", false))
	require.NoError(t, store.SetNotes(ctx, "P1", "HFH_P1_1", "check"))

	require.NoError(t, store.DeleteEvent(ctx, "P1", manual.EventID))
	require.NoError(t, store.DeleteEvent(ctx, "P1", "HFH_P1_1"))

	got := store.Apply("P1", model.PeriodPre, autoEvents())
	require.Len(t, got, 2)
	assert.Equal(t, autoEvents(), got)

	// edits after a revert apply again
	require.NoError(t, store.SetIncluded(ctx, "P1", "HFH_P1_1", false))
	got = store.Apply("P1", model.PeriodPre, autoEvents())
	assert.False(t, got[0].IsIncluded)
}

func TestStore_OverrideOnManualEvent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil)

	manual, err := store.AddManualEvent(ctx, "P1", model.PeriodPre, "2023-12-01", "HF", "")
	require.NoError(t, err)
	require.NoError(t, store.SetIncluded(ctx, "P1", manual.EventID, false))

	got := store.Apply("P1", model.PeriodPre, nil)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsIncluded)
}

func TestStore_OverrideForMissingEventIsKept(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil)

	require.NoError(t, store.SetIncluded(ctx, "P1", "HFH_P1_9", false))

	got := store.Apply("P1", model.PeriodPre, autoEvents())
	assert.Equal(t, autoEvents(), got)
	assert.Len(t, store.History("P1"), 1)

	reappeared := store.Apply("P1", model.PeriodPre, []model.HFEvent{{EventID: "HFH_P1_9", IsIncluded: true}})
	assert.False(t, reappeared[0].IsIncluded)
}

func TestStore_PersistsBeforeAppending(t *testing.T) {
	ctx := context.Background()
	ms := &mockStorage{}
	ms.On("AppendEdit", ctx, mock.MatchedBy(func(rec *model.EditRecord) bool {
		return rec.ID == "edit-1" && rec.Author == "reviewer" && rec.Field == model.FieldIsIncluded
	})).Return(nil).Once()

	store := newTestStore(ms)
	require.NoError(t, store.SetIncluded(ctx, "P1", "HFH_P1_1", false))

	ms.AssertExpectations(t)
	history := store.History("P1")
	require.Len(t, history, 1)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), history[0].Timestamp)
	assert.JSONEq(t, "false", string(history[0].Value))
}

func TestStore_PersistenceFailureLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	ms := &mockStorage{}
	ms.On("AppendEdit", ctx, mock.Anything).Return(errors.New("disk full"))

	store := newTestStore(ms)

	err := store.SetIncluded(ctx, "P1", "HFH_P1_1", false)
	require.ErrorIs(t, err, common.ErrPersistence)

	_, err = store.AddManualEvent(ctx, "P1", model.PeriodPre, "", "HF", "")
	require.ErrorIs(t, err, common.ErrPersistence)

	assert.Empty(t, store.History("P1"))
	assert.Equal(t, autoEvents(), store.Apply("P1", model.PeriodPre, autoEvents()))
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()
	ms := &mockStorage{}
	ms.On("GetEdits", ctx).Return([]model.EditRecord{
		{ID: "a", PatientID: "P1", Kind: model.EditSetField, EventID: "HFH_P1_1", Field: model.FieldIsIncluded, Value: []byte("false")},
		{ID: "b", PatientID: "P2", Kind: model.EditSetField, EventID: "HFH_P2_1", Field: model.FieldNotes, Value: []byte(`"x"`)},
	}, nil)

	store := newTestStore(ms)
	require.NoError(t, store.Load(ctx))

	assert.Equal(t, []string{"P1", "P2"}, store.Patients())
	got := store.Apply("P1", model.PeriodPre, autoEvents())
	assert.False(t, got[0].IsIncluded)
}

func TestStore_LoadFailure(t *testing.T) {
	ctx := context.Background()
	ms := &mockStorage{}
	ms.On("GetEdits", ctx).Return(nil, errors.New("locked"))

	err := newTestStore(ms).Load(ctx)
	require.ErrorIs(t, err, common.ErrPersistence)
}

func TestStore_HistoryIsACopy(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil)
	require.NoError(t, store.SetNotes(ctx, "P1", "HFH_P1_1", "a"))

	history := store.History("P1")
	history[0].Value[1] = 'z'
	history[0].EventID = "changed"

	fresh := store.History("P1")
	assert.Equal(t, "HFH_P1_1", fresh[0].EventID)
	assert.JSONEq(t, `"a"`, string(fresh[0].Value))
}
