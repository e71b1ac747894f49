package override

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fontanka/edc-check/internal/model"
	"github.com/fontanka/edc-check/internal/testutil"
)

func TestStore_SurvivesReload(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	first := NewStore(db, WithAuthor("reviewer"))
	require.NoError(t, first.SetIncluded(ctx, "P1", "HFH_P1_1", false))
	require.NoError(t, first.SetNotes(ctx, "P1", "HFH_P1_1", "outpatient visit"))
	manual, err := first.AddManualEvent(ctx, "P1", model.PeriodPost, "2024-05-03", "HF admission", "")
	require.NoError(t, err)

	second := NewStore(db)
	require.NoError(t, second.Load(ctx))

	assert.Equal(t, first.History("P1"), second.History("P1"))

	pre := second.Apply("P1", model.PeriodPre, autoEvents())
	assert.False(t, pre[0].IsIncluded)
	assert.Equal(t, "outpatient visit", pre[0].Notes)

	post := second.Apply("P1", model.PeriodPost, nil)
	require.Len(t, post, 1)
	assert.Equal(t, manual, post[0])

	next, err := second.AddManualEvent(ctx, "P1", model.PeriodPost, "", "HF", "")
	require.NoError(t, err)
	assert.Equal(t, "MANUAL_P1_2", next.EventID)
}
