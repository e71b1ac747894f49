package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fontanka/edc-check/internal/classification"
	"github.com/fontanka/edc-check/internal/common"
	"github.com/fontanka/edc-check/internal/sheets"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("HFH_TEST_DIR", "/data/trial")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/.config/hfh", filepath.Join(home, ".config/hfh")},
		{"$HFH_TEST_DIR/main.csv", "/data/trial/main.csv"},
		{"/abs/path.db", "/abs/path.db"},
		{"~other/file", "~other/file"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoadTuning_MissingFile(t *testing.T) {
	file, err := LoadTuning(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, file.CustomIncludes)
	assert.Empty(t, file.CustomExcludes)
}

func TestLoadTuning_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("custom_includes: [unclosed"), 0600))

	_, err := LoadTuning(path)
	require.Error(t, err)
}

func TestSaveTuning_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tuning.yaml")
	want := TuningFile{
		CustomIncludes: []string{"cardiac decompensation"},
		CustomExcludes: []string{"renal failure"},
	}

	require.NoError(t, SaveTuning(path, want))

	got, err := LoadTuning(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveTuning_WritesEmptyLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, SaveTuning(path, TuningFile{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "custom_includes: []")
	assert.Contains(t, string(data), "custom_excludes: []")
}

func TestTuningStore_ChangesArePersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	store, err := OpenTuningStore(path)
	require.NoError(t, err)

	version := store.Tuning().Version()

	changed, err := store.AddInclude("  Cardiac Decompensation ")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.AddInclude("cardiac decompensation")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = store.AddExclude("Renal Failure")
	require.NoError(t, err)
	assert.True(t, changed)

	assert.Greater(t, store.Tuning().Version(), version)

	file, err := LoadTuning(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"cardiac decompensation"}, file.CustomIncludes)
	assert.Equal(t, []string{"renal failure"}, file.CustomExcludes)

	changed, err = store.RemoveExclude("renal failure")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.RemoveInclude("not present")
	require.NoError(t, err)
	assert.False(t, changed)

	reopened, err := OpenTuningStore(path)
	require.NoError(t, err)
	snap := reopened.Tuning().Snapshot()
	assert.Equal(t, []string{"cardiac decompensation"}, snap.Includes)
	assert.Empty(t, snap.Excludes)
}

func TestTuningStore_SaveFailureLeavesTuningUnchanged(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	store := &TuningStore{
		tuning: classification.NewTuning(nil, nil),
		path:   filepath.Join(blocker, "tuning.yaml"),
	}

	changed, err := store.AddInclude("cardiac decompensation")
	require.ErrorIs(t, err, common.ErrPersistence)
	assert.False(t, changed)
	assert.Empty(t, store.Tuning().Snapshot().Includes)
	assert.Zero(t, store.Tuning().Version())
}

func TestTuningStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	store, err := OpenTuningStore(path)
	require.NoError(t, err)

	require.NoError(t, SaveTuning(path, TuningFile{CustomExcludes: []string{"Valve Disease"}}))
	require.NoError(t, store.Reload())

	assert.Equal(t, []string{"valve disease"}, store.Tuning().Snapshot().Excludes)
}

func TestLoadSheetsConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "")
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "HF Trial Summary")

	_, err := LoadSheetsConfig()
	require.Error(t, err)

	viper.Set("sheets.service_account_path", "/keys/sa.json")
	viper.Set("sheets.spreadsheet_id", "sheet-123")

	cfg, err := LoadSheetsConfig()
	require.NoError(t, err)
	assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
	assert.Equal(t, "sheet-123", cfg.SpreadsheetID)
	assert.Equal(t, "HF Trial Summary", cfg.SpreadsheetName)
	assert.Equal(t, sheets.DefaultConfig().BatchSize, cfg.BatchSize)
	assert.Equal(t, sheets.DefaultSummaryTab, cfg.SummaryTab)
	assert.Equal(t, sheets.DefaultEventsTab, cfg.EventsTab)
}

func TestLoadSheetsConfig_Tabs(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "/keys/sa.json")

	viper.Set("sheets.summary_tab", "Site 12 counts")
	viper.Set("sheets.events_tab", "Site 12 events")
	viper.Set("sheets.batch_size", 250)
	viper.Set("sheets.formatting", false)

	cfg, err := LoadSheetsConfig()
	require.NoError(t, err)
	summary, events := cfg.Tabs()
	assert.Equal(t, "Site 12 counts", summary)
	assert.Equal(t, "Site 12 events", events)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.False(t, cfg.EnableFormatting)

	viper.Set("sheets.events_tab", "site 12 COUNTS")
	_, err = LoadSheetsConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tabs must differ")
}
