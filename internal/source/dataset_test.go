package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fontanka/edc-check/internal/model"
)

func mainTable() Table {
	return Table{
		Columns: []string{
			"Screening #", "Site", "TV_PR_SVDTC",
			"SBV_HFH_HOTERM", "SBV_HFH_HOSTDTC",
			"SBV_HMEH_HOTERM", "SBV_HMEH_HOSTDTC", "SBV_HMEH_MHTERM",
			"SBV_CVH_PRTRT", "SBV_CVH_PRSTDTC",
		},
		Rows: []Row{
			{"Screening #": "102-03", "TV_PR_SVDTC": "2025-06-01, Time unknown"},
			{"Screening #": "101.0", "TV_PR_SVDTC": "15/03/2025"},
			{"Screening #": "101", "TV_PR_SVDTC": "2020-01-01"},
			{"Screening #": "  "},
			{"Screening #": "103-01", "TV_PR_SVDTC": "pending"},
		},
	}
}

func TestNewDataset_IndexesPatients(t *testing.T) {
	d, err := NewDataset(mainTable(), Table{}, DefaultLayout())
	require.NoError(t, err)

	assert.Equal(t, []string{"101", "102-03", "103-01"}, d.PatientIDs())
	assert.True(t, d.HasPatient("101.0"))
	assert.False(t, d.HasPatient("999"))
}

func TestDataset_TreatmentDate(t *testing.T) {
	d, err := NewDataset(mainTable(), Table{}, DefaultLayout())
	require.NoError(t, err)

	td, ok := d.TreatmentDate("102-03")
	require.True(t, ok)
	assert.Equal(t, "2025-06-01", td.Format("2006-01-02"))

	td, ok = d.TreatmentDate("101")
	require.True(t, ok)
	assert.Equal(t, "2025-03-15", td.Format("2006-01-02"), "first row of a duplicated patient wins")

	_, ok = d.TreatmentDate("103-01")
	assert.False(t, ok)

	_, ok = d.TreatmentDate("unknown")
	assert.False(t, ok)
}

func TestDataset_TreatmentColumnBySubstring(t *testing.T) {
	table := Table{
		Columns: []string{"Screening #", "V1_TV_PR_SVDTC"},
		Rows:    []Row{{"Screening #": "1", "V1_TV_PR_SVDTC": "2025-01-01"}},
	}
	d, err := NewDataset(table, Table{}, DefaultLayout())
	require.NoError(t, err)

	_, ok := d.TreatmentDate("1")
	assert.True(t, ok)
}

func TestDataset_MissingTreatmentColumn(t *testing.T) {
	table := Table{Columns: []string{"Screening #"}, Rows: []Row{{"Screening #": "1"}}}
	d, err := NewDataset(table, Table{}, DefaultLayout())
	require.NoError(t, err)

	_, ok := d.TreatmentDate("1")
	assert.False(t, ok)
}

func TestNewDataset_MissingColumns(t *testing.T) {
	_, err := NewDataset(Table{Columns: []string{"Patient"}}, Table{}, DefaultLayout())
	assert.ErrorIs(t, err, ErrMissingColumn)

	ae := Table{Columns: []string{"Screening #"}, Rows: []Row{{"Screening #": "1"}}}
	_, err = NewDataset(mainTable(), ae, DefaultLayout())
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestFormSchema_Resolve(t *testing.T) {
	d, err := NewDataset(mainTable(), Table{}, DefaultLayout())
	require.NoError(t, err)

	forms := d.Forms()
	require.Len(t, forms, 3)

	assert.Equal(t, model.FormHFH, forms[0].Form)
	assert.Equal(t, []ColumnPair{{Term: "SBV_HFH_HOTERM", Date: "SBV_HFH_HOSTDTC"}}, forms[0].Columns)

	assert.Equal(t, model.FormHMEH, forms[1].Form)
	assert.Equal(t, []ColumnPair{
		{Term: "SBV_HMEH_HOTERM", Date: "SBV_HMEH_HOSTDTC"},
		{Term: "SBV_HMEH_MHTERM"},
	}, forms[1].Columns)

	assert.Equal(t, model.FormCVH, forms[2].Form)
	assert.Equal(t, []ColumnPair{{Term: "SBV_CVH_PRTRT", Date: "SBV_CVH_PRSTDTC"}}, forms[2].Columns)
}

func TestDataset_AdverseEvents(t *testing.T) {
	ae := Table{
		Columns: []string{"Screening #", "Template number", "LOGS_AE_AETERM", "LOGS_AE_AESTDTC"},
		Rows: []Row{
			{"Screening #": "101", "LOGS_AE_AETERM": "Headache", "LOGS_AE_AESTDTC": "2025-04-01"},
			{"Screening #": "102-03", "LOGS_AE_AETERM": "Pulmonary edema", "LOGS_AE_AESTDTC": "2025-09-01"},
			{"Screening #": "101.0", "LOGS_AE_AETERM": " CHF ", "LOGS_AE_AESTDTC": ""},
		},
	}
	d, err := NewDataset(mainTable(), ae, DefaultLayout())
	require.NoError(t, err)

	assert.Equal(t, []AERecord{
		{Index: 0, Term: "Headache", Onset: "2025-04-01"},
		{Index: 2, Term: "CHF"},
	}, d.AdverseEvents("101"))
	assert.Len(t, d.AdverseEvents("102-03"), 1)
	assert.Empty(t, d.AdverseEvents("103-01"))
}

func TestReadCSV(t *testing.T) {
	input := "\ufeffScreening #,TV_PR_SVDTC,SBV_HFH_HOTERM\n" +
		"101,2025-06-01,\"#1 / 2025-03-01 / Heart failure | #2 / 2025-04-02 / CHF, worsening\"\n" +
		"102\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Screening #", "TV_PR_SVDTC", "SBV_HFH_HOTERM"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "#1 / 2025-03-01 / Heart failure | #2 / 2025-04-02 / CHF, worsening", table.Rows[0]["SBV_HFH_HOTERM"])
	assert.Equal(t, "102", table.Rows[1].Get("Screening #"))
	assert.Equal(t, "", table.Rows[1].Get("TV_PR_SVDTC"))
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestReadCSVFile_Missing(t *testing.T) {
	_, err := ReadCSVFile(t.TempDir() + "/missing.csv")
	assert.Error(t, err)
}
