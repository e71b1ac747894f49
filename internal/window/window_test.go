package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, ok := ParseDate(s)
	require.True(t, ok, "unparseable test date %q", s)
	return d
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{input: "2025-03-15", want: "2025-03-15", ok: true},
		{input: "15-03-2025", want: "2025-03-15", ok: true},
		{input: "03/15/2025", want: "2025-03-15", ok: true},
		{input: "15/03/2025", want: "2025-03-15", ok: true},
		{input: "2025/03/15", want: "2025-03-15", ok: true},
		{input: "2025-3-5", want: "2025-03-05", ok: true},
		{input: "2025-03-15T10:30:00", want: "2025-03-15", ok: true},
		{input: "2025-03-15 10:30", want: "2025-03-15", ok: true},
		{input: "2025-03-15, Time unknown", want: "2025-03-15", ok: true},
		{input: "2025-03-15;", want: "2025-03-15", ok: true},
		{input: "  2025-03-15  ", want: "2025-03-15", ok: true},
		{input: "04/05/2025", want: "2025-04-05", ok: true},
		{input: "", ok: false},
		{input: "unknown", ok: false},
		{input: "2025-03", ok: false},
		{input: "2025-13-45", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format(DateLayout))
			} else {
				assert.True(t, got.IsZero())
			}
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2025-03-15", NormalizeDate("15/03/2025"))
	assert.Equal(t, "", NormalizeDate("not recorded"))
	assert.Equal(t, "", FormatDate(time.Time{}))
}

func TestIsWithinWindow_TreatmentDayBoundary(t *testing.T) {
	treatment := date(t, "2025-06-01")

	assert.True(t, IsWithinWindow(treatment, treatment, true, 365), "treatment day counts as pre")
	assert.False(t, IsWithinWindow(treatment, treatment, false, 365), "treatment day is not post")
	assert.True(t, IsWithinWindow(date(t, "2025-06-02"), treatment, false, 365))
	assert.False(t, IsWithinWindow(date(t, "2025-06-02"), treatment, true, 365))
}

func TestIsWithinWindow_Horizons(t *testing.T) {
	treatment := date(t, "2025-06-01")

	tests := []struct {
		name  string
		event string
		pre   bool
		days  int
		want  bool
	}{
		{name: "122 days before within 6M", event: "2025-01-30", pre: true, days: SixMonthDays, want: true},
		{name: "214 days before outside 6M", event: "2024-10-30", pre: true, days: SixMonthDays, want: false},
		{name: "214 days before within 1Y", event: "2024-10-30", pre: true, days: OneYearDays, want: true},
		{name: "exactly 183 days before", event: "2024-11-30", pre: true, days: SixMonthDays, want: true},
		{name: "184 days before", event: "2024-11-29", pre: true, days: SixMonthDays, want: false},
		{name: "exactly 365 days after", event: "2026-06-01", pre: false, days: OneYearDays, want: true},
		{name: "366 days after", event: "2026-06-02", pre: false, days: OneYearDays, want: false},
		{name: "after treatment is not pre", event: "2025-07-01", pre: true, days: OneYearDays, want: false},
		{name: "before treatment is not post", event: "2025-05-01", pre: false, days: OneYearDays, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWithinWindow(date(t, tt.event), treatment, tt.pre, tt.days))
		})
	}
}

func TestIsWithinWindow_MissingDates(t *testing.T) {
	treatment := date(t, "2025-06-01")
	assert.False(t, IsWithinWindow(time.Time{}, treatment, true, 365))
	assert.False(t, IsWithinWindow(treatment, time.Time{}, true, 365))
	assert.False(t, IsWithinWindow(time.Time{}, time.Time{}, false, 365))
}

func TestHorizons_Classify(t *testing.T) {
	h := DefaultHorizons()
	treatment := date(t, "2025-06-01")

	m := h.Classify("2025-03-01", treatment, true)
	assert.True(t, m.Dated)
	assert.True(t, m.InShort)
	assert.True(t, m.InLong)
	assert.True(t, m.InListing)

	m = h.Classify("2023-01-01", treatment, true)
	assert.True(t, m.Dated)
	assert.False(t, m.InLong)
	assert.False(t, m.InListing)

	m = h.Classify("2028-01-01", treatment, false)
	assert.False(t, m.InLong)
	assert.True(t, m.InListing, "post listing keeps five years")

	m = h.Classify("", treatment, false)
	assert.False(t, m.Dated)
	assert.False(t, m.InListing)

	m = h.Classify("2025-03-01", time.Time{}, true)
	assert.True(t, m.Dated)
	assert.False(t, m.InShort)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 92, DaysBetween(date(t, "2025-03-01"), date(t, "2025-06-01")))
	assert.Equal(t, -92, DaysBetween(date(t, "2025-06-01"), date(t, "2025-03-01")))
	assert.Equal(t, 0, DaysBetween(date(t, "2025-06-01"), date(t, "2025-06-01")))
}
