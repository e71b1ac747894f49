// Package window parses clinical dates and decides whether an event falls
// inside a pre- or post-treatment horizon.
package window

import (
	"strings"
	"time"
)

// DateLayout is the canonical event date format.
const DateLayout = "2006-01-02"

// Accepted layouts, tried in order. Slash dates are read month-first when
// both readings are valid.
var dateLayouts = []string{
	"2006-1-2",
	"2-1-2006",
	"1/2/2006",
	"2/1/2006",
	"2006/1/2",
}

// ParseDate reads a date from the free-form strings found in the source tables.
// It tolerates a ", Time unknown" suffix, a trailing time part and trailing
// separators. The result is midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	s = strings.Replace(s, ", Time unknown", "", 1)
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	s = strings.TrimRight(strings.TrimSpace(s), ",;")

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate returns the canonical form of s, or "" when s is not a date.
func NormalizeDate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatDate formats t canonically; the zero time formats as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
