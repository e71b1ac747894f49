package window

import "time"

// Default horizons in days.
const (
	SixMonthDays = 183
	OneYearDays  = 365
	PostListDays = 5 * 365
	hoursPerDay  = 24
)

// DaysBetween returns the whole days from a to b, negative when b is before a.
func DaysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / hoursPerDay)
}

// IsWithinWindow reports whether event lies inside the horizon of days on the
// given side of treatment. The treatment day itself belongs to the
// pre-treatment side. A zero time on either side is never inside a window.
func IsWithinWindow(event, treatment time.Time, preTreatment bool, days int) bool {
	if event.IsZero() || treatment.IsZero() {
		return false
	}
	if preTreatment {
		delta := DaysBetween(event, treatment)
		return delta >= 0 && delta <= days
	}
	delta := DaysBetween(treatment, event)
	return delta > 0 && delta <= days
}

// Horizons configures the counting windows and the list retention windows.
type Horizons struct {
	ShortDays    int `mapstructure:"short_days"`
	LongDays     int `mapstructure:"long_days"`
	PostListDays int `mapstructure:"post_list_days"`
}

// DefaultHorizons returns the 6 month / 1 year horizons and a five year post list.
func DefaultHorizons() Horizons {
	return Horizons{
		ShortDays:    SixMonthDays,
		LongDays:     OneYearDays,
		PostListDays: PostListDays,
	}
}

// Membership is where one event falls relative to treatment.
type Membership struct {
	Date      time.Time
	Dated     bool
	InShort   bool
	InLong    bool
	InListing bool
}

// Classify computes the membership of an event date for a period. The
// listing window is the long horizon before treatment and PostListDays after.
func (h Horizons) Classify(eventDate string, treatment time.Time, preTreatment bool) Membership {
	date, ok := ParseDate(eventDate)
	m := Membership{Date: date, Dated: ok}
	if !ok || treatment.IsZero() {
		return m
	}
	m.InShort = IsWithinWindow(date, treatment, preTreatment, h.ShortDays)
	m.InLong = IsWithinWindow(date, treatment, preTreatment, h.LongDays)
	if preTreatment {
		m.InListing = m.InLong
	} else {
		m.InListing = IsWithinWindow(date, treatment, false, h.PostListDays)
	}
	return m
}
