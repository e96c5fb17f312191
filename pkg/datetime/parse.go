// Package datetime provides date and time utility functions.
package datetime

import (
	"time"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
)

const (
	// DateLayout is the format expected for closing dates.
	DateLayout = constants.DateLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// StartOfDay truncates t to midnight UTC of its calendar date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FirstOfNextMonth returns the first day of the month following closing.
// Per-diem interest is collected from closing up to this date.
func FirstOfNextMonth(closing time.Time) time.Time {
	y, m, _ := closing.Date()
	return time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
}

// FirstPaymentDate returns the first scheduled mortgage payment date, which
// is the first of the month after the month following closing.
func FirstPaymentDate(closing time.Time) time.Time {
	y, m, _ := closing.Date()
	return time.Date(y, m+2, 1, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from start to end. It is
// negative when end precedes start.
func DaysBetween(start, end time.Time) int {
	return int(StartOfDay(end).Sub(StartOfDay(start)).Hours() / 24)
}

// PerDiemDays returns the number of days of prepaid interest for a loan
// closing on the given date, capped at maxDays when maxDays is positive.
func PerDiemDays(closing time.Time, maxDays int) int {
	days := DaysBetween(closing, FirstOfNextMonth(closing))
	if maxDays > 0 && days > maxDays {
		return maxDays
	}
	return days
}
