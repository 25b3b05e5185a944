/*
Package calendar provides the date arithmetic the time-card engine runs on.

PURPOSE:
  Everything that depends on the civil calendar lives here: day constructors,
  the Brazilian national holiday set (fixed and Easter-derived), competence
  windows, card-line to date resolution, and business/rest day counting.

KEY CONCEPTS:
  - Day: a time.Time truncated to midnight UTC. All engine dates use it.
  - Competence: the month/year a card or payslip belongs to. When the cycle
    start day is greater than 1 the competence window straddles two calendar
    months.
  - HolidayCalendar: holiday lookup. National is the default implementation
    and can carry extra (municipal/company) holidays loaded from a store.

USAGE:
  cal := calendar.NewNational()
  counts := calendar.CountBusinessAndRestDays(cal, time.March, 2026, 15)
  date, ok := calendar.ResolveDate(20, time.March, 2026, 15) // 2026-02-20

SEE ALSO:
  - holidays.go: fixed and movable holidays
  - period.go: competence windows and day counting
*/
package calendar

import "time"

// =============================================================================
// DAY CONSTRUCTORS
// =============================================================================

// Day returns midnight UTC of the given date. Out-of-range values are
// normalized by time.Date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the clock part of t, keeping its calendar date.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Day(y, m, d)
}

// ValidDay reports whether (year, month, day) is a real calendar date.
func ValidDay(year int, month time.Month, day int) bool {
	if day < 1 || month < time.January || month > time.December {
		return false
	}
	return day <= DaysIn(year, month)
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return Day(year, month+1, 0).Day()
}

func StartOfMonth(year int, month time.Month) time.Time { return Day(year, month, 1) }
func EndOfMonth(year int, month time.Month) time.Time   { return Day(year, month, DaysIn(year, month)) }

// PreviousMonth returns the month/year immediately before the given one.
func PreviousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// =============================================================================
// CARD LINE RESOLUTION
// =============================================================================

// ResolveDate maps a physical card line (1-31) to its calendar date for the
// competence month/year.
//
// With cycleStartDay <= 1 the line is the day of the reference month. With a
// later cycle start, lines greater than cycleStartDay belong to the previous
// calendar month. The second return value is false when the resulting date
// does not exist (for example line 31 in a 30-day month).
func ResolveDate(line int, month time.Month, year, cycleStartDay int) (time.Time, bool) {
	if line < 1 || line > 31 {
		return time.Time{}, false
	}

	y, m := year, month
	if cycleStartDay > 1 && line > cycleStartDay {
		y, m = PreviousMonth(year, month)
	}

	if !ValidDay(y, m, line) {
		return time.Time{}, false
	}
	return Day(y, m, line), true
}
