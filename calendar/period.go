package calendar

import "time"

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is an inclusive [Start, End] range of days.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if the day is within [Start, End].
func (p Period) Contains(t time.Time) bool {
	d := Truncate(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns every day of the period in ascending order.
func (p Period) Days() []time.Time {
	var days []time.Time
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (p Period) String() string {
	return "[" + p.Start.Format("2006-01-02") + ", " + p.End.Format("2006-01-02") + "]"
}

// =============================================================================
// COMPETENCE WINDOW
// =============================================================================

// CompetenceWindow returns the calendar days a competence month covers.
//
// cycleStartDay <= 1 gives the plain calendar month. Otherwise the window is
// [cycleStartDay+1 of the previous month, cycleStartDay of the reference
// month]. Both ends are clamped to the months' real lengths: when the previous
// month is shorter than cycleStartDay+1 the window starts on the 1st of the
// reference month.
func CompetenceWindow(month time.Month, year, cycleStartDay int) Period {
	if cycleStartDay <= 1 {
		return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
	}

	py, pm := PreviousMonth(year, month)
	start := StartOfMonth(year, month)
	if cycleStartDay+1 <= DaysIn(py, pm) {
		start = Day(py, pm, cycleStartDay+1)
	}

	endDay := cycleStartDay
	if n := DaysIn(year, month); endDay > n {
		endDay = n
	}
	return Period{Start: start, End: Day(year, month, endDay)}
}

// =============================================================================
// BUSINESS / REST DAY COUNTING
// =============================================================================

// DayCounts is the DSR basis of a competence window.
type DayCounts struct {
	BusinessDays int
	RestDays     int // Sundays and holidays
}

// CountBusinessAndRestDays classifies every day of the competence window.
// Holidays and Sundays are rest days, Saturdays count as neither, everything
// else is a business day. Each day is checked against its own year's
// holidays so windows across New Year use both holiday sets.
func CountBusinessAndRestDays(cal HolidayCalendar, month time.Month, year, cycleStartDay int) DayCounts {
	if cal == nil {
		cal = NewNational()
	}

	var counts DayCounts
	for _, d := range CompetenceWindow(month, year, cycleStartDay).Days() {
		switch {
		case cal.IsHoliday(d):
			counts.RestDays++
		case d.Weekday() == time.Sunday:
			counts.RestDays++
		case d.Weekday() == time.Saturday:
		default:
			counts.BusinessDays++
		}
	}
	return counts
}
