package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timecard-engine/calendar"
)

// =============================================================================
// EASTER / HOLIDAYS
// =============================================================================

func TestEasterSunday_KnownYears(t *testing.T) {
	cases := map[int]time.Time{
		2024: calendar.Day(2024, time.March, 31),
		2025: calendar.Day(2025, time.April, 20),
		2026: calendar.Day(2026, time.April, 5),
		2027: calendar.Day(2027, time.March, 28),
	}
	for year, want := range cases {
		assert.Equal(t, want, calendar.EasterSunday(year), "year %d", year)
	}
}

func TestNationalHolidays_MovableDates2026(t *testing.T) {
	cal := calendar.NewNational()

	assert.True(t, cal.IsHoliday(calendar.Day(2026, time.February, 16)), "carnival monday")
	assert.True(t, cal.IsHoliday(calendar.Day(2026, time.February, 17)), "carnival tuesday")
	assert.True(t, cal.IsHoliday(calendar.Day(2026, time.April, 3)), "good friday")
	assert.True(t, cal.IsHoliday(calendar.Day(2026, time.June, 4)), "corpus christi")
	assert.False(t, cal.IsHoliday(calendar.Day(2026, time.February, 18)))
}

func TestNationalHolidays_TwelvePerYear(t *testing.T) {
	holidays := calendar.NationalHolidays(2026)
	require.Len(t, holidays, 12)
	for i := 1; i < len(holidays); i++ {
		assert.False(t, holidays[i].Date.Before(holidays[i-1].Date), "sorted")
	}
}

func TestNational_ExtraHolidays(t *testing.T) {
	// GIVEN: A recurring municipal holiday and a one-off company holiday
	cal := calendar.NewNational(
		calendar.Holiday{Date: calendar.Day(2000, time.January, 25), Name: "Aniversário de SP", Recurring: true},
		calendar.Holiday{Date: calendar.Day(2026, time.December, 24), Name: "Véspera"},
	)

	assert.True(t, cal.IsHoliday(calendar.Day(2026, time.January, 25)))
	assert.True(t, cal.IsHoliday(calendar.Day(2027, time.January, 25)))
	assert.True(t, cal.IsHoliday(calendar.Day(2026, time.December, 24)))
	assert.False(t, cal.IsHoliday(calendar.Day(2027, time.December, 24)))
	assert.Len(t, cal.Holidays(2026), 14)
}

// =============================================================================
// CARD LINE RESOLUTION
// =============================================================================

func TestResolveDate_CycleStartDayRollsBack(t *testing.T) {
	// cycleStartDay = 15, reference 03/2026
	d, ok := calendar.ResolveDate(20, time.March, 2026, 15)
	require.True(t, ok)
	assert.Equal(t, calendar.Day(2026, time.February, 20), d)

	d, ok = calendar.ResolveDate(10, time.March, 2026, 15)
	require.True(t, ok)
	assert.Equal(t, calendar.Day(2026, time.March, 10), d)

	d, ok = calendar.ResolveDate(15, time.March, 2026, 15)
	require.True(t, ok)
	assert.Equal(t, calendar.Day(2026, time.March, 15), d, "the cutoff line stays in the reference month")
}

func TestResolveDate_InvalidLines(t *testing.T) {
	_, ok := calendar.ResolveDate(31, time.April, 2026, 0)
	assert.False(t, ok, "April has 30 days")

	_, ok = calendar.ResolveDate(30, time.March, 2026, 20)
	assert.False(t, ok, "line 30 maps to February 30")

	_, ok = calendar.ResolveDate(0, time.March, 2026, 0)
	assert.False(t, ok)
}

func TestResolveDate_JanuaryRollsToPreviousYear(t *testing.T) {
	d, ok := calendar.ResolveDate(25, time.January, 2026, 20)
	require.True(t, ok)
	assert.Equal(t, calendar.Day(2025, time.December, 25), d)
}

// =============================================================================
// COMPETENCE WINDOW / DAY COUNTS
// =============================================================================

func TestCompetenceWindow(t *testing.T) {
	p := calendar.CompetenceWindow(time.March, 2026, 0)
	assert.Equal(t, calendar.Day(2026, time.March, 1), p.Start)
	assert.Equal(t, calendar.Day(2026, time.March, 31), p.End)

	p = calendar.CompetenceWindow(time.March, 2026, 15)
	assert.Equal(t, calendar.Day(2026, time.February, 16), p.Start)
	assert.Equal(t, calendar.Day(2026, time.March, 15), p.End)
	assert.Len(t, p.Days(), 28)

	// February is shorter than 31: the window starts on the 1st of March.
	p = calendar.CompetenceWindow(time.March, 2026, 30)
	assert.Equal(t, calendar.Day(2026, time.March, 1), p.Start)
	assert.Equal(t, calendar.Day(2026, time.March, 30), p.End)
}

func TestCountBusinessAndRestDays_PlainMonth(t *testing.T) {
	// March 2026: 5 Sundays, 4 Saturdays, no holidays
	counts := calendar.CountBusinessAndRestDays(calendar.NewNational(), time.March, 2026, 0)
	assert.Equal(t, 22, counts.BusinessDays)
	assert.Equal(t, 5, counts.RestDays)
}

func TestCountBusinessAndRestDays_CycleWindowWithCarnival(t *testing.T) {
	// 2026-02-16 .. 2026-03-15: 4 Sundays, 4 Saturdays, carnival Mon+Tue
	counts := calendar.CountBusinessAndRestDays(calendar.NewNational(), time.March, 2026, 15)
	assert.Equal(t, 18, counts.BusinessDays)
	assert.Equal(t, 6, counts.RestDays)
}

func TestCountBusinessAndRestDays_AcrossYearBoundary(t *testing.T) {
	// 2025-12-21 .. 2026-01-20: Christmas (2025) and New Year (2026) both count
	counts := calendar.CountBusinessAndRestDays(nil, time.January, 2026, 20)
	assert.Equal(t, 20, counts.BusinessDays)
	assert.Equal(t, 7, counts.RestDays)
}
