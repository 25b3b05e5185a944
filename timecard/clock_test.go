package timecard_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/timecard-engine/timecard"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"08:00", 480, true},
		{"8:05", 485, true},
		{" 23:59 ", 1439, true},
		{"00:00", 0, true},
		{"", 0, false},
		{"0800", 0, false},
		{"8h00", 0, false},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"ab:cd", 0, false},
		{"12:5", 0, false},
	}
	for _, c := range cases {
		got, ok := timecard.ParseClock(c.in)
		assert.Equal(t, c.ok, ok, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
		assert.Equal(t, c.want, timecard.MinutesOfDay(c.in), "input %q", c.in)
	}
}

func TestDuration_WrapsOnceAtMidnight(t *testing.T) {
	assert.Equal(t, 540, timecard.Duration(480, 1020))
	assert.Equal(t, 240, timecard.Duration(22*60, 2*60))
	assert.Equal(t, 0, timecard.Duration(600, 600))
}

func TestFormatClock_InverseOfParse(t *testing.T) {
	for m := 0; m < timecard.MinutesPerDay; m += 7 {
		got, ok := timecard.ParseClock(timecard.FormatClock(m))
		assert.True(t, ok)
		assert.Equal(t, m, got)
	}
	assert.Equal(t, "02:00", timecard.FormatClock(26*60))
	assert.Equal(t, "23:00", timecard.FormatClock(-60))
}

func TestExpectedMinutes(t *testing.T) {
	comp := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday}

	assert.Equal(t, 0, timecard.ExpectedMinutes(timecard.JourneyRule{DailyHours: 8, OvertimeCard: true, Weekday: time.Monday}))
	assert.Equal(t, 480, timecard.ExpectedMinutes(timecard.JourneyRule{DailyHours: 8, Weekday: time.Saturday}))
	assert.Equal(t, 528, timecard.ExpectedMinutes(timecard.JourneyRule{DailyHours: 8.8, Weekday: time.Friday}))

	rule := timecard.JourneyRule{DailyHours: 8, SaturdayCompensation: true, CompensationWeekdays: comp}
	rule.Weekday = time.Monday
	assert.Equal(t, 540, timecard.ExpectedMinutes(rule))
	rule.Weekday = time.Friday
	assert.Equal(t, 480, timecard.ExpectedMinutes(rule))
	rule.Weekday = time.Saturday
	assert.Equal(t, 0, timecard.ExpectedMinutes(rule))
}
