package projection_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timecard-engine/calendar"
	"github.com/warp/timecard-engine/projection"
	"github.com/warp/timecard-engine/timecard"
)

func testSettings() *timecard.Settings {
	return &timecard.Settings{
		BaseSalary:        decimal.NewFromInt(3000),
		MonthlyHours:      decimal.NewFromInt(220),
		DailyJourneyHours: 8,
		WeeklyCapHours:    10,
		NightCutoff:       "22:00",
		Pct50:             decimal.NewFromInt(50),
		Pct100:            decimal.NewFromInt(100),
		PctNight:          decimal.NewFromInt(20),
		CycleStartDay:     1,
		JourneyStart:      "08:00",
		LunchStart:        "12:00",
		LunchEnd:          "13:00",
	}
}

// March 2026 starts on a Sunday and has no national holiday.
func project(t *testing.T, agg projection.Aggregates, s *timecard.Settings) *projection.Result {
	t.Helper()
	res, err := projection.Project(agg, time.March, 2026, s)
	require.NoError(t, err)
	return res
}

func TestProject_SmallTier50FitsAfterShift(t *testing.T) {
	req := projection.Aggregates{Tier50: 120}
	res := project(t, req, testSettings())

	assert.Empty(t, res.Warnings)
	assert.Equal(t, req, res.Applied)
	assert.Equal(t, projection.Aggregates{}, res.Shortfall)

	// Monday 2 March, right after the 17:00 exit
	mon := res.Overtime.Line(2)
	assert.Equal(t, "17:00", mon.Entry1)
	assert.Equal(t, "19:00", mon.Exit1)
	assert.Empty(t, mon.Entry2)
}

func TestProject_BaselineNormalCard(t *testing.T) {
	res := project(t, projection.Aggregates{}, testSettings())

	assert.Empty(t, res.Warnings)
	assert.Equal(t, projection.Aggregates{}, res.Applied)

	mon := res.Normal.Line(2)
	assert.Equal(t, [3][2]string{{"08:00", "12:00"}, {"13:00", "17:00"}, {"", ""}}, mon.Pairs())

	// Saturday without compensation works the full schedule, Sunday is empty
	assert.Equal(t, "17:00", res.Normal.Line(7).Exit2)
	assert.False(t, res.Normal.Line(1).HasPunches())

	for _, d := range res.Overtime.Days {
		assert.False(t, d.HasPunches(), "line %d", d.Line)
	}
}

func TestProject_SaturdayCompensationBaseline(t *testing.T) {
	s := testSettings()
	s.SaturdayCompensation = true
	s.CompensationWeekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday}

	res := project(t, projection.Aggregates{}, s)

	assert.Empty(t, res.Warnings)
	assert.Equal(t, "18:00", res.Normal.Line(2).Exit2) // Monday 9h
	assert.Equal(t, "17:00", res.Normal.Line(6).Exit2) // Friday 8h
	assert.False(t, res.Normal.Line(7).HasPunches())  // Saturday
	assert.Zero(t, res.Classification.Totals.Lateness)
	assert.Zero(t, res.Classification.Totals.Banked)
}

func TestProject_MixedTiersRoundTrip(t *testing.T) {
	req := projection.Aggregates{Tier50: 300, Tier75: 60, Tier100: 200, Tier125: 90, Lateness: 45}
	res := project(t, req, testSettings())

	assert.Empty(t, res.Warnings)
	assert.Equal(t, req, res.Applied)

	// Sunday 1 March: 125 at night, the 100 minutes before 18:00
	sun := res.Overtime.Line(1)
	assert.Equal(t, [3][2]string{{"14:40", "18:00"}, {"22:00", "23:30"}, {"", ""}}, sun.Pairs())

	// Monday: 75 night minutes then 50 day minutes in one run
	mon := res.Overtime.Line(2)
	assert.Equal(t, "17:00", mon.Entry1)
	assert.Equal(t, "23:00", mon.Exit1)

	// Lateness trimmed off Monday's afternoon exit
	assert.Equal(t, "16:15", res.Normal.Line(2).Exit2)
}

func TestProject_Tier100AfterWeeklyCap(t *testing.T) {
	req := projection.Aggregates{Tier50: 600, Tier100: 120}
	res := project(t, req, testSettings())

	assert.Empty(t, res.Warnings)
	assert.Equal(t, req, res.Applied)

	// Monday takes the daytime part of both windows
	mon := res.Overtime.Line(2)
	assert.Equal(t, [3][2]string{{"06:00", "08:00"}, {"17:00", "22:00"}, {"", ""}}, mon.Pairs())

	// Tuesday reaches the cap and carries the 100 % minutes
	tue := res.Overtime.Line(3)
	assert.Equal(t, [3][2]string{{"06:00", "08:00"}, {"17:00", "20:00"}, {"", ""}}, tue.Pairs())

	// Sunday 1 March is untouched: weekday tiers never go there
	assert.False(t, res.Overtime.Line(1).HasPunches())
}

func TestProject_ShortfallWarnsWithExactMinutes(t *testing.T) {
	s := testSettings()
	s.WeeklyCapHours = 0 // no weekday 100 % possible

	req := projection.Aggregates{Tier100: 5000}
	res := project(t, req, s)

	// five Sundays, 600 daytime minutes each
	assert.Equal(t, 3000, res.Applied.Tier100)
	assert.Equal(t, 2000, res.Shortfall.Tier100)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "tier 100%")
	assert.Contains(t, res.Warnings[0], "shortfall 2000 min")
}

func TestProject_LatenessBeyondBusinessDays(t *testing.T) {
	// 22 business days, at most one hour each
	res := project(t, projection.Aggregates{Lateness: 1400}, testSettings())

	assert.Equal(t, 1320, res.Applied.Lateness)
	assert.Equal(t, 80, res.Shortfall.Lateness)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "80 of 1400")
}

func TestProject_LatenessSkipsHolidays(t *testing.T) {
	// Monday 2 March declared a municipal holiday
	cal := calendar.NewNational(calendar.Holiday{Date: calendar.Day(2026, time.March, 2), Name: "Municipal"})
	res, err := projection.NewAllocator(cal).Project(projection.Input{
		Aggregates: projection.Aggregates{Lateness: 60},
		Month:      time.March,
		Year:       2026,
		Settings:   testSettings(),
	})
	require.NoError(t, err)

	assert.Equal(t, "17:00", res.Normal.Line(2).Exit2)
	assert.Equal(t, "16:00", res.Normal.Line(3).Exit2)
	assert.Equal(t, 60, res.Applied.Lateness)
}

func TestProject_AppliedNeverExceedsRequested(t *testing.T) {
	grid := []projection.Aggregates{
		{Tier50: 1},
		{Tier75: 500},
		{Tier50: 4000, Tier75: 900},
		{Tier100: 700, Tier125: 1500},
		{Tier50: 2400, Tier100: 400, Tier125: 100},
		{Tier50: 50, Tier75: 50, Tier100: 50, Tier125: 50, Lateness: 50},
		{Tier125: 2000, Lateness: 3000},
	}
	for _, s := range []*timecard.Settings{testSettings(), withCap(testSettings(), 2), withCap(testSettings(), 0)} {
		for _, req := range grid {
			res := project(t, req, s)
			sum := projection.Aggregates{
				Tier50:   res.Applied.Tier50 + res.Shortfall.Tier50,
				Tier75:   res.Applied.Tier75 + res.Shortfall.Tier75,
				Tier100:  res.Applied.Tier100 + res.Shortfall.Tier100,
				Tier125:  res.Applied.Tier125 + res.Shortfall.Tier125,
				Lateness: res.Applied.Lateness + res.Shortfall.Lateness,
			}
			assert.Equal(t, req, sum, "request %+v cap %v", req, s.WeeklyCapHours)
			assert.Zero(t, res.Classification.Totals.Banked)
			for _, w := range res.Warnings {
				assert.NotContains(t, w, "excess", "request %+v", req)
			}
		}
	}
}

func withCap(s *timecard.Settings, hours float64) *timecard.Settings {
	s.WeeklyCapHours = hours
	return s
}

func TestProject_Validation(t *testing.T) {
	_, err := projection.Project(projection.Aggregates{}, time.March, 2026, nil)
	assert.ErrorIs(t, err, timecard.ErrSettingsRequired)

	_, err = projection.Project(projection.Aggregates{Tier50: -1}, time.March, 2026, testSettings())
	assert.ErrorIs(t, err, projection.ErrNegativeAggregate)

	_, err = projection.Project(projection.Aggregates{}, 13, 2026, testSettings())
	assert.ErrorIs(t, err, timecard.ErrInvalidCompetence)
}
