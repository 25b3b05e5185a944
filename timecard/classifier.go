package timecard

import "time"

// =============================================================================
// DAY RESULT
// =============================================================================

// DayResult is the classification of a single card day.
type DayResult struct {
	Line     int
	Date     time.Time
	Card     CardType
	WeekKey  string
	Worked   int
	Expected int
	Overtime int
	Buckets  Buckets
}

// =============================================================================
// TIER RULE
// =============================================================================

// TierFor returns the tier of one overtime minute at minute-of-day position.
// Sunday minutes are 100/125 and never look at the accumulator. Weekday
// minutes are 50/75 while the weekly accumulator is below the cap (cap 0 =
// unlimited) and 100/125 afterwards.
func TierFor(minute int, sunday bool, weekAccum, weeklyCap, nightCutoff int) Tier {
	night := IsNight(minute, nightCutoff)
	if !sunday && (weeklyCap == 0 || weekAccum < weeklyCap) {
		if night {
			return Tier75
		}
		return Tier50
	}
	if night {
		return Tier125
	}
	return Tier100
}

// =============================================================================
// DAY PIPELINE
// =============================================================================

// dayContext is threaded through the pipeline steps. Steps receive and return
// it by value.
type dayContext struct {
	day      CardDay
	settings *Settings
	sunday   bool

	worked   int
	dayEnd   int // clock-out of the last complete pair
	expected int
	overtime int

	buckets   Buckets
	weekAccum int
}

type dayStep func(dayContext) dayContext

var dayPipeline = []dayStep{
	measureWorked,
	resolveExpected,
	computeOvertime,
	bankNormalExcess,
	classifyOvertimeMinutes,
	computeLateness,
}

// ClassifyDay runs the day pipeline for one card day and returns the result
// together with the updated weekly accumulator.
func ClassifyDay(day CardDay, s *Settings, weekAccum int) (DayResult, int) {
	ctx := dayContext{
		day:       day,
		settings:  s,
		sunday:    day.Date.Weekday() == time.Sunday,
		weekAccum: weekAccum,
	}
	for _, step := range dayPipeline {
		ctx = step(ctx)
	}

	return DayResult{
		Line:     day.Line,
		Date:     day.Date,
		Card:     day.Card,
		WeekKey:  WeekKey(day.Date),
		Worked:   ctx.worked,
		Expected: ctx.expected,
		Overtime: ctx.overtime,
		Buckets:  ctx.buckets,
	}, ctx.weekAccum
}

// WorkedMinutes sums the durations of the complete entry/exit pairs of a day
// and returns the clock-out of the last complete pair. Pairs with a missing
// or malformed side are skipped.
func WorkedMinutes(day CardDay) (worked, dayEnd int) {
	for _, p := range day.Pairs() {
		in, okIn := ParseClock(p[0])
		out, okOut := ParseClock(p[1])
		if !okIn || !okOut {
			continue
		}
		worked += Duration(in, out)
		dayEnd = out
	}
	return worked, dayEnd
}

func measureWorked(c dayContext) dayContext {
	c.worked, c.dayEnd = WorkedMinutes(c.day)
	return c
}

func resolveExpected(c dayContext) dayContext {
	c.expected = ExpectedMinutes(JourneyRuleFor(c.day, c.settings))
	return c
}

func computeOvertime(c dayContext) dayContext {
	switch {
	case c.worked == 0:
		c.overtime = 0
	case c.sunday:
		c.overtime = c.worked
	case c.worked > c.expected:
		c.overtime = c.worked - c.expected
	default:
		c.overtime = 0
	}
	return c
}

// bankNormalExcess sends the whole normal-card excess to banked hours,
// Sundays included.
func bankNormalExcess(c dayContext) dayContext {
	if c.day.Card == CardNormal && c.overtime > 0 {
		c.buckets.Banked += c.overtime
	}
	return c
}

// classifyOvertimeMinutes walks the overtime-card minutes backward from the
// last clock-out and assigns each to a tier.
func classifyOvertimeMinutes(c dayContext) dayContext {
	if c.day.Card != CardOvertime || c.overtime <= 0 {
		return c
	}

	cutoff := c.settings.NightStartMinutes()
	weeklyCap := c.settings.WeeklyCapMinutes()
	for i := 0; i < c.overtime; i++ {
		minute := c.dayEnd - 1 - i
		c.buckets.AddTier(TierFor(minute, c.sunday, c.weekAccum, weeklyCap, cutoff), 1)
		if !c.sunday {
			c.weekAccum++
		}
	}
	return c
}

func computeLateness(c dayContext) dayContext {
	if c.day.Card != CardNormal || c.sunday || c.day.ManualAnnotation {
		return c
	}
	switch {
	case c.worked > 0 && c.worked < c.expected:
		c.buckets.Lateness += c.expected - c.worked
	case c.worked == 0 && c.expected > 0:
		c.buckets.Lateness += c.expected
	}
	return c
}
