package timecard

import "time"

// =============================================================================
// DAY JOURNEY RESOLVER
// =============================================================================

// JourneyRule carries everything needed to resolve the expected minutes of
// one day.
type JourneyRule struct {
	DailyHours           float64
	OvertimeCard         bool
	Weekday              time.Weekday
	SaturdayCompensation bool
	CompensationWeekdays []time.Weekday
}

// ExpectedMinutes returns the non-overtime work minutes expected for the day.
//
// Overtime-card days always expect 0. With Saturday compensation enabled the
// compensation weekdays expect one extra hour and Saturday expects nothing.
func ExpectedMinutes(r JourneyRule) int {
	if r.OvertimeCard {
		return 0
	}

	base := roundMinutes(r.DailyHours)
	if !r.SaturdayCompensation {
		return base
	}

	if r.Weekday == time.Saturday {
		return 0
	}
	for _, wd := range r.CompensationWeekdays {
		if wd == r.Weekday {
			return base + 60
		}
	}
	return base
}

// JourneyRuleFor builds the rule for a card day under the given settings.
func JourneyRuleFor(day CardDay, s *Settings) JourneyRule {
	return JourneyRule{
		DailyHours:           s.DailyJourneyHours,
		OvertimeCard:         day.Card == CardOvertime,
		Weekday:              day.Date.Weekday(),
		SaturdayCompensation: s.SaturdayCompensation,
		CompensationWeekdays: s.CompensationWeekdays,
	}
}
