package projection

import (
	"sort"
	"time"

	"github.com/warp/timecard-engine/calendar"
	"github.com/warp/timecard-engine/timecard"
)

const (
	preShiftMinutes  = 120
	postShiftMinutes = 360

	sundayDayStart   = 8 * 60
	sundayDayEnd     = 18 * 60
	sundayNightStart = 22 * 60
	sundayNightSpan  = 240

	maxLatenessPerDay = 60
)

// window is a candidate interval for overtime minutes. Bounds are absolute
// minutes from the day's midnight; end is exclusive and may pass 24:00.
type window struct {
	start, end int
}

func (w window) len() int { return w.end - w.start }

// schedule is the standard normal-card day. A day whose expected minutes
// fit before lunch has a single segment (split == false).
type schedule struct {
	start, lunchStart, lunchEnd, end int
	split                            bool
}

// dayPlan carries one dated line through the allocation.
type dayPlan struct {
	line   int
	date   time.Time
	sunday bool
	week   string

	hasSchedule bool
	sched       schedule
	windows     []window // chronological, non-overlapping

	// Allocation in classifier view: count minutes ending at anchor.
	anchor int
	count  int
	tiers  timecard.Buckets
}

// buildPlans writes the baseline schedule onto the normal card and returns
// one plan per dated line, sorted by date.
func buildPlans(normal *timecard.Card, s *timecard.Settings) []*dayPlan {
	var plans []*dayPlan
	for i := range normal.Days {
		d := &normal.Days[i]
		if !d.HasDate() {
			continue
		}
		p := &dayPlan{
			line:   d.Line,
			date:   d.Date,
			sunday: d.Date.Weekday() == time.Sunday,
			week:   timecard.WeekKey(d.Date),
		}

		if p.sunday {
			nightStart := max(sundayNightStart, s.NightStartMinutes())
			p.windows = []window{
				{sundayDayStart, sundayDayEnd},
				{nightStart, nightStart + sundayNightSpan},
			}
			plans = append(plans, p)
			continue
		}

		expected := timecard.ExpectedMinutes(timecard.JourneyRuleFor(*d, s))
		if expected > 0 {
			p.hasSchedule = true
			p.sched = scheduleFor(expected, s)
			writeSchedule(d, p.sched)
			p.windows = shiftWindows(p.sched)
		}
		plans = append(plans, p)
	}

	sort.SliceStable(plans, func(i, j int) bool { return plans[i].date.Before(plans[j].date) })
	return plans
}

// scheduleFor lays expected minutes over the standard schedule: morning
// from journey start to lunch, afternoon from lunch end until the minutes
// are complete.
func scheduleFor(expected int, s *timecard.Settings) schedule {
	start := clockOr(s.JourneyStart, 8*60)
	lunchStart := clockOr(s.LunchStart, 12*60)
	lunchEnd := clockOr(s.LunchEnd, 13*60)
	if lunchStart <= start || lunchEnd < lunchStart {
		lunchStart, lunchEnd = start+240, start+300
	}

	morning := lunchStart - start
	if expected <= morning {
		return schedule{start: start, end: start + expected}
	}
	return schedule{
		start:      start,
		lunchStart: lunchStart,
		lunchEnd:   lunchEnd,
		end:        lunchEnd + expected - morning,
		split:      true,
	}
}

func clockOr(value string, fallback int) int {
	if m, ok := timecard.ParseClock(value); ok {
		return m
	}
	return fallback
}

func writeSchedule(d *timecard.CardDay, sc schedule) {
	if !sc.split {
		d.SetPair(0, timecard.FormatClock(sc.start), timecard.FormatClock(sc.end))
		return
	}
	d.SetPair(0, timecard.FormatClock(sc.start), timecard.FormatClock(sc.lunchStart))
	d.SetPair(1, timecard.FormatClock(sc.lunchEnd), timecard.FormatClock(sc.end))
}

// shiftWindows returns the pre-shift and post-shift windows around a
// scheduled day. The pre-shift window never starts before midnight.
func shiftWindows(sc schedule) []window {
	var out []window
	if pre := (window{max(0, sc.start-preShiftMinutes), sc.start}); pre.len() > 0 {
		out = append(out, pre)
	}
	return append(out, window{sc.end, sc.end + postShiftMinutes})
}

// isBusinessDay reports Monday to Friday days that are not holidays.
func isBusinessDay(date time.Time, cal calendar.HolidayCalendar) bool {
	wd := date.Weekday()
	return wd != time.Saturday && wd != time.Sunday && !cal.IsHoliday(date)
}

// distributeLateness trims up to an hour off the afternoon exit of business
// days in date order and returns the minutes that did not fit.
func distributeLateness(normal *timecard.Card, plans []*dayPlan, cal calendar.HolidayCalendar, lateness int) int {
	remaining := lateness
	for _, p := range plans {
		if remaining == 0 {
			break
		}
		if !p.hasSchedule || !p.sched.split || !isBusinessDay(p.date, cal) {
			continue
		}
		trim := min(maxLatenessPerDay, remaining)
		if afternoon := p.sched.end - p.sched.lunchEnd; trim >= afternoon {
			trim = afternoon - 1
		}
		if trim <= 0 {
			continue
		}
		normal.Line(p.line).Exit2 = timecard.FormatClock(p.sched.end - trim)
		remaining -= trim
	}
	return remaining
}
