package timecard

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timecard-engine/calendar"
)

// =============================================================================
// CUSTOM WEEKS
// =============================================================================
//
// Week 1 runs from the 1st of the month through the first Sunday. Every
// following week is a Monday-Sunday block; the last one is cut at month end.
// Keys are computed from the calendar day only, so a competence window that
// spans two months produces weeks from both months.

// firstSunday returns the day-of-month of the first Sunday.
func firstSunday(year int, month time.Month) int {
	wd := calendar.StartOfMonth(year, month).Weekday()
	return 1 + (7-int(wd))%7
}

// WeekNumber returns the custom week number of the date within its month.
func WeekNumber(date time.Time) int {
	fs := firstSunday(date.Year(), date.Month())
	if date.Day() <= fs {
		return 1
	}
	return 2 + (date.Day()-fs-1)/7
}

// WeekKey returns the YYYY-MM-W{n} key of the date.
func WeekKey(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-W%d", date.Year(), int(date.Month()), WeekNumber(date))
}

// WeekBounds returns the first and last calendar day of the date's custom week.
func WeekBounds(date time.Time) (time.Time, time.Time) {
	y, m := date.Year(), date.Month()
	fs := firstSunday(y, m)
	last := calendar.DaysIn(y, m)

	n := WeekNumber(date)
	if n == 1 {
		return calendar.Day(y, m, 1), calendar.Day(y, m, fs)
	}
	start := fs + 1 + (n-2)*7
	end := start + 6
	if end > last {
		end = last
	}
	return calendar.Day(y, m, start), calendar.Day(y, m, end)
}

// =============================================================================
// RATES
// =============================================================================

// Rates are the hourly values of each tier.
type Rates struct {
	Hourly  decimal.Decimal
	Rate50  decimal.Decimal
	Rate75  decimal.Decimal
	Rate100 decimal.Decimal
	Rate125 decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// ComputeRates derives the tier rates. A monthly-hours divisor of 0 (or
// less) is treated as 1 and a negative salary as 0.
func ComputeRates(s *Settings) Rates {
	hours := s.MonthlyHours
	if !hours.IsPositive() {
		hours = decimal.NewFromInt(1)
	}
	salary := s.BaseSalary
	if salary.IsNegative() {
		salary = decimal.Zero
	}
	hourly := salary.Div(hours)
	factor := func(pct decimal.Decimal) decimal.Decimal {
		return decimal.NewFromInt(1).Add(pct.Div(hundred))
	}
	return Rates{
		Hourly:  hourly,
		Rate50:  hourly.Mul(factor(s.Pct50)),
		Rate75:  hourly.Mul(factor(s.Pct50.Add(s.PctNight))),
		Rate100: hourly.Mul(factor(s.Pct100)),
		Rate125: hourly.Mul(factor(s.Pct100.Add(s.PctNight))),
	}
}

// For returns the hourly rate of tier t.
func (r Rates) For(t Tier) decimal.Decimal {
	switch t {
	case Tier50:
		return r.Rate50
	case Tier75:
		return r.Rate75
	case Tier100:
		return r.Rate100
	case Tier125:
		return r.Rate125
	}
	return decimal.Zero
}

// MinutesToHours converts a minute count to decimal hours.
func MinutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60))
}

// OvertimeValue is the unrounded money value of the overtime tiers.
func (r Rates) OvertimeValue(b Buckets) decimal.Decimal {
	total := decimal.Zero
	for _, t := range Tiers {
		total = total.Add(MinutesToHours(b.Get(t)).Mul(r.For(t)))
	}
	return total
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// WeeklySummary is the classification of one custom week.
type WeeklySummary struct {
	Key     string
	Start   time.Time
	End     time.Time
	Buckets Buckets
	Value   decimal.Decimal // rounded to cents
}

// Classification is the output of Classify.
type Classification struct {
	Weeks      []WeeklySummary
	Days       []DayResult
	Totals     Buckets
	TotalValue decimal.Decimal // computed once from the minute totals, rounded to cents
	Rates      Rates
}

// Classify groups the days into custom weeks and classifies them in date
// order, threading a fresh accumulator through each week. Days without a
// calendar date are skipped. The input slice is not modified.
func Classify(days []CardDay, s *Settings) (*Classification, error) {
	if s == nil {
		return nil, ErrSettingsRequired
	}

	weeks := make(map[string][]CardDay)
	for _, d := range days {
		if !d.HasDate() {
			continue
		}
		if !d.Card.Valid() {
			return nil, &InvalidCardTypeError{Line: d.Line, Card: d.Card}
		}
		k := WeekKey(d.Date)
		weeks[k] = append(weeks[k], d)
	}

	keys := make([]string, 0, len(weeks))
	for k := range weeks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rates := ComputeRates(s)
	result := &Classification{Rates: rates, Weeks: make([]WeeklySummary, 0, len(keys))}

	for _, k := range keys {
		group := weeks[k]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })

		start, end := WeekBounds(group[0].Date)
		week := WeeklySummary{Key: k, Start: start, End: end}

		accum := 0
		for _, d := range group {
			var dr DayResult
			dr, accum = ClassifyDay(d, s, accum)
			week.Buckets = week.Buckets.Add(dr.Buckets)
			result.Days = append(result.Days, dr)
		}
		week.Value = rates.OvertimeValue(week.Buckets).Round(2)

		result.Weeks = append(result.Weeks, week)
		result.Totals = result.Totals.Add(week.Buckets)
	}

	result.TotalValue = rates.OvertimeValue(result.Totals).Round(2)
	return result, nil
}
