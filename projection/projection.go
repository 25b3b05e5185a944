/*
Package projection rebuilds time cards from payslip totals.

PURPOSE:
  When the card images of a competence are gone but the payslip exists, the
  only data left are five minute totals: overtime at 50/75/100/125 % and
  lateness. Project synthesizes a normal card and an overtime card whose
  re-classification by timecard.Classify reproduces those totals as closely
  as possible.

ALGORITHM:
  1. Baseline normal card from the standard schedule (journey start, lunch,
     derived exit), honoring Saturday compensation.
  2. Lateness: trim up to 60 minutes off the afternoon exit of business days,
     in date order. Leftover minutes become a warning.
  3. Candidate windows per overtime-card day:
       Sunday      08:00-18:00 and max(22:00, cutoff) + 4h
       other days  start-2h .. start and end .. end+6h
       Saturday with compensation: none
  4. Allocation, in this order:
       Sunday 125/100 -> weekday 75/50 -> weekday 125/100 after the cap
     Each minute is tested with timecard.TierFor at the position and weekly
     accumulator the classifier will see, and is taken only when it lands in
     a tier that is still needed.
  5. Allocated minutes become at most three entry/exit pairs per day.
  6. The cards are re-classified; any tier that differs from the request is
     reported as a warning with the exact shortfall.

CLASSIFIER VIEW:
  The classifier only looks at a day's last clock-out (the anchor) and its
  total minutes: minute k is at anchor-1-k. A day is therefore grown
  backward from a fixed anchor, and minutes are only appended to the last
  allocated day of a week, so a new minute never changes the tier of a
  minute placed before it.

USAGE:
  res, err := projection.Project(projection.Aggregates{Tier50: 120}, time.March, 2026, settings)
  for _, w := range res.Warnings {
      log.Println(w)
  }

SEE ALSO:
  - windows.go: schedules and candidate windows
  - allocate.go: the three allocation phases
  - segments.go: segment merging and consolidation
*/
package projection

import (
	"errors"
	"fmt"
	"time"

	"github.com/warp/timecard-engine/calendar"
	"github.com/warp/timecard-engine/timecard"
)

// =============================================================================
// TYPES
// =============================================================================

// Aggregates are the minute totals read from a payslip.
type Aggregates struct {
	Tier50   int
	Tier75   int
	Tier100  int
	Tier125  int
	Lateness int
}

// Tier returns the minutes of tier t.
func (a Aggregates) Tier(t timecard.Tier) int {
	return timecard.Buckets{Tier50: a.Tier50, Tier75: a.Tier75, Tier100: a.Tier100, Tier125: a.Tier125}.Get(t)
}

// Overtime returns the sum of the four tiers.
func (a Aggregates) Overtime() int { return a.Tier50 + a.Tier75 + a.Tier100 + a.Tier125 }

// FromBuckets extracts the payslip-level totals from classified buckets.
func FromBuckets(b timecard.Buckets) Aggregates {
	return Aggregates{Tier50: b.Tier50, Tier75: b.Tier75, Tier100: b.Tier100, Tier125: b.Tier125, Lateness: b.Lateness}
}

// Input is one projection request.
type Input struct {
	Aggregates Aggregates
	Month      time.Month
	Year       int
	Settings   *timecard.Settings
}

// Result is the synthesized pair of cards.
type Result struct {
	Normal   timecard.Card
	Overtime timecard.Card

	Requested Aggregates
	Applied   Aggregates // what re-classification of the cards yields
	Shortfall Aggregates // Requested - Applied, per field, floored at 0

	Classification *timecard.Classification
	Warnings       []string
}

// ErrNegativeAggregate is returned when a payslip total is negative.
var ErrNegativeAggregate = errors.New("payslip totals must not be negative")

// =============================================================================
// ALLOCATOR
// =============================================================================

// Allocator projects payslip totals onto cards.
type Allocator struct {
	// Calendar decides which days are business days for lateness trimming.
	// nil means the national calendar.
	Calendar calendar.HolidayCalendar
}

// NewAllocator creates an allocator with the given holiday calendar.
func NewAllocator(cal calendar.HolidayCalendar) *Allocator {
	return &Allocator{Calendar: cal}
}

// Project runs the allocator with the national holiday calendar.
func Project(agg Aggregates, month time.Month, year int, s *timecard.Settings) (*Result, error) {
	return NewAllocator(nil).Project(Input{Aggregates: agg, Month: month, Year: year, Settings: s})
}

// Project synthesizes the cards for in.
func (a *Allocator) Project(in Input) (*Result, error) {
	s := in.Settings
	if s == nil {
		return nil, timecard.ErrSettingsRequired
	}
	if in.Month < time.January || in.Month > time.December || in.Year < 1900 {
		return nil, fmt.Errorf("%w: %d/%d", timecard.ErrInvalidCompetence, in.Month, in.Year)
	}
	req := in.Aggregates
	if req.Tier50 < 0 || req.Tier75 < 0 || req.Tier100 < 0 || req.Tier125 < 0 || req.Lateness < 0 {
		return nil, ErrNegativeAggregate
	}

	cal := a.Calendar
	if cal == nil {
		cal = calendar.NewNational()
	}

	normal := timecard.NewCard(timecard.CardNormal, in.Month, in.Year, s.CycleStartDay)
	overtime := timecard.NewCard(timecard.CardOvertime, in.Month, in.Year, s.CycleStartDay)
	var warnings []string

	// 1-2. Baseline normal card and lateness
	plans := buildPlans(&normal, s)
	if rest := distributeLateness(&normal, plans, cal, req.Lateness); rest > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"lateness: %d of %d min could not be distributed (no business day left to trim)", rest, req.Lateness))
	}

	// 3-4. Overtime allocation
	st := newAllocState(plans, s, req)
	st.allocateSundays()
	st.allocateWeekdays()
	st.allocateAfterCap()

	// 5. Punch segments
	for _, p := range plans {
		if p.count == 0 {
			continue
		}
		segs, consolidated := consolidate(p.segments())
		if consolidated {
			warnings = append(warnings, fmt.Sprintf(
				"line %d (%s): allocation split into more than three segments, middle runs consolidated",
				p.line, p.date.Format("2006-01-02")))
		}
		writeSegments(overtime.Line(p.line), segs)
	}

	// 6. Verification by re-classification
	days := append(normal.Entries(), overtime.Entries()...)
	classification, err := timecard.Classify(days, s)
	if err != nil {
		return nil, fmt.Errorf("re-classify projected cards: %w", err)
	}
	applied := FromBuckets(classification.Totals)

	res := &Result{
		Normal:         normal,
		Overtime:       overtime,
		Requested:      req,
		Applied:        applied,
		Classification: classification,
	}
	res.Shortfall, warnings = compareTotals(req, applied, warnings)
	if classification.Totals.Banked > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"baseline schedule produces %d min of banked hours; check journey and lunch settings", classification.Totals.Banked))
	}
	res.Warnings = warnings
	return res, nil
}

func compareTotals(req, applied Aggregates, warnings []string) (Aggregates, []string) {
	var short Aggregates
	fields := []struct {
		name      string
		want, got int
		dst       *int
	}{
		{"tier 50%", req.Tier50, applied.Tier50, &short.Tier50},
		{"tier 75%", req.Tier75, applied.Tier75, &short.Tier75},
		{"tier 100%", req.Tier100, applied.Tier100, &short.Tier100},
		{"tier 125%", req.Tier125, applied.Tier125, &short.Tier125},
		{"lateness", req.Lateness, applied.Lateness, &short.Lateness},
	}
	for _, f := range fields {
		switch {
		case f.got < f.want:
			*f.dst = f.want - f.got
			if f.name != "lateness" {
				warnings = append(warnings, fmt.Sprintf(
					"%s: requested %d min, allocated %d min, shortfall %d min", f.name, f.want, f.got, f.want-f.got))
			}
		case f.got > f.want:
			warnings = append(warnings, fmt.Sprintf(
				"%s: requested %d min, allocated %d min, excess %d min", f.name, f.want, f.got, f.got-f.want))
		}
	}
	return short, warnings
}
