/*
Package timecard provides the time-card classification engine.

PURPOSE:
  Converts the raw entry/exit punches of a competence period into classified
  minute buckets: overtime tiers (50/75/100/125 %), banked hours and
  absence/lateness. The engine is pure: no I/O, no shared state. Each call
  works on its own copy of the input days.

KEY CONCEPTS IN THIS FILE (types.go):
  - CardType: normal or overtime card
  - CardDay: one line of a paper card (three entry/exit pairs)
  - Card: the fixed 31-line set of a card for one competence
  - Settings: the employee configuration (salary basis, journey, caps)
  - Buckets: classified minute totals

PIPELINE:
  days --> Classify (aggregator.go)
             |-- groups days into custom weeks (WeekKey)
             |-- ClassifyDay per day, threading the weekly accumulator
             '-- converts minutes to money with Rates

USAGE:
  card := timecard.NewCard(timecard.CardOvertime, time.March, 2026, 0)
  card.Days[0].Entry1, card.Days[0].Exit1 = "18:00", "20:00"

  result, err := timecard.Classify(card.Entries(), settings)
  fmt.Println(result.Totals.Tier50, result.TotalValue)

SEE ALSO:
  - clock.go: HH:MM arithmetic
  - journey.go: expected minutes per day
  - classifier.go: per-day classification pipeline
  - aggregator.go: weekly grouping and money conversion
*/
package timecard

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timecard-engine/calendar"
)

// =============================================================================
// CARD TYPES
// =============================================================================

type CardType string

const (
	CardNormal   CardType = "normal"
	CardOvertime CardType = "overtime"
)

func (c CardType) Valid() bool { return c == CardNormal || c == CardOvertime }

// LinesPerCard is the number of physical lines on every card.
const LinesPerCard = 31

// =============================================================================
// CARD DAY
// =============================================================================

// CardDay is one line of a card. Clock fields hold raw HH:MM strings as
// captured; malformed values are treated as absent.
type CardDay struct {
	Line int
	Date time.Time // zero when the line has no valid calendar date
	Card CardType

	Entry1, Exit1 string
	Entry2, Exit2 string
	Entry3, Exit3 string

	// ManualAnnotation marks an excused absence. It suppresses lateness but
	// not overtime or banked hours.
	ManualAnnotation bool
}

// HasDate reports whether the line maps to a real calendar date.
func (d CardDay) HasDate() bool { return !d.Date.IsZero() }

// Pairs returns the three entry/exit pairs in slot order.
func (d CardDay) Pairs() [3][2]string {
	return [3][2]string{
		{d.Entry1, d.Exit1},
		{d.Entry2, d.Exit2},
		{d.Entry3, d.Exit3},
	}
}

// SetPair writes the entry/exit of slot i (0-based).
func (d *CardDay) SetPair(i int, entry, exit string) {
	switch i {
	case 0:
		d.Entry1, d.Exit1 = entry, exit
	case 1:
		d.Entry2, d.Exit2 = entry, exit
	case 2:
		d.Entry3, d.Exit3 = entry, exit
	}
}

// ClearPunches removes every clock value of the line.
func (d *CardDay) ClearPunches() {
	for i := 0; i < 3; i++ {
		d.SetPair(i, "", "")
	}
}

// HasPunches reports whether any clock field is filled.
func (d CardDay) HasPunches() bool {
	for _, p := range d.Pairs() {
		if p[0] != "" || p[1] != "" {
			return true
		}
	}
	return false
}

// =============================================================================
// CARD - 31 lines, always fully populated
// =============================================================================

// Card is the full set of lines of one card type for one competence.
// Line n is stored at Days[n-1].
type Card struct {
	Type          CardType
	Month         time.Month
	Year          int
	CycleStartDay int
	Days          [LinesPerCard]CardDay
}

// NewCard creates a card with all 31 lines and their resolved dates.
func NewCard(cardType CardType, month time.Month, year, cycleStartDay int) Card {
	c := Card{Type: cardType, Month: month, Year: year, CycleStartDay: cycleStartDay}
	for i := range c.Days {
		line := i + 1
		c.Days[i] = CardDay{Line: line, Card: cardType}
		if date, ok := calendar.ResolveDate(line, month, year, cycleStartDay); ok {
			c.Days[i].Date = date
		}
	}
	return c
}

// Line returns a pointer to line n (1-31), or nil when out of range.
func (c *Card) Line(n int) *CardDay {
	if n < 1 || n > LinesPerCard {
		return nil
	}
	return &c.Days[n-1]
}

// Merge overlays the punches of the given lines onto the card. Lines are
// matched by line number; unknown lines are ignored. Dates and card type stay
// the ones resolved by the card so an update can never break the invariant.
// Lines without a valid date keep no punches.
func (c *Card) Merge(updates []CardDay) int {
	merged := 0
	for _, u := range updates {
		day := c.Line(u.Line)
		if day == nil {
			continue
		}
		date, card := day.Date, day.Card
		*day = u
		day.Line, day.Date, day.Card = u.Line, date, card
		if !day.HasDate() {
			day.ClearPunches()
		}
		merged++
	}
	return merged
}

// Entries returns a copy of the lines that carry a calendar date.
func (c Card) Entries() []CardDay {
	out := make([]CardDay, 0, LinesPerCard)
	for _, d := range c.Days {
		if d.HasDate() {
			out = append(out, d)
		}
	}
	return out
}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings is the per-employee configuration consumed by the engine.
type Settings struct {
	BaseSalary   decimal.Decimal
	MonthlyHours decimal.Decimal // hourly-rate divisor (e.g. 220)

	DailyJourneyHours float64
	WeeklyCapHours    float64 // weekday overtime paid at 50/75 per week, 0 = unlimited
	NightCutoff       string  // HH:MM, night runs from here until 05:00

	Pct50    decimal.Decimal
	Pct100   decimal.Decimal
	PctNight decimal.Decimal

	SaturdayCompensation bool
	CompensationWeekdays []time.Weekday

	CycleStartDay int

	Dependents     int
	AdvancePercent decimal.Decimal
	FixedAdvanceIR *decimal.Decimal

	// Standard schedule, used to synthesize cards from payslip totals.
	JourneyStart string
	LunchStart   string
	LunchEnd     string
}

// NightStartMinutes returns the night cutoff as minutes of day. Invalid
// values fall back to 22:00.
func (s *Settings) NightStartMinutes() int {
	if m, ok := ParseClock(s.NightCutoff); ok {
		return m
	}
	return DefaultNightCutoff
}

// WeeklyCapMinutes returns the weekly 50 % cap in minutes, 0 = unlimited.
func (s *Settings) WeeklyCapMinutes() int {
	if s.WeeklyCapHours <= 0 {
		return 0
	}
	return roundMinutes(s.WeeklyCapHours)
}

// IsCompensationDay reports whether the weekday receives the Saturday
// compensation hour.
func (s *Settings) IsCompensationDay(wd time.Weekday) bool {
	for _, c := range s.CompensationWeekdays {
		if c == wd {
			return true
		}
	}
	return false
}

// =============================================================================
// BUCKETS - Classified minutes
// =============================================================================

// Buckets holds classified minute counts. All values are non-negative.
type Buckets struct {
	Tier50   int
	Tier75   int
	Tier100  int
	Tier125  int
	Banked   int
	Lateness int
}

func (b Buckets) Add(o Buckets) Buckets {
	return Buckets{
		Tier50:   b.Tier50 + o.Tier50,
		Tier75:   b.Tier75 + o.Tier75,
		Tier100:  b.Tier100 + o.Tier100,
		Tier125:  b.Tier125 + o.Tier125,
		Banked:   b.Banked + o.Banked,
		Lateness: b.Lateness + o.Lateness,
	}
}

// Overtime returns the minutes paid as overtime (all four tiers).
func (b Buckets) Overtime() int { return b.Tier50 + b.Tier75 + b.Tier100 + b.Tier125 }

// Tier identifies one overtime rate bucket.
type Tier int

const (
	Tier50 Tier = iota
	Tier75
	Tier100
	Tier125
)

func (t Tier) String() string {
	switch t {
	case Tier50:
		return "50%"
	case Tier75:
		return "75%"
	case Tier100:
		return "100%"
	case Tier125:
		return "125%"
	default:
		return "unknown"
	}
}

// Tiers lists the overtime tiers in ascending rate order.
var Tiers = []Tier{Tier50, Tier75, Tier100, Tier125}

// Get returns the minutes in tier t.
func (b Buckets) Get(t Tier) int {
	switch t {
	case Tier50:
		return b.Tier50
	case Tier75:
		return b.Tier75
	case Tier100:
		return b.Tier100
	case Tier125:
		return b.Tier125
	}
	return 0
}

// AddTier adds n minutes to tier t.
func (b *Buckets) AddTier(t Tier, n int) {
	switch t {
	case Tier50:
		b.Tier50 += n
	case Tier75:
		b.Tier75 += n
	case Tier100:
		b.Tier100 += n
	case Tier125:
		b.Tier125 += n
	}
}
