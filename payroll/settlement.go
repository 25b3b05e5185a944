/*
Package payroll turns classified minutes into a monthly settlement.

PURPOSE:
  Settle is a pure function: classified totals + competence + settings in,
  Settlement out. Every amount is kept at full precision until the report
  items are built; the cents lost by rounding each item are reported as
  Residual instead of being absorbed.

STEPS:
  1. Business and rest days of the competence window
  2. Tier values and total overtime value
  3. DSR on overtime and on lateness
  4. Gross = base + overtime + overtime DSR
  5. INSS (progressive, capped)
  6. IRRF = traditional table - reducer
  7. Advance: explicit, or base x percent with 27.5 % (or fixed) IR
  8. Closing IR = IR - IR withheld on the advance
  9. Deductions and net
 10. Total received in the month

SEE ALSO:
  - tables.go: INSS and IRRF tables
  - timecard.ComputeRates: tier rates
*/
package payroll

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timecard-engine/calendar"
	"github.com/warp/timecard-engine/timecard"
)

// ErrNegativeTotals is returned when a classified minute total is negative.
var ErrNegativeTotals = errors.New("classified totals must not be negative")

// AdvanceIRRate is withheld on a derived advance without a fixed override.
var AdvanceIRRate = dec("0.275")

// =============================================================================
// TYPES
// =============================================================================

// Advance is an advance payment already made in the month.
type Advance struct {
	Gross      decimal.Decimal
	WithheldIR decimal.Decimal
}

// Params is the input of Settle.
type Params struct {
	Settings *timecard.Settings
	Month    time.Month
	Year     int

	// Totals are the classified minutes; tiers and lateness are used.
	Totals timecard.Buckets

	// Advance overrides the advance derived from settings when set.
	Advance *Advance

	// Calendar defaults to the national calendar.
	Calendar calendar.HolidayCalendar
}

// ItemKind separates earnings from deductions on the report.
type ItemKind string

const (
	Earning   ItemKind = "earning"
	Deduction ItemKind = "deduction"
)

// Item is one report line, rounded to cents.
type Item struct {
	Code   string
	Label  string
	Kind   ItemKind
	Hours  decimal.Decimal
	Amount decimal.Decimal
}

// Settlement is the full monthly closing. Amounts are unrounded unless the
// field name says otherwise.
type Settlement struct {
	Month  time.Month
	Year   int
	Window calendar.Period
	Days   calendar.DayCounts
	Rates  timecard.Rates
	Totals timecard.Buckets

	BaseSalary decimal.Decimal
	TierValues [4]decimal.Decimal // indexed by timecard.Tier

	OvertimeValue decimal.Decimal
	OvertimeDSR   decimal.Decimal
	LatenessValue decimal.Decimal
	LatenessDSR   decimal.Decimal
	Gross         decimal.Decimal

	INSS          decimal.Decimal
	IRBase        decimal.Decimal
	IRTraditional decimal.Decimal
	IRReducer     decimal.Decimal
	IRTotal       decimal.Decimal

	AdvanceGross decimal.Decimal
	AdvanceIR    decimal.Decimal
	AdvanceNet   decimal.Decimal
	ClosingIR    decimal.Decimal

	Deductions decimal.Decimal
	Net        decimal.Decimal

	Items         []Item
	NetRounded    decimal.Decimal
	Residual      decimal.Decimal // NetRounded - (sum of earning items - sum of deduction items)
	TotalReceived decimal.Decimal
}

// =============================================================================
// SETTLE
// =============================================================================

// Settle computes the monthly settlement.
func Settle(p Params) (*Settlement, error) {
	s := p.Settings
	if s == nil {
		return nil, timecard.ErrSettingsRequired
	}
	if p.Month < time.January || p.Month > time.December || p.Year < 1900 {
		return nil, fmt.Errorf("%w: %d/%d", timecard.ErrInvalidCompetence, p.Month, p.Year)
	}
	t := p.Totals
	if t.Tier50 < 0 || t.Tier75 < 0 || t.Tier100 < 0 || t.Tier125 < 0 || t.Lateness < 0 {
		return nil, ErrNegativeTotals
	}
	cal := p.Calendar
	if cal == nil {
		cal = calendar.NewNational()
	}

	out := &Settlement{
		Month:      p.Month,
		Year:       p.Year,
		Window:     calendar.CompetenceWindow(p.Month, p.Year, s.CycleStartDay),
		Days:       calendar.CountBusinessAndRestDays(cal, p.Month, p.Year, s.CycleStartDay),
		Rates:      timecard.ComputeRates(s),
		Totals:     t,
		BaseSalary: floorZero(s.BaseSalary),
	}

	// 2. Tier values
	for _, tier := range timecard.Tiers {
		v := timecard.MinutesToHours(t.Get(tier)).Mul(out.Rates.For(tier))
		out.TierValues[tier] = v
		out.OvertimeValue = out.OvertimeValue.Add(v)
	}

	// 3. DSR
	out.OvertimeDSR = dsr(out.OvertimeValue, out.Days)
	out.LatenessValue = timecard.MinutesToHours(t.Lateness).Mul(out.Rates.Hourly)
	out.LatenessDSR = dsr(out.LatenessValue, out.Days)

	// 4-6. Gross and taxes
	out.Gross = out.BaseSalary.Add(out.OvertimeValue).Add(out.OvertimeDSR)
	out.INSS = INSS(out.Gross)
	out.IRBase, out.IRTraditional, out.IRReducer, out.IRTotal = IR(out.Gross, out.INSS, s.Dependents)

	// 7-8. Advance
	out.AdvanceGross, out.AdvanceIR = advance(p.Advance, s, out.BaseSalary)
	out.AdvanceNet = out.AdvanceGross.Sub(out.AdvanceIR)
	out.ClosingIR = floorZero(out.IRTotal.Sub(out.AdvanceIR))

	// 9. Deductions and net
	out.Deductions = out.LatenessValue.
		Add(out.LatenessDSR).
		Add(out.INSS).
		Add(out.ClosingIR).
		Add(out.AdvanceGross)
	out.Net = out.Gross.Sub(out.Deductions)
	out.NetRounded = out.Net.Round(2)

	out.Items = out.items()
	earned, deducted := decimal.Zero, decimal.Zero
	for _, it := range out.Items {
		if it.Kind == Earning {
			earned = earned.Add(it.Amount)
		} else {
			deducted = deducted.Add(it.Amount)
		}
	}
	out.Residual = out.NetRounded.Sub(earned.Sub(deducted))

	// 10. Total received
	out.TotalReceived = out.NetRounded.Add(out.AdvanceNet.Round(2))
	return out, nil
}

// dsr is value / businessDays x restDays, 0 without business days.
func dsr(value decimal.Decimal, days calendar.DayCounts) decimal.Decimal {
	if days.BusinessDays <= 0 {
		return decimal.Zero
	}
	return value.
		Div(decimal.NewFromInt(int64(days.BusinessDays))).
		Mul(decimal.NewFromInt(int64(days.RestDays)))
}

func advance(explicit *Advance, s *timecard.Settings, base decimal.Decimal) (gross, ir decimal.Decimal) {
	if explicit != nil {
		return floorZero(explicit.Gross), floorZero(explicit.WithheldIR)
	}
	gross = floorZero(base.Mul(s.AdvancePercent).Div(decimal.NewFromInt(100)))
	if s.FixedAdvanceIR != nil {
		return gross, floorZero(*s.FixedAdvanceIR)
	}
	return gross, gross.Mul(AdvanceIRRate)
}

// items builds the report lines. Zero-valued optional lines are left out.
func (st *Settlement) items() []Item {
	hours := timecard.MinutesToHours
	items := []Item{{Code: "001", Label: "Salário base", Kind: Earning, Amount: st.BaseSalary.Round(2)}}

	labels := [4]string{"Horas extras 50%", "Horas extras 75%", "Horas extras 100%", "Horas extras 125%"}
	codes := [4]string{"050", "075", "100", "125"}
	for _, tier := range timecard.Tiers {
		if st.Totals.Get(tier) == 0 {
			continue
		}
		items = append(items, Item{
			Code:   codes[tier],
			Label:  labels[tier],
			Kind:   Earning,
			Hours:  hours(st.Totals.Get(tier)).Round(2),
			Amount: st.TierValues[tier].Round(2),
		})
	}

	optional := []Item{
		{Code: "200", Label: "DSR sobre horas extras", Kind: Earning, Amount: st.OvertimeDSR.Round(2)},
		{Code: "300", Label: "Faltas e atrasos", Kind: Deduction, Hours: hours(st.Totals.Lateness).Round(2), Amount: st.LatenessValue.Round(2)},
		{Code: "301", Label: "DSR sobre faltas e atrasos", Kind: Deduction, Amount: st.LatenessDSR.Round(2)},
	}
	for _, it := range optional {
		if !it.Amount.IsZero() {
			items = append(items, it)
		}
	}

	items = append(items,
		Item{Code: "400", Label: "INSS", Kind: Deduction, Amount: st.INSS.Round(2)},
		Item{Code: "401", Label: "IRRF", Kind: Deduction, Amount: st.ClosingIR.Round(2)},
	)
	if !st.AdvanceGross.IsZero() {
		items = append(items, Item{Code: "500", Label: "Adiantamento salarial", Kind: Deduction, Amount: st.AdvanceGross.Round(2)})
	}
	return items
}

// Earnings returns the earning items.
func (st *Settlement) Earnings() []Item { return st.filter(Earning) }

// DeductionItems returns the deduction items.
func (st *Settlement) DeductionItems() []Item { return st.filter(Deduction) }

func (st *Settlement) filter(kind ItemKind) []Item {
	var out []Item
	for _, it := range st.Items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	return out
}
