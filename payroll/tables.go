package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// INSS - progressive social security
// =============================================================================

type inssBracket struct {
	upTo decimal.Decimal
	rate decimal.Decimal
}

var inssBrackets = []inssBracket{
	{dec("1621.00"), dec("0.075")},
	{dec("2902.84"), dec("0.09")},
	{dec("4354.27"), dec("0.12")},
	{dec("8475.55"), dec("0.14")},
}

// INSSCeiling is the contribution ceiling; gross above it pays the same as
// gross at it.
var INSSCeiling = dec("8475.55")

// INSS applies the four progressive brackets to min(gross, ceiling). Each
// bracket taxes only its marginal span. The result is not rounded.
func INSS(gross decimal.Decimal) decimal.Decimal {
	base := decimal.Min(floorZero(gross), INSSCeiling)

	tax, lower := decimal.Zero, decimal.Zero
	for _, b := range inssBrackets {
		if base.LessThanOrEqual(lower) {
			break
		}
		span := decimal.Min(base, b.upTo).Sub(lower)
		tax = tax.Add(span.Mul(b.rate))
		lower = b.upTo
	}
	return tax
}

// =============================================================================
// IRRF - income tax withheld at source
// =============================================================================

// DependentDeduction is subtracted from the IR base per dependent.
var DependentDeduction = dec("189.59")

type irBracket struct {
	upTo      decimal.Decimal // zero on the last bracket
	rate      decimal.Decimal
	deduction decimal.Decimal
}

var irBrackets = []irBracket{
	{dec("2428.80"), decimal.Zero, decimal.Zero},
	{dec("2826.65"), dec("0.075"), dec("182.16")},
	{dec("3751.05"), dec("0.15"), dec("394.16")},
	{dec("4664.68"), dec("0.225"), dec("675.49")},
	{decimal.Zero, dec("0.275"), dec("908.73")},
}

var (
	reducerExemptUpTo = dec("5000")
	reducerPhaseOutTo = dec("7350")
	reducerConstant   = dec("978.62")
	reducerSlope      = dec("0.133145")
)

// IRBase is gross - INSS - dependents x deduction, floored at zero.
func IRBase(gross, inss decimal.Decimal, dependents int) decimal.Decimal {
	if dependents < 0 {
		dependents = 0
	}
	deps := DependentDeduction.Mul(decimal.NewFromInt(int64(dependents)))
	return floorZero(gross.Sub(inss).Sub(deps))
}

// IRTraditional applies the monthly table with fixed deduction per bracket.
func IRTraditional(base decimal.Decimal) decimal.Decimal {
	for _, b := range irBrackets {
		if b.upTo.IsZero() || base.LessThanOrEqual(b.upTo) {
			return floorZero(base.Mul(b.rate).Sub(b.deduction))
		}
	}
	return decimal.Zero
}

// IRReducer is the monthly reduction subtracted from the traditional tax.
// Up to 5000 of gross it cancels the tax entirely; between 5000 and 7350 it
// phases out linearly; above that it is zero.
func IRReducer(gross, traditional decimal.Decimal) decimal.Decimal {
	switch {
	case gross.LessThanOrEqual(reducerExemptUpTo):
		return traditional
	case gross.LessThanOrEqual(reducerPhaseOutTo):
		return floorZero(reducerConstant.Sub(reducerSlope.Mul(gross)))
	default:
		return decimal.Zero
	}
}

// IR is the tax due on gross: traditional table minus reducer, never
// negative.
func IR(gross, inss decimal.Decimal, dependents int) (base, traditional, reducer, due decimal.Decimal) {
	base = IRBase(gross, inss, dependents)
	traditional = IRTraditional(base)
	reducer = IRReducer(gross, traditional)
	due = floorZero(traditional.Sub(reducer))
	return base, traditional, reducer, due
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
