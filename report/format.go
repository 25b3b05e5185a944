/*
Package report renders settlements and cards for people: a settlement PDF
and an xlsx workbook of the classified cards.

PURPOSE:
  The engine packages return plain values. This package is the only place
  that formats them: pt-BR money ("R$ 1.234,56"), HH:MM durations and
  dd/mm/yyyy dates.

FILES:
  - format.go:   Money, Hours and date formatting
  - pdf.go:      SettlementPDF (gofpdf)
  - workbook.go: CardWorkbook (excelize)
*/
package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const dateLayout = "02/01/2006"

var printer = message.NewPrinter(language.BrazilianPortuguese)

var weekdays = [...]string{"dom", "seg", "ter", "qua", "qui", "sex", "sáb"}

// Money formats an amount rounded to cents with pt-BR separators. Only the
// integer part goes through the printer, for digit grouping.
func Money(d decimal.Decimal) string {
	sign := ""
	if d.Round(2).IsNegative() {
		sign, d = "-", d.Neg()
	}
	fixed := d.StringFixed(2)
	cents := fixed[len(fixed)-2:]
	units := d.Round(2).IntPart()
	return "R$ " + sign + printer.Sprintf("%d", units) + "," + cents
}

// Hours formats a minute count as H:MM. Negative counts keep their sign.
func Hours(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign, minutes = "-", -minutes
	}
	return fmt.Sprintf("%s%d:%02d", sign, minutes/60, minutes%60)
}

// Date formats a date as dd/mm/yyyy, empty for the zero time.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// Weekday returns the short pt-BR weekday name.
func Weekday(t time.Time) string {
	return weekdays[t.Weekday()]
}

// latin converts UTF-8 text to the cp1252 bytes expected by the PDF core
// fonts. Characters outside cp1252 become '?'.
func latin(s string) string {
	out, err := charmap.Windows1252.NewEncoder().String(s)
	if err == nil {
		return out
	}
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b = append(b, c)
		} else {
			b = append(b, '?')
		}
	}
	return string(b)
}
