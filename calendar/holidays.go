package calendar

import (
	"context"
	"sort"
	"time"
)

// =============================================================================
// HOLIDAY TYPES
// =============================================================================

// Holiday is a single non-working date.
type Holiday struct {
	ID        string
	Date      time.Time
	Name      string
	Recurring bool // true = same month/day every year
	National  bool
}

// HolidayCalendar provides holiday lookup.
type HolidayCalendar interface {
	// IsHoliday checks the date against the holidays of the date's own year.
	IsHoliday(date time.Time) bool

	// Holidays returns every holiday of the year, sorted by date.
	Holidays(year int) []Holiday
}

// Registry persists extra holidays (state, municipal, company).
type Registry interface {
	// SaveHoliday assigns an ID when empty and returns the stored holiday.
	SaveHoliday(ctx context.Context, h Holiday) (Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error
	ListHolidays(ctx context.Context) ([]Holiday, error)
}

type fixedHoliday struct {
	month time.Month
	day   int
	name  string
}

var fixedHolidays = []fixedHoliday{
	{time.January, 1, "Confraternização Universal"},
	{time.April, 21, "Tiradentes"},
	{time.May, 1, "Dia do Trabalho"},
	{time.September, 7, "Independência do Brasil"},
	{time.October, 12, "Nossa Senhora Aparecida"},
	{time.November, 2, "Finados"},
	{time.November, 15, "Proclamação da República"},
	{time.December, 25, "Natal"},
}

// =============================================================================
// NATIONAL CALENDAR
// =============================================================================

// National is the Brazilian national holiday calendar. Extra holidays (state,
// municipal or company-specific) can be appended and are honored by both
// IsHoliday and Holidays.
type National struct {
	Extra []Holiday
}

var _ HolidayCalendar = (*National)(nil)

// NewNational creates a calendar with the national holidays and the given
// extra holidays.
func NewNational(extra ...Holiday) *National {
	return &National{Extra: extra}
}

func (n *National) IsHoliday(date time.Time) bool {
	d := Truncate(date)
	for _, h := range n.Holidays(d.Year()) {
		if SameDay(h.Date, d) {
			return true
		}
	}
	return false
}

func (n *National) Holidays(year int) []Holiday {
	out := NationalHolidays(year)
	if n != nil {
		for _, h := range n.Extra {
			switch {
			case h.Recurring:
				if !ValidDay(year, h.Date.Month(), h.Date.Day()) {
					continue
				}
				h.Date = Day(year, h.Date.Month(), h.Date.Day())
				out = append(out, h)
			case h.Date.Year() == year:
				h.Date = Truncate(h.Date)
				out = append(out, h)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// NationalHolidays returns the 8 fixed and 4 movable national holidays.
func NationalHolidays(year int) []Holiday {
	out := make([]Holiday, 0, len(fixedHolidays)+4)
	for _, f := range fixedHolidays {
		out = append(out, Holiday{
			Date:      Day(year, f.month, f.day),
			Name:      f.name,
			Recurring: true,
			National:  true,
		})
	}

	easter := EasterSunday(year)
	movable := []struct {
		offset int
		name   string
	}{
		{-48, "Carnaval (segunda-feira)"},
		{-47, "Carnaval (terça-feira)"},
		{-2, "Sexta-feira Santa"},
		{60, "Corpus Christi"},
	}
	for _, m := range movable {
		out = append(out, Holiday{
			Date:     easter.AddDate(0, 0, m.offset),
			Name:     m.name,
			National: true,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// EasterSunday returns Easter Sunday for the Gregorian year
// (Meeus/Jones/Butcher form of the Gauss algorithm).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return Day(year, time.Month(month), day)
}
