/*
Package factory provides JSON to Go settings conversion.

PURPOSE:
  Converts JSON employee settings into timecard.Settings. Settings are stored
  per employee as JSON (SettingsRecord.ConfigJSON) and edited through the
  API, so the same parser serves the store, the handlers and the presets.

JSON SCHEMA:
  {
    "base_salary": "3000.00",
    "monthly_hours": "220",
    "daily_journey_hours": 8,
    "weekly_cap_hours": 10,
    "night_cutoff": "22:00",
    "pct_50": "50",
    "pct_100": "100",
    "pct_night": "20",
    "saturday_compensation": true,
    "compensation_weekdays": ["monday", "tuesday", "wednesday", "thursday"],
    "cycle_start_day": 1,
    "dependents": 0,
    "advance_percent": "40",
    "fixed_advance_ir": "0",
    "journey_start": "08:00",
    "lunch_start": "12:00",
    "lunch_end": "13:00"
  }

DEFAULTS:
  Everything except base_salary is optional. weekly_cap_hours: 0 means
  unlimited, absent means 10. Saturday compensation without weekdays
  compensates Monday to Thursday.

USAGE:
  f := factory.NewSettingsFactory(1)
  settings, err := f.ParseSettings(jsonString)

SEE ALSO:
  - timecard/types.go: Settings
  - timecard/store.go: SettingsRecord
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timecard-engine/timecard"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SettingsJSON is the JSON representation of employee settings.
type SettingsJSON struct {
	BaseSalary        decimal.Decimal  `json:"base_salary"`
	MonthlyHours      *decimal.Decimal `json:"monthly_hours,omitempty"`
	DailyJourneyHours float64          `json:"daily_journey_hours,omitempty"`
	WeeklyCapHours    *float64         `json:"weekly_cap_hours,omitempty"` // 0 = unlimited
	NightCutoff       string           `json:"night_cutoff,omitempty"`

	Pct50    *decimal.Decimal `json:"pct_50,omitempty"`
	Pct100   *decimal.Decimal `json:"pct_100,omitempty"`
	PctNight *decimal.Decimal `json:"pct_night,omitempty"`

	SaturdayCompensation bool     `json:"saturday_compensation,omitempty"`
	CompensationWeekdays []string `json:"compensation_weekdays,omitempty"`

	CycleStartDay  *int             `json:"cycle_start_day,omitempty"`
	Dependents     int              `json:"dependents,omitempty"`
	AdvancePercent *decimal.Decimal `json:"advance_percent,omitempty"`
	FixedAdvanceIR *decimal.Decimal `json:"fixed_advance_ir,omitempty"`

	JourneyStart string `json:"journey_start,omitempty"`
	LunchStart   string `json:"lunch_start,omitempty"`
	LunchEnd     string `json:"lunch_end,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrInvalidSettings is wrapped by every ValidationError.
var ErrInvalidSettings = errors.New("invalid settings")

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("settings.%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidSettings }

// =============================================================================
// SETTINGS FACTORY
// =============================================================================

var (
	defaultMonthlyHours = decimal.NewFromInt(220)
	defaultPct50        = decimal.NewFromInt(50)
	defaultPct100       = decimal.NewFromInt(100)
	defaultPctNight     = decimal.NewFromInt(20)
)

const (
	defaultJourneyHours = 8
	defaultWeeklyCap    = 10
)

// SettingsFactory converts JSON settings to timecard.Settings.
type SettingsFactory struct {
	// DefaultCycleStartDay applies when the JSON has no cycle_start_day.
	DefaultCycleStartDay int
}

// NewSettingsFactory creates a factory with the given default cycle start day.
func NewSettingsFactory(defaultCycleStartDay int) *SettingsFactory {
	return &SettingsFactory{DefaultCycleStartDay: defaultCycleStartDay}
}

// ParseSettings parses a JSON string into Settings.
func (f *SettingsFactory) ParseSettings(jsonStr string) (*timecard.Settings, error) {
	var sj SettingsJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return nil, fmt.Errorf("failed to parse settings JSON: %w", err)
	}
	return f.FromJSON(sj)
}

// FromJSON applies defaults, validates and converts.
func (f *SettingsFactory) FromJSON(sj SettingsJSON) (*timecard.Settings, error) {
	s := &timecard.Settings{
		BaseSalary:           sj.BaseSalary,
		MonthlyHours:         decOr(sj.MonthlyHours, defaultMonthlyHours),
		DailyJourneyHours:    sj.DailyJourneyHours,
		WeeklyCapHours:       defaultWeeklyCap,
		NightCutoff:          orDefault(sj.NightCutoff, "22:00"),
		Pct50:                decOr(sj.Pct50, defaultPct50),
		Pct100:               decOr(sj.Pct100, defaultPct100),
		PctNight:             decOr(sj.PctNight, defaultPctNight),
		SaturdayCompensation: sj.SaturdayCompensation,
		CycleStartDay:        f.DefaultCycleStartDay,
		Dependents:           sj.Dependents,
		AdvancePercent:       decOr(sj.AdvancePercent, decimal.Zero),
		FixedAdvanceIR:       sj.FixedAdvanceIR,
		JourneyStart:         orDefault(sj.JourneyStart, "08:00"),
		LunchStart:           orDefault(sj.LunchStart, "12:00"),
		LunchEnd:             orDefault(sj.LunchEnd, "13:00"),
	}
	if s.DailyJourneyHours == 0 {
		s.DailyJourneyHours = defaultJourneyHours
	}
	if sj.WeeklyCapHours != nil {
		s.WeeklyCapHours = *sj.WeeklyCapHours
	}
	if sj.CycleStartDay != nil {
		s.CycleStartDay = *sj.CycleStartDay
	}

	weekdays, err := parseWeekdays(sj.CompensationWeekdays)
	if err != nil {
		return nil, err
	}
	if s.SaturdayCompensation && len(weekdays) == 0 {
		weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday}
	}
	s.CompensationWeekdays = weekdays

	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks ranges and clock formats.
func Validate(s *timecard.Settings) error {
	switch {
	case s.BaseSalary.IsNegative():
		return &ValidationError{"base_salary", "must not be negative"}
	case s.MonthlyHours.IsNegative():
		return &ValidationError{"monthly_hours", "must not be negative"}
	case s.DailyJourneyHours < 0 || s.DailyJourneyHours > 24:
		return &ValidationError{"daily_journey_hours", "must be between 0 and 24"}
	case s.WeeklyCapHours < 0:
		return &ValidationError{"weekly_cap_hours", "must not be negative"}
	case s.Pct50.IsNegative() || s.Pct100.IsNegative() || s.PctNight.IsNegative():
		return &ValidationError{"pct", "percentages must not be negative"}
	case s.CycleStartDay < 0 || s.CycleStartDay > 31:
		return &ValidationError{"cycle_start_day", "must be between 0 and 31"}
	case s.Dependents < 0:
		return &ValidationError{"dependents", "must not be negative"}
	case s.AdvancePercent.IsNegative() || s.AdvancePercent.GreaterThan(decimal.NewFromInt(100)):
		return &ValidationError{"advance_percent", "must be between 0 and 100"}
	case s.FixedAdvanceIR != nil && s.FixedAdvanceIR.IsNegative():
		return &ValidationError{"fixed_advance_ir", "must not be negative"}
	}

	clocks := []struct{ field, value string }{
		{"night_cutoff", s.NightCutoff},
		{"journey_start", s.JourneyStart},
		{"lunch_start", s.LunchStart},
		{"lunch_end", s.LunchEnd},
	}
	for _, c := range clocks {
		if _, ok := timecard.ParseClock(c.value); !ok {
			return &ValidationError{c.field, fmt.Sprintf("%q is not a HH:MM clock", c.value)}
		}
	}
	if timecard.MinutesOfDay(s.LunchStart) <= timecard.MinutesOfDay(s.JourneyStart) ||
		timecard.MinutesOfDay(s.LunchEnd) < timecard.MinutesOfDay(s.LunchStart) {
		return &ValidationError{"lunch_start", "schedule must be journey_start < lunch_start <= lunch_end"}
	}
	return nil
}

// ToJSON converts Settings back to SettingsJSON. Every field is explicit.
func (f *SettingsFactory) ToJSON(s *timecard.Settings) SettingsJSON {
	weeklyCap := s.WeeklyCapHours
	cycle := s.CycleStartDay
	monthly, p50, p100, night, adv := s.MonthlyHours, s.Pct50, s.Pct100, s.PctNight, s.AdvancePercent

	sj := SettingsJSON{
		BaseSalary:           s.BaseSalary,
		MonthlyHours:         &monthly,
		DailyJourneyHours:    s.DailyJourneyHours,
		WeeklyCapHours:       &weeklyCap,
		NightCutoff:          s.NightCutoff,
		Pct50:                &p50,
		Pct100:               &p100,
		PctNight:             &night,
		SaturdayCompensation: s.SaturdayCompensation,
		CycleStartDay:        &cycle,
		Dependents:           s.Dependents,
		AdvancePercent:       &adv,
		FixedAdvanceIR:       s.FixedAdvanceIR,
		JourneyStart:         s.JourneyStart,
		LunchStart:           s.LunchStart,
		LunchEnd:             s.LunchEnd,
	}
	for _, wd := range s.CompensationWeekdays {
		sj.CompensationWeekdays = append(sj.CompensationWeekdays, strings.ToLower(wd.String()))
	}
	return sj
}

// Marshal renders Settings as the JSON stored in SettingsRecord.ConfigJSON.
func (f *SettingsFactory) Marshal(s *timecard.Settings) (string, error) {
	b, err := json.Marshal(f.ToJSON(s))
	if err != nil {
		return "", fmt.Errorf("failed to marshal settings: %w", err)
	}
	return string(b), nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday, "domingo": time.Sunday,
	"monday": time.Monday, "mon": time.Monday, "segunda": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "terca": time.Tuesday, "terça": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "quarta": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "quinta": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "sexta": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "sabado": time.Saturday, "sábado": time.Saturday,
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	var out []time.Weekday
	seen := map[time.Weekday]bool{}
	for _, n := range names {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, &ValidationError{"compensation_weekdays", fmt.Sprintf("unknown weekday %q", n)}
		}
		if !seen[wd] {
			seen[wd] = true
			out = append(out, wd)
		}
	}
	return out, nil
}

func decOr(v *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if v == nil {
		return fallback
	}
	return *v
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// =============================================================================
// PRESETS
// =============================================================================

// DefaultSettingsJSON is the standard CLT preset: 220 h divisor, 8 h days,
// 10 h weekly cap at 50 %, night from 22:00 with 20 %, Saturday compensated
// Monday to Thursday and a 40 % advance.
func DefaultSettingsJSON(baseSalary string) string {
	return fmt.Sprintf(`{
  "base_salary": %q,
  "monthly_hours": "220",
  "daily_journey_hours": 8,
  "weekly_cap_hours": 10,
  "night_cutoff": "22:00",
  "pct_50": "50",
  "pct_100": "100",
  "pct_night": "20",
  "saturday_compensation": true,
  "compensation_weekdays": ["monday", "tuesday", "wednesday", "thursday"],
  "cycle_start_day": 1,
  "dependents": 0,
  "advance_percent": "40",
  "journey_start": "08:00",
  "lunch_start": "12:00",
  "lunch_end": "13:00"
}`, baseSalary)
}
