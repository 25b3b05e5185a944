package timecard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// CLOCK ARITHMETIC - minutes of day
// =============================================================================

const (
	MinutesPerDay = 1440

	// NightEnd is 05:00; minutes before it are night regardless of cutoff.
	NightEnd = 5 * 60

	// DefaultNightCutoff is 22:00.
	DefaultNightCutoff = 22 * 60
)

// ParseClock parses an HH:MM string into minutes of day. The second value is
// false for empty or malformed input (missing colon, non-numeric parts,
// hour > 23, minute > 59).
func ParseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	h, m, ok := strings.Cut(s, ":")
	if !ok || h == "" || len(m) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// MinutesOfDay is ParseClock without the validity flag: invalid input is 0.
func MinutesOfDay(s string) int {
	m, _ := ParseClock(s)
	return m
}

// Duration returns end-start in minutes, wrapping once past midnight.
func Duration(start, end int) int {
	d := end - start
	if d < 0 {
		d += MinutesPerDay
	}
	return d
}

// FormatClock renders minutes as HH:MM after reducing modulo one day.
func FormatClock(minutes int) string {
	m := ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// IsNight reports whether the minute of day falls in the night band.
func IsNight(minute, cutoff int) bool {
	m := ((minute % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return m >= cutoff || m < NightEnd
}

func roundMinutes(hours float64) int {
	return int(math.Round(hours * 60))
}
