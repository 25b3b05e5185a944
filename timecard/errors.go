/*
errors.go - Error types for the time-card engine

ERROR CATEGORIES:
  1. Precondition errors - missing configuration (fatal for the call)
  2. Input errors - invalid card type, line or competence
  3. Store errors - missing cards or settings

Malformed clock strings are NOT errors: they are treated as absent punches.

USAGE:
  if errors.Is(err, timecard.ErrSettingsRequired) { ... }
*/
package timecard

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSettingsRequired is returned when classification is invoked without
	// settings. There is no default salary basis.
	ErrSettingsRequired = errors.New("settings are required")

	// ErrInvalidCardType is returned for a card type other than normal/overtime.
	ErrInvalidCardType = errors.New("invalid card type")

	// ErrInvalidCompetence is returned for a month outside 1-12 or a year
	// outside a sensible range.
	ErrInvalidCompetence = errors.New("invalid competence")

	// ErrCardNotFound is returned when no card is stored for the key.
	ErrCardNotFound = errors.New("card not found")

	// ErrSettingsNotFound is returned when an employee has no stored settings.
	ErrSettingsNotFound = errors.New("settings not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InvalidCardTypeError names the offending line.
type InvalidCardTypeError struct {
	Line int
	Card CardType
}

func (e *InvalidCardTypeError) Error() string {
	return fmt.Sprintf("line %d: invalid card type %q", e.Line, e.Card)
}

func (e *InvalidCardTypeError) Unwrap() error { return ErrInvalidCardType }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrSettingsRequired) ||
		errors.Is(err, ErrInvalidCardType) ||
		errors.Is(err, ErrInvalidCompetence)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCardNotFound) ||
		errors.Is(err, ErrSettingsNotFound)
}
