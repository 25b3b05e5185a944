/*
store.go - Persistence interface for cards, settings and closings

PURPOSE:
  The engine itself never touches storage. Services that need to persist
  captured cards, employee settings or closing snapshots use this interface.

REPLACE-ON-SAVE CONTRACT:
  A card is always saved as its full 31-line set. SaveCard replaces every
  line of the stored card in one atomic write; there is no method to delete
  a single line. Partial edits are merged in memory with Card.Merge first.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - timecard/store/memory.go: In-memory for testing

SEE ALSO:
  - factory/settings.go: SettingsRecord.ConfigJSON format
*/
package timecard

import (
	"context"
	"time"
)

// CardKey identifies one card of one employee.
type CardKey struct {
	EmployeeID string
	Year       int
	Month      time.Month
	Type       CardType
}

// CardRecord is a stored card.
type CardRecord struct {
	ID        string
	Key       CardKey
	Card      Card
	UpdatedAt time.Time
}

// SettingsRecord holds an employee's settings in their JSON form.
type SettingsRecord struct {
	EmployeeID string
	ConfigJSON string
	UpdatedAt  time.Time
}

// ClosingRecord is a persisted settlement snapshot.
type ClosingRecord struct {
	ID         string
	EmployeeID string
	Year       int
	Month      time.Month
	ResultJSON string
	CreatedAt  time.Time
}

// Store persists cards, settings and closing snapshots.
type Store interface {
	// SaveCard replaces the full card stored under rec.Key.
	SaveCard(ctx context.Context, rec CardRecord) error

	// GetCard returns ErrCardNotFound when nothing is stored.
	GetCard(ctx context.Context, key CardKey) (*CardRecord, error)

	// ListCards returns every card of an employee, newest competence first.
	ListCards(ctx context.Context, employeeID string) ([]CardRecord, error)

	SaveSettings(ctx context.Context, rec SettingsRecord) error

	// GetSettings returns ErrSettingsNotFound when nothing is stored.
	GetSettings(ctx context.Context, employeeID string) (*SettingsRecord, error)

	// ListSettings returns the settings of every employee, by employee ID.
	ListSettings(ctx context.Context) ([]SettingsRecord, error)

	SaveClosing(ctx context.Context, rec ClosingRecord) error
	ListClosings(ctx context.Context, employeeID string) ([]ClosingRecord, error)
}
