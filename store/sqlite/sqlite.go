/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements timecard.Store (cards, settings, closing snapshots) and the
  extra-holiday registry behind calendar.National using SQLite.

REPLACE-ON-SAVE:
  A card is one row in cards plus exactly 31 rows in card_lines. SaveCard
  rewrites all 31 lines inside one transaction; single lines are never
  deleted on their own.

KEY TABLES:
  cards:             One row per (employee, year, month, card type)
  card_lines:        31 punch rows per card
  employee_settings: Settings JSON per employee (versioned)
  holidays:          Extra holidays on top of the national calendar
  closings:          Settlement snapshots, append-only

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, like the memory store.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block and
  a single writer runs at a time.

USAGE:
  store, err := sqlite.New("./data/timecard.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - timecard/store.go: Interface definitions
  - timecard/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/timecard-engine/calendar"
	"github.com/warp/timecard-engine/timecard"
)

const dateLayout = "2006-01-02"

// timestampLayout is fixed width so created_at sorts as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements timecard.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ timecard.Store    = (*Store)(nil)
	_ calendar.Registry = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		card_type TEXT NOT NULL,
		cycle_start_day INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_cards_key
		ON cards(employee_id, year, month, card_type);

	CREATE TABLE IF NOT EXISTS card_lines (
		card_id TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
		line INTEGER NOT NULL CHECK (line BETWEEN 1 AND 31),
		date TEXT,
		entry1 TEXT NOT NULL DEFAULT '',
		exit1 TEXT NOT NULL DEFAULT '',
		entry2 TEXT NOT NULL DEFAULT '',
		exit2 TEXT NOT NULL DEFAULT '',
		entry3 TEXT NOT NULL DEFAULT '',
		exit3 TEXT NOT NULL DEFAULT '',
		manual_annotation INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (card_id, line)
	);

	CREATE TABLE IF NOT EXISTS employee_settings (
		employee_id TEXT PRIMARY KEY,
		config_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL,
		UNIQUE(date, name)
	);

	CREATE TABLE IF NOT EXISTS closings (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_closings_employee
		ON closings(employee_id, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CARD STORE
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveCard replaces the full card stored under rec.Key.
func (s *Store) SaveCard(ctx context.Context, rec timecard.CardRecord) error {
	if !rec.Key.Type.Valid() {
		return fmt.Errorf("%w: %q", timecard.ErrInvalidCardType, rec.Key.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	k := rec.Key

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO cards (id, employee_id, year, month, card_type, cycle_start_day, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, year, month, card_type) DO UPDATE SET
			cycle_start_day = excluded.cycle_start_day,
			updated_at = excluded.updated_at
	`, id, k.EmployeeID, k.Year, int(k.Month), string(k.Type), rec.Card.CycleStartDay, now, now)
	if err != nil {
		return fmt.Errorf("failed to save card: %w", err)
	}

	// On conflict the existing id wins
	err = sqlTx.QueryRowContext(ctx,
		"SELECT id FROM cards WHERE employee_id = ? AND year = ? AND month = ? AND card_type = ?",
		k.EmployeeID, k.Year, int(k.Month), string(k.Type),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to load card id: %w", err)
	}

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM card_lines WHERE card_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear card lines: %w", err)
	}
	for _, d := range rec.Card.Days {
		if err := insertLine(ctx, sqlTx, id, d); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

func insertLine(ctx context.Context, db execer, cardID string, d timecard.CardDay) error {
	var date sql.NullString
	if d.HasDate() {
		date = sql.NullString{String: d.Date.Format(dateLayout), Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO card_lines
		(card_id, line, date, entry1, exit1, entry2, exit2, entry3, exit3, manual_annotation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, cardID, d.Line, date, d.Entry1, d.Exit1, d.Entry2, d.Exit2, d.Entry3, d.Exit3, d.ManualAnnotation)
	if err != nil {
		return fmt.Errorf("failed to save line %d: %w", d.Line, err)
	}
	return nil
}

// GetCard returns timecard.ErrCardNotFound when nothing is stored.
func (s *Store) GetCard(ctx context.Context, key timecard.CardKey) (*timecard.CardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec       timecard.CardRecord
		cycle     int
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, cycle_start_day, updated_at FROM cards WHERE employee_id = ? AND year = ? AND month = ? AND card_type = ?",
		key.EmployeeID, key.Year, int(key.Month), string(key.Type),
	).Scan(&rec.ID, &cycle, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, timecard.ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	rec.Key = key
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	rec.Card, err = s.loadCard(ctx, rec.ID, key, cycle)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListCards returns every card of an employee, newest competence first.
func (s *Store) ListCards(ctx context.Context, employeeID string) ([]timecard.CardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, year, month, card_type, cycle_start_day, updated_at
		FROM cards
		WHERE employee_id = ?
		ORDER BY year DESC, month DESC, card_type ASC
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	type header struct {
		rec   timecard.CardRecord
		cycle int
	}
	var headers []header
	for rows.Next() {
		var (
			h         header
			month     int
			cardType  string
			updatedAt string
		)
		if err := rows.Scan(&h.rec.ID, &h.rec.Key.Year, &month, &cardType, &h.cycle, &updatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		h.rec.Key.EmployeeID = employeeID
		h.rec.Key.Month = time.Month(month)
		h.rec.Key.Type = timecard.CardType(cardType)
		h.rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]timecard.CardRecord, 0, len(headers))
	for _, h := range headers {
		h.rec.Card, err = s.loadCard(ctx, h.rec.ID, h.rec.Key, h.cycle)
		if err != nil {
			return nil, err
		}
		out = append(out, h.rec)
	}
	return out, nil
}

// loadCard rebuilds the 31-line card; dates are resolved again from the
// competence, stored dates are informational.
func (s *Store) loadCard(ctx context.Context, cardID string, key timecard.CardKey, cycle int) (timecard.Card, error) {
	card := timecard.NewCard(key.Type, key.Month, key.Year, cycle)

	rows, err := s.db.QueryContext(ctx, `
		SELECT line, entry1, exit1, entry2, exit2, entry3, exit3, manual_annotation
		FROM card_lines
		WHERE card_id = ?
		ORDER BY line ASC
	`, cardID)
	if err != nil {
		return card, fmt.Errorf("failed to load card lines: %w", err)
	}
	defer rows.Close()

	var lines []timecard.CardDay
	for rows.Next() {
		var d timecard.CardDay
		if err := rows.Scan(&d.Line, &d.Entry1, &d.Exit1, &d.Entry2, &d.Exit2, &d.Entry3, &d.Exit3, &d.ManualAnnotation); err != nil {
			return card, err
		}
		lines = append(lines, d)
	}
	card.Merge(lines)
	return card, rows.Err()
}

// =============================================================================
// SETTINGS STORE
// =============================================================================

// SaveSettings upserts an employee's settings JSON and bumps its version.
func (s *Store) SaveSettings(ctx context.Context, rec timecard.SettingsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employee_settings (employee_id, config_json, version, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			config_json = excluded.config_json,
			version = employee_settings.version + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query, rec.EmployeeID, rec.ConfigJSON, now, now)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// GetSettings returns timecard.ErrSettingsNotFound when nothing is stored.
func (s *Store) GetSettings(ctx context.Context, employeeID string) (*timecard.SettingsRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := timecard.SettingsRecord{EmployeeID: employeeID}
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT config_json, updated_at FROM employee_settings WHERE employee_id = ?",
		employeeID,
	).Scan(&rec.ConfigJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, timecard.ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &rec, nil
}

// ListSettings returns the settings of every employee, by employee ID.
func (s *Store) ListSettings(ctx context.Context) ([]timecard.SettingsRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT employee_id, config_json, updated_at FROM employee_settings ORDER BY employee_id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var out []timecard.SettingsRecord
	for rows.Next() {
		var rec timecard.SettingsRecord
		var updatedAt string
		if err := rows.Scan(&rec.EmployeeID, &rec.ConfigJSON, &updatedAt); err != nil {
			return nil, err
		}
		rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SettingsVersion returns how many times the settings were saved, 0 when
// none are stored.
func (s *Store) SettingsVersion(ctx context.Context, employeeID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var version int
	err := s.db.QueryRowContext(ctx,
		"SELECT version FROM employee_settings WHERE employee_id = ?", employeeID,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return version, err
}

// =============================================================================
// CLOSING STORE
// =============================================================================

// SaveClosing appends a settlement snapshot.
func (s *Store) SaveClosing(ctx context.Context, rec timecard.ClosingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO closings (id, employee_id, year, month, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.EmployeeID, rec.Year, int(rec.Month), rec.ResultJSON, rec.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("failed to save closing: %w", err)
	}
	return nil
}

// ListClosings returns an employee's snapshots, newest first.
func (s *Store) ListClosings(ctx context.Context, employeeID string) ([]timecard.ClosingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, year, month, result_json, created_at
		FROM closings
		WHERE employee_id = ?
		ORDER BY created_at DESC
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list closings: %w", err)
	}
	defer rows.Close()

	var out []timecard.ClosingRecord
	for rows.Next() {
		rec := timecard.ClosingRecord{EmployeeID: employeeID}
		var month int
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Year, &month, &rec.ResultJSON, &createdAt); err != nil {
			return nil, err
		}
		rec.Month = time.Month(month)
		rec.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// HOLIDAY REGISTRY
// =============================================================================

// SaveHoliday stores an extra holiday. Saving the same date and name again
// only updates the recurring flag.
func (s *Store) SaveHoliday(ctx context.Context, h calendar.Holiday) (calendar.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.Date = calendar.Truncate(h.Date)

	query := `
		INSERT INTO holidays (id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date, name) DO UPDATE SET
			recurring = excluded.recurring
	`
	_, err := s.db.ExecContext(ctx, query,
		h.ID, h.Date.Format(dateLayout), h.Name, h.Recurring, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return h, fmt.Errorf("failed to save holiday: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM holidays WHERE date = ? AND name = ?", h.Date.Format(dateLayout), h.Name,
	).Scan(&h.ID)
	return h, err
}

// DeleteHoliday deletes an extra holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	return err
}

// ListHolidays returns every stored extra holiday, by date.
func (s *Store) ListHolidays(ctx context.Context) ([]calendar.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, date, name, recurring FROM holidays ORDER BY date ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []calendar.Holiday
	for rows.Next() {
		var h calendar.Holiday
		var dateStr string
		if err := rows.Scan(&h.ID, &dateStr, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		h.Date, err = time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("holiday %s: bad date %q: %w", h.ID, dateStr, err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// Calendar returns the national calendar extended with the stored holidays.
func (s *Store) Calendar(ctx context.Context) (*calendar.National, error) {
	extra, err := s.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	return calendar.NewNational(extra...), nil
}

// Reset deletes all data (for testing).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"card_lines", "cards", "employee_settings", "holidays", "closings"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}
