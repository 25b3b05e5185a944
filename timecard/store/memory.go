// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/warp/timecard-engine/calendar"
	"github.com/warp/timecard-engine/timecard"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	cards    map[timecard.CardKey]timecard.CardRecord
	settings map[string]timecard.SettingsRecord
	closings map[string][]timecard.ClosingRecord
	holidays map[string]calendar.Holiday
}

var (
	_ timecard.Store    = (*Memory)(nil)
	_ calendar.Registry = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		cards:    make(map[timecard.CardKey]timecard.CardRecord),
		settings: make(map[string]timecard.SettingsRecord),
		closings: make(map[string][]timecard.ClosingRecord),
		holidays: make(map[string]calendar.Holiday),
	}
}

// SaveCard replaces the whole card. Card is an array value so the stored copy
// never aliases the caller's lines.
func (m *Memory) SaveCard(_ context.Context, rec timecard.CardRecord) error {
	if !rec.Key.Type.Valid() {
		return timecard.ErrInvalidCardType
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[rec.Key] = rec
	return nil
}

func (m *Memory) GetCard(_ context.Context, key timecard.CardKey) (*timecard.CardRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.cards[key]
	if !ok {
		return nil, timecard.ErrCardNotFound
	}
	return &rec, nil
}

func (m *Memory) ListCards(_ context.Context, employeeID string) ([]timecard.CardRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []timecard.CardRecord
	for k, rec := range m.cards {
		if k.EmployeeID == employeeID {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Key, result[j].Key
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		return a.Type < b.Type
	})
	return result, nil
}

func (m *Memory) SaveSettings(_ context.Context, rec timecard.SettingsRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[rec.EmployeeID] = rec
	return nil
}

func (m *Memory) GetSettings(_ context.Context, employeeID string) (*timecard.SettingsRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.settings[employeeID]
	if !ok {
		return nil, timecard.ErrSettingsNotFound
	}
	return &rec, nil
}

func (m *Memory) ListSettings(_ context.Context) ([]timecard.SettingsRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]timecard.SettingsRecord, 0, len(m.settings))
	for _, rec := range m.settings {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (m *Memory) SaveClosing(_ context.Context, rec timecard.ClosingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closings[rec.EmployeeID] = append(m.closings[rec.EmployeeID], rec)
	return nil
}

// ListClosings returns closings newest first.
func (m *Memory) ListClosings(_ context.Context, employeeID string) ([]timecard.ClosingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := append([]timecard.ClosingRecord{}, m.closings[employeeID]...)
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// SaveHoliday replaces a holiday with the same date and name.
func (m *Memory) SaveHoliday(_ context.Context, h calendar.Holiday) (calendar.Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h.Date = calendar.Truncate(h.Date)
	for id, existing := range m.holidays {
		if calendar.SameDay(existing.Date, h.Date) && existing.Name == h.Name {
			h.ID = id
		}
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	m.holidays[h.ID] = h
	return h, nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holidays, id)
	return nil
}

func (m *Memory) ListHolidays(_ context.Context) ([]calendar.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]calendar.Holiday, 0, len(m.holidays))
	for _, h := range m.holidays {
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// Reset deletes all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cards = make(map[timecard.CardKey]timecard.CardRecord)
	m.settings = make(map[string]timecard.SettingsRecord)
	m.closings = make(map[string][]timecard.ClosingRecord)
	m.holidays = make(map[string]calendar.Holiday)
	return nil
}
