package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timecard-engine/calendar"
	"github.com/warp/timecard-engine/timecard"
	"github.com/warp/timecard-engine/timecard/store"
)

func TestMemory_CardReplaceOnSave(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	key := timecard.CardKey{EmployeeID: "emp-1", Year: 2026, Month: time.March, Type: timecard.CardNormal}

	_, err := m.GetCard(ctx, key)
	assert.ErrorIs(t, err, timecard.ErrCardNotFound)

	card := timecard.NewCard(timecard.CardNormal, time.March, 2026, 0)
	card.Line(3).Entry1 = "08:00"
	require.NoError(t, m.SaveCard(ctx, timecard.CardRecord{ID: "c1", Key: key, Card: card}))

	// Mutating the caller's copy does not leak into the store
	card.Line(3).Entry1 = "09:00"

	got, err := m.GetCard(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "08:00", got.Card.Line(3).Entry1)
	assert.Len(t, got.Card.Days, timecard.LinesPerCard)
}

func TestMemory_RejectsInvalidCardType(t *testing.T) {
	err := store.NewMemory().SaveCard(context.Background(), timecard.CardRecord{Key: timecard.CardKey{Type: "x"}})
	assert.ErrorIs(t, err, timecard.ErrInvalidCardType)
}

func TestMemory_ListCardsNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	for _, month := range []time.Month{time.January, time.March, time.February} {
		key := timecard.CardKey{EmployeeID: "emp-1", Year: 2026, Month: month, Type: timecard.CardOvertime}
		require.NoError(t, m.SaveCard(ctx, timecard.CardRecord{Key: key}))
	}
	require.NoError(t, m.SaveCard(ctx, timecard.CardRecord{Key: timecard.CardKey{EmployeeID: "emp-2", Type: timecard.CardNormal}}))

	cards, err := m.ListCards(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, time.March, cards[0].Key.Month)
	assert.Equal(t, time.January, cards[2].Key.Month)
}

func TestMemory_SettingsAndClosings(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	_, err := m.GetSettings(ctx, "emp-1")
	assert.True(t, timecard.IsNotFound(err))

	require.NoError(t, m.SaveSettings(ctx, timecard.SettingsRecord{EmployeeID: "emp-1", ConfigJSON: `{}`}))
	rec, err := m.GetSettings(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, `{}`, rec.ConfigJSON)

	now := time.Now()
	require.NoError(t, m.SaveClosing(ctx, timecard.ClosingRecord{ID: "a", EmployeeID: "emp-1", CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, m.SaveClosing(ctx, timecard.ClosingRecord{ID: "b", EmployeeID: "emp-1", CreatedAt: now}))
	closings, err := m.ListClosings(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, closings, 2)
	assert.Equal(t, "b", closings[0].ID)
}

func TestMemory_Holidays(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	h, err := m.SaveHoliday(ctx, calendar.Holiday{Date: calendar.Day(2026, time.January, 25), Name: "Aniversário de São Paulo", Recurring: true})
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)

	// same date and name keeps the ID
	again, err := m.SaveHoliday(ctx, calendar.Holiday{Date: calendar.Day(2026, time.January, 25), Name: "Aniversário de São Paulo"})
	require.NoError(t, err)
	assert.Equal(t, h.ID, again.ID)

	_, err = m.SaveHoliday(ctx, calendar.Holiday{Date: calendar.Day(2026, time.July, 9), Name: "Revolução Constitucionalista"})
	require.NoError(t, err)

	list, err := m.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, time.January, list[0].Date.Month())

	require.NoError(t, m.DeleteHoliday(ctx, h.ID))
	list, err = m.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
