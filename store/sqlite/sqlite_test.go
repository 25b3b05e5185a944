package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timecard-engine/calendar"
	"github.com/warp/timecard-engine/store/sqlite"
	"github.com/warp/timecard-engine/timecard"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func march(cardType timecard.CardType) timecard.CardKey {
	return timecard.CardKey{EmployeeID: "emp-1", Year: 2026, Month: time.March, Type: cardType}
}

func TestStore_CardRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	card := timecard.NewCard(timecard.CardNormal, time.March, 2026, 0)
	day := card.Line(2)
	day.Entry1, day.Exit1, day.Entry2, day.Exit2 = "08:00", "12:00", "13:00", "17:00"
	card.Line(3).ManualAnnotation = true

	require.NoError(t, s.SaveCard(ctx, timecard.CardRecord{Key: march(timecard.CardNormal), Card: card}))

	got, err := s.GetCard(ctx, march(timecard.CardNormal))
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "17:00", got.Card.Line(2).Exit2)
	assert.True(t, got.Card.Line(3).ManualAnnotation)
	assert.True(t, calendar.SameDay(calendar.Day(2026, time.March, 2), got.Card.Line(2).Date))
	assert.Len(t, got.Card.Entries(), 31)
}

func TestStore_SaveCardReplacesAllLines(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	key := march(timecard.CardOvertime)

	first := timecard.NewCard(timecard.CardOvertime, time.March, 2026, 0)
	first.Line(5).Entry1, first.Line(5).Exit1 = "18:00", "20:00"
	require.NoError(t, s.SaveCard(ctx, timecard.CardRecord{Key: key, Card: first}))
	before, err := s.GetCard(ctx, key)
	require.NoError(t, err)

	second := timecard.NewCard(timecard.CardOvertime, time.March, 2026, 0)
	second.Line(6).Entry1, second.Line(6).Exit1 = "19:00", "21:00"
	require.NoError(t, s.SaveCard(ctx, timecard.CardRecord{Key: key, Card: second}))

	after, err := s.GetCard(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.False(t, after.Card.Line(5).HasPunches())
	assert.Equal(t, "21:00", after.Card.Line(6).Exit1)
}

func TestStore_CardNotFoundAndInvalidType(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.GetCard(ctx, march(timecard.CardNormal))
	assert.ErrorIs(t, err, timecard.ErrCardNotFound)

	err = s.SaveCard(ctx, timecard.CardRecord{Key: march("weekend")})
	assert.ErrorIs(t, err, timecard.ErrInvalidCardType)
}

func TestStore_CycleStartDayLinesWithoutDate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// with a cycle starting on the 15th, line 20 is February 20 and line 30
	// does not exist since February 2026 has 28 days
	card := timecard.NewCard(timecard.CardNormal, time.March, 2026, 15)
	card.Line(20).Entry1, card.Line(20).Exit1 = "08:00", "12:00"
	card.Line(30).Entry1, card.Line(30).Exit1 = "08:00", "12:00"
	key := march(timecard.CardNormal)
	require.NoError(t, s.SaveCard(ctx, timecard.CardRecord{Key: key, Card: card}))

	got, err := s.GetCard(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Card.CycleStartDay)
	assert.True(t, calendar.SameDay(calendar.Day(2026, time.February, 20), got.Card.Line(20).Date))
	assert.Equal(t, "12:00", got.Card.Line(20).Exit1)
	assert.False(t, got.Card.Line(30).HasDate())
	assert.False(t, got.Card.Line(30).HasPunches())
}

func TestStore_ListCardsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for _, month := range []time.Month{time.January, time.March, time.February} {
		key := timecard.CardKey{EmployeeID: "emp-1", Year: 2026, Month: month, Type: timecard.CardNormal}
		require.NoError(t, s.SaveCard(ctx, timecard.CardRecord{Key: key, Card: timecard.NewCard(timecard.CardNormal, month, 2026, 0)}))
	}
	other := timecard.CardKey{EmployeeID: "emp-2", Year: 2026, Month: time.May, Type: timecard.CardNormal}
	require.NoError(t, s.SaveCard(ctx, timecard.CardRecord{Key: other, Card: timecard.NewCard(timecard.CardNormal, time.May, 2026, 0)}))

	cards, err := s.ListCards(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, time.March, cards[0].Key.Month)
	assert.Equal(t, time.February, cards[1].Key.Month)
	assert.Equal(t, time.January, cards[2].Key.Month)
	assert.Equal(t, "emp-1", cards[0].Key.EmployeeID)
}

func TestStore_SettingsVersioned(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.GetSettings(ctx, "emp-1")
	assert.ErrorIs(t, err, timecard.ErrSettingsNotFound)

	v, err := s.SettingsVersion(ctx, "emp-1")
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, s.SaveSettings(ctx, timecard.SettingsRecord{EmployeeID: "emp-1", ConfigJSON: `{"base_salary":"3000"}`}))
	require.NoError(t, s.SaveSettings(ctx, timecard.SettingsRecord{EmployeeID: "emp-1", ConfigJSON: `{"base_salary":"3100"}`}))

	rec, err := s.GetSettings(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, `{"base_salary":"3100"}`, rec.ConfigJSON)

	v, err = s.SettingsVersion(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	require.NoError(t, s.SaveSettings(ctx, timecard.SettingsRecord{EmployeeID: "emp-0", ConfigJSON: `{}`}))
	all, err := s.ListSettings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "emp-0", all[0].EmployeeID)
}

func TestStore_ClosingsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	now := time.Now()
	require.NoError(t, s.SaveClosing(ctx, timecard.ClosingRecord{EmployeeID: "emp-1", Year: 2026, Month: time.February, ResultJSON: `{"n":1}`, CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, s.SaveClosing(ctx, timecard.ClosingRecord{EmployeeID: "emp-1", Year: 2026, Month: time.March, ResultJSON: `{"n":2}`, CreatedAt: now}))

	closings, err := s.ListClosings(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, closings, 2)
	assert.Equal(t, time.March, closings[0].Month)
	assert.Equal(t, `{"n":2}`, closings[0].ResultJSON)
	assert.NotEmpty(t, closings[1].ID)

	none, err := s.ListClosings(ctx, "emp-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_ClosingsOrderedWithinOneSecond(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// GIVEN two closings in the same second, the later one with a fraction
	second := time.Date(2026, 4, 2, 3, 0, 5, 0, time.UTC)
	require.NoError(t, s.SaveClosing(ctx, timecard.ClosingRecord{EmployeeID: "emp-1", Year: 2026, Month: time.March, ResultJSON: `{"n":1}`, CreatedAt: second}))
	require.NoError(t, s.SaveClosing(ctx, timecard.ClosingRecord{EmployeeID: "emp-1", Year: 2026, Month: time.March, ResultJSON: `{"n":2}`, CreatedAt: second.Add(500 * time.Millisecond)}))

	closings, err := s.ListClosings(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, closings, 2)
	assert.Equal(t, `{"n":2}`, closings[0].ResultJSON)
	assert.True(t, closings[0].CreatedAt.Equal(second.Add(500*time.Millisecond)))
	assert.True(t, closings[1].CreatedAt.Equal(second))
}

func TestStore_HolidaysFeedCalendar(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	anniversary, err := s.SaveHoliday(ctx, calendar.Holiday{Date: calendar.Day(2026, time.January, 25), Name: "Aniversário de São Paulo", Recurring: true})
	require.NoError(t, err)
	assert.NotEmpty(t, anniversary.ID)

	again, err := s.SaveHoliday(ctx, calendar.Holiday{Date: calendar.Day(2026, time.January, 25), Name: "Aniversário de São Paulo", Recurring: true})
	require.NoError(t, err)
	assert.Equal(t, anniversary.ID, again.ID)

	_, err = s.SaveHoliday(ctx, calendar.Holiday{Date: calendar.Day(2026, time.March, 19), Name: "São José"})
	require.NoError(t, err)

	cal, err := s.Calendar(ctx)
	require.NoError(t, err)
	assert.True(t, cal.IsHoliday(calendar.Day(2027, time.January, 25)))
	assert.True(t, cal.IsHoliday(calendar.Day(2026, time.March, 19)))
	assert.False(t, cal.IsHoliday(calendar.Day(2027, time.March, 19)))

	// a holiday on a Thursday removes one business day
	days := calendar.CountBusinessAndRestDays(cal, time.March, 2026, 1)
	assert.Equal(t, 21, days.BusinessDays)
	assert.Equal(t, 6, days.RestDays)

	require.NoError(t, s.DeleteHoliday(ctx, anniversary.ID))
	list, err := s.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "São José", list[0].Name)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.SaveSettings(ctx, timecard.SettingsRecord{EmployeeID: "emp-1", ConfigJSON: `{}`}))
	require.NoError(t, s.Reset(ctx))

	_, err := s.GetSettings(ctx, "emp-1")
	assert.True(t, timecard.IsNotFound(err))
}
