package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timecard-engine/calendar"
	"github.com/warp/timecard-engine/timecard"
)

func TestDueCompetences(t *testing.T) {
	tests := []struct {
		name  string
		today time.Time
		cycle int
		want  []yearMonth
	}{
		{"calendar month, early April", calendar.Day(2026, 4, 2), 1, []yearMonth{{2026, time.March}}},
		{"last day of the month is not due yet", calendar.Day(2026, 3, 31), 1, []yearMonth{{2026, time.February}}},
		{"cycle 15 after the 15th", calendar.Day(2026, 4, 16), 15, []yearMonth{{2026, time.March}, {2026, time.April}}},
		{"cycle 15 on the 15th", calendar.Day(2026, 4, 15), 15, []yearMonth{{2026, time.March}}},
		{"January looks back to December", calendar.Day(2026, 1, 5), 1, []yearMonth{{2025, time.December}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dueCompetences(tt.today, tt.cycle))
		})
	}
}

func TestClosingScheduler_ClosesFinishedCompetences(t *testing.T) {
	h, srv := newMemoryAPI(t)
	seedEmployee(t, srv)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/api/employees/emp-2/settings",
		`{"base_salary": "3000.00", "cycle_start_day": 15}`).Code)

	h.Closings.Now = func() time.Time { return time.Date(2026, 4, 16, 3, 0, 0, 0, time.UTC) }
	scheduler := NewClosingScheduler(h.Closings, nil)

	// GIVEN emp-1 on calendar months and emp-2 on cycle 15
	// THEN March closes for both and April only for emp-2
	res := scheduler.RunNow(context.Background())
	assert.Equal(t, RunResult{Closed: 3}, res)

	closings, err := h.Store.ListClosings(context.Background(), "emp-2")
	require.NoError(t, err)
	assert.Len(t, closings, 2)

	// a second run finds everything closed
	res = scheduler.RunNow(context.Background())
	assert.Equal(t, RunResult{Skipped: 3}, res)
}

func TestClosingScheduler_PreviewDoesNotBlockClosing(t *testing.T) {
	h, srv := newMemoryAPI(t)
	seedEmployee(t, srv)
	ctx := context.Background()

	// GIVEN the March closing viewed mid-month
	h.Closings.Now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/employees/emp-1/closing/2026/3", nil).Code)

	// AND overtime punched after the preview
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/api/employees/emp-1/cards/2026/3/overtime",
		UpdateCardRequest{Days: []CardDayDTO{{Line: 20, Entry1: "18:00", Exit1: "22:00"}}}).Code)

	// WHEN the scheduler runs after the window ends
	h.Closings.Now = func() time.Time { return time.Date(2026, 4, 2, 3, 0, 0, 0, time.UTC) }
	res := NewClosingScheduler(h.Closings, nil).RunNow(ctx)

	// THEN March is closed with every punch
	assert.Equal(t, RunResult{Closed: 1}, res)
	closings, err := h.Store.ListClosings(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, closings, 1)
	assert.Equal(t, time.March, closings[0].Month)

	rec := do(t, srv, http.MethodGet, "/api/employees/emp-1/closings", nil)
	list := decodeAs[struct {
		Closings []ClosingDTO `json:"closings"`
	}](t, rec)
	require.Len(t, list.Closings, 1)
	assert.Equal(t, 360, list.Closings[0].Classification.Totals.Tier50)
}

func TestClosingScheduler_InvalidSettingsCountAsFailed(t *testing.T) {
	h, _ := newMemoryAPI(t)
	ctx := context.Background()
	require.NoError(t, h.Store.SaveSettings(ctx, timecard.SettingsRecord{EmployeeID: "emp-bad", ConfigJSON: `{"base_salary": "-5"}`}))

	res := NewClosingScheduler(h.Closings, nil).RunNow(ctx)
	assert.Equal(t, RunResult{Failed: 1}, res)
}

func TestClosingScheduler_StartStop(t *testing.T) {
	h, _ := newTestAPI(t)

	scheduler := NewClosingScheduler(h.Closings, nil)
	scheduler.CheckInterval = time.Hour
	scheduler.Start()
	scheduler.Start() // no second goroutine
	scheduler.Stop()
	scheduler.Stop()

	disabled := NewClosingScheduler(h.Closings, nil)
	disabled.Enabled = false
	disabled.Start()
	disabled.Stop()
}
