/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:

	Tests that each scenario correctly sets up the expected state:
	- Settings are stored and valid
	- Both cards are stored for March 2026
	- The classified totals match the punches of the scenario

These tests ensure scenarios work correctly and can be used as integration tests.
*/
package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timecard-engine/timecard"
)

func loadScenario(t *testing.T, srv http.Handler, id string) {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func dryRun(t *testing.T, h *Handler, employeeID string) *Closing {
	t.Helper()
	c, err := h.Closings.Close(context.Background(), ClosingRequest{
		EmployeeID: employeeID,
		Year:       2026,
		Month:      time.March,
		DryRun:     true,
	})
	require.NoError(t, err)
	return c
}

func TestScenario_ListAndCurrent(t *testing.T) {
	_, srv := newTestAPI(t)

	rec := do(t, srv, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeAs[[]ScenarioDTO](t, rec)
	require.Len(t, list, 4)
	assert.Equal(t, "standard-month", list[0].ID)

	rec = do(t, srv, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "null\n", rec.Body.String())

	loadScenario(t, srv, "sunday-night")
	rec = do(t, srv, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "sunday-night", decodeAs[ScenarioDTO](t, rec).ID)

	// a reset clears the current scenario
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/reset", nil).Code)
	rec = do(t, srv, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "null\n", rec.Body.String())
}

func TestScenario_UnknownAndDisabled(t *testing.T) {
	h, srv := newTestAPI(t)

	rec := do(t, srv, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.AllowReset = false
	rec = do(t, srv, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "standard-month"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestScenario_StandardMonth(t *testing.T) {
	// GIVEN: Regular journey, 45 minutes late on the 12th, excused on the 19th
	// WHEN: Loading the scenario and closing March
	// THEN: Only the overtime card produces tiers, lateness is the late arrival
	h, srv := newTestAPI(t)
	loadScenario(t, srv, "standard-month")

	c := dryRun(t, h, "emp-ana")
	totals := c.Classification.Totals
	assert.Equal(t, 450, totals.Tier50)
	assert.Equal(t, 30, totals.Tier75)
	assert.Equal(t, 0, totals.Tier100)
	assert.Equal(t, 45, totals.Lateness)
	assert.Equal(t, 0, totals.Banked)
	assert.Equal(t, 1, c.Settings.Dependents)
	assert.True(t, c.Settlement.Gross.GreaterThan(c.Settings.BaseSalary))
}

func TestScenario_SundayNight(t *testing.T) {
	h, srv := newTestAPI(t)
	loadScenario(t, srv, "sunday-night")

	totals := dryRun(t, h, "emp-bruno").Classification.Totals

	// weekly cap of 10 h at 50 %, the week's remainder at 100/125
	assert.Equal(t, 600, totals.Tier50)
	assert.Equal(t, 0, totals.Tier75)
	assert.Equal(t, 1140, totals.Tier100)
	assert.Equal(t, 300, totals.Tier125)
}

func TestScenario_PayslipProjection(t *testing.T) {
	h, srv := newTestAPI(t)
	loadScenario(t, srv, "payslip-projection")

	for _, typ := range []timecard.CardType{timecard.CardNormal, timecard.CardOvertime} {
		_, err := h.Store.GetCard(context.Background(), timecard.CardKey{
			EmployeeID: "emp-carla", Year: 2026, Month: time.March, Type: typ,
		})
		require.NoError(t, err, typ)
	}

	totals := dryRun(t, h, "emp-carla").Classification.Totals
	assert.Positive(t, totals.Tier50)
	assert.Positive(t, totals.Tier100)
}

func TestScenario_Cycle15(t *testing.T) {
	h, srv := newTestAPI(t)
	loadScenario(t, srv, "cycle-15")

	rec, err := h.Store.GetCard(context.Background(), timecard.CardKey{
		EmployeeID: "emp-diego", Year: 2026, Month: time.March, Type: timecard.CardNormal,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, rec.Card.CycleStartDay)
	assert.Equal(t, time.February, rec.Card.Line(16).Date.Month())
	assert.True(t, rec.Card.Line(16).HasPunches(), "Carnival Monday was worked")
	assert.False(t, rec.Card.Line(30).HasDate(), "there is no February 30")

	c := dryRun(t, h, "emp-diego")
	assert.Equal(t, 360, c.Classification.Totals.Tier50)
	assert.Equal(t, 0, c.Classification.Totals.Lateness)
	assert.Equal(t, "2026-02-16", c.Settlement.Window.Start.Format("2006-01-02"))
}

func TestScenario_LoadReplacesPreviousData(t *testing.T) {
	h, srv := newTestAPI(t)
	loadScenario(t, srv, "standard-month")
	loadScenario(t, srv, "sunday-night")

	records, err := h.Store.ListSettings(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "emp-bruno", records[0].EmployeeID)
}
