/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario stores an employee's settings
	and the normal and overtime cards of March 2026.

AVAILABLE SCENARIOS:

	standard-month:     Regular journey, a few overtime evenings, one late arrival
	sunday-night:       Sunday work, a shift across midnight, weekly cap exceeded
	payslip-projection: Cards synthesized from payslip totals
	cycle-15:           Competence window Feb 16 - Mar 15 (Carnival inside)

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Store the default preset (Saturday compensated Mon-Thu) via the factory
 3. Build the 31-line cards
 4. Save both cards

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "standard-month"}

	GET /api/employees/emp-ana/closing/2026/3

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
  - factory/settings.go: DefaultSettingsJSON
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/timecard-engine/calendar"
	"github.com/warp/timecard-engine/factory"
	"github.com/warp/timecard-engine/projection"
	"github.com/warp/timecard-engine/timecard"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

const (
	scenarioYear  = 2026
	scenarioMonth = time.March
)

var scenarios = []ScenarioDTO{
	{
		ID:          "standard-month",
		Name:        "Standard Month",
		Description: "8h journey, overtime evenings at 50% and 75%, one late arrival and one excused absence",
		Category:    "classification",
	},
	{
		ID:          "sunday-night",
		Name:        "Sunday and Night Work",
		Description: "Sunday shifts at 100%/125%, a shift across midnight and a week past the 10h cap",
		Category:    "classification",
	},
	{
		ID:          "payslip-projection",
		Name:        "Payslip Projection",
		Description: "Cards synthesized from payslip totals (50/75/100/125 and lateness)",
		Category:    "projection",
	},
	{
		ID:          "cycle-15",
		Name:        "Cycle Starting on the 15th",
		Description: "Competence window Feb 16 - Mar 15 with Carnival inside",
		Category:    "classification",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current, Description: "Currently loaded scenario"})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	if !h.AllowReset {
		writeError(w, http.StatusForbidden, "Scenarios are disabled", nil)
		return
	}

	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "standard-month":
		load = h.loadStandardMonthScenario
	case "sunday-night":
		load = h.loadSundayNightScenario
	case "payslip-projection":
		load = h.loadPayslipProjectionScenario
	case "cycle-15":
		load = h.loadCycle15Scenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		h.writeDomainError(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		h.writeDomainError(w, r, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadStandardMonthScenario(ctx context.Context) error {
	const emp = "emp-ana"
	s, err := h.saveScenarioSettings(ctx, emp, "3000.00", func(sj *factory.SettingsJSON) {
		sj.Dependents = 1
	})
	if err != nil {
		return err
	}

	normal := timecard.NewCard(timecard.CardNormal, scenarioMonth, scenarioYear, s.CycleStartDay)
	fillRegularJourney(&normal, s)

	// late arrival on Thursday the 12th, excused absence on the 19th
	normal.Line(12).Entry1 = "08:45"
	normal.Line(19).ClearPunches()
	normal.Line(19).ManualAnnotation = true

	overtime := timecard.NewCard(timecard.CardOvertime, scenarioMonth, scenarioYear, s.CycleStartDay)
	overtime.Line(3).SetPair(0, "18:00", "20:00")
	overtime.Line(10).SetPair(0, "18:00", "22:30")
	overtime.Line(27).SetPair(0, "17:00", "18:30")

	return h.saveScenarioCards(ctx, emp, normal, overtime)
}

func (h *Handler) loadSundayNightScenario(ctx context.Context) error {
	const emp = "emp-bruno"
	s, err := h.saveScenarioSettings(ctx, emp, "2500.00", nil)
	if err != nil {
		return err
	}

	normal := timecard.NewCard(timecard.CardNormal, scenarioMonth, scenarioYear, s.CycleStartDay)
	fillRegularJourney(&normal, s)

	overtime := timecard.NewCard(timecard.CardOvertime, scenarioMonth, scenarioYear, s.CycleStartDay)
	overtime.Line(8).SetPair(0, "08:00", "14:00")  // Sunday
	overtime.Line(15).SetPair(0, "20:00", "02:00") // Sunday into Monday
	for line := 9; line <= 12; line++ {
		overtime.Line(line).SetPair(0, "18:00", "22:00") // 16h in one week
	}
	overtime.Line(13).SetPair(0, "17:00", "23:00")

	return h.saveScenarioCards(ctx, emp, normal, overtime)
}

func (h *Handler) loadPayslipProjectionScenario(ctx context.Context) error {
	const emp = "emp-carla"
	s, err := h.saveScenarioSettings(ctx, emp, "4200.00", func(sj *factory.SettingsJSON) {
		sj.Dependents = 2
	})
	if err != nil {
		return err
	}
	extra, err := h.Store.ListHolidays(ctx)
	if err != nil {
		return err
	}

	res, err := projection.NewAllocator(calendar.NewNational(extra...)).Project(projection.Input{
		Aggregates: projection.Aggregates{Tier50: 600, Tier75: 90, Tier100: 240, Tier125: 60, Lateness: 45},
		Month:      scenarioMonth,
		Year:       scenarioYear,
		Settings:   s,
	})
	if err != nil {
		return err
	}
	for _, warning := range res.Warnings {
		h.Logger.InfoContext(ctx, "projection warning", "scenario", "payslip-projection", "warning", warning)
	}
	return h.saveScenarioCards(ctx, emp, res.Normal, res.Overtime)
}

func (h *Handler) loadCycle15Scenario(ctx context.Context) error {
	const emp = "emp-diego"
	s, err := h.saveScenarioSettings(ctx, emp, "3500.00", func(sj *factory.SettingsJSON) {
		cycle := 15
		sj.CycleStartDay = &cycle
	})
	if err != nil {
		return err
	}

	normal := timecard.NewCard(timecard.CardNormal, scenarioMonth, scenarioYear, s.CycleStartDay)
	fillRegularJourney(&normal, s)

	overtime := timecard.NewCard(timecard.CardOvertime, scenarioMonth, scenarioYear, s.CycleStartDay)
	overtime.Line(21).SetPair(0, "08:00", "12:00") // Saturday Feb 21
	overtime.Line(4).SetPair(0, "18:00", "20:00")  // Wednesday Mar 4

	return h.saveScenarioCards(ctx, emp, normal, overtime)
}

// =============================================================================
// HELPERS
// =============================================================================

// saveScenarioSettings stores the default preset with the given base salary,
// adjusted by tweak.
func (h *Handler) saveScenarioSettings(ctx context.Context, employeeID, baseSalary string, tweak func(*factory.SettingsJSON)) (*timecard.Settings, error) {
	var sj factory.SettingsJSON
	if err := json.Unmarshal([]byte(factory.DefaultSettingsJSON(baseSalary)), &sj); err != nil {
		return nil, err
	}
	if tweak != nil {
		tweak(&sj)
	}
	s, err := h.SettingsFactory.FromJSON(sj)
	if err != nil {
		return nil, err
	}
	normalized, err := h.SettingsFactory.Marshal(s)
	if err != nil {
		return nil, err
	}
	if err := h.Store.SaveSettings(ctx, timecard.SettingsRecord{EmployeeID: employeeID, ConfigJSON: normalized}); err != nil {
		return nil, err
	}
	return s, nil
}

func (h *Handler) saveScenarioCards(ctx context.Context, employeeID string, cards ...timecard.Card) error {
	for _, c := range cards {
		key := timecard.CardKey{EmployeeID: employeeID, Year: c.Year, Month: c.Month, Type: c.Type}
		if err := h.Store.SaveCard(ctx, timecard.CardRecord{Key: key, Card: c}); err != nil {
			return err
		}
	}
	return nil
}

// fillRegularJourney punches the expected journey on every dated Monday to
// Friday line: lunch from the settings, one extra hour on compensation days.
func fillRegularJourney(card *timecard.Card, s *timecard.Settings) {
	start := timecard.MinutesOfDay(s.JourneyStart)
	lunchStart := timecard.MinutesOfDay(s.LunchStart)
	lunchEnd := timecard.MinutesOfDay(s.LunchEnd)
	for i := range card.Days {
		d := &card.Days[i]
		if !d.HasDate() {
			continue
		}
		if wd := d.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		expected := timecard.ExpectedMinutes(timecard.JourneyRuleFor(*d, s))
		end := lunchEnd + expected - (lunchStart - start)
		d.SetPair(0, s.JourneyStart, s.LunchStart)
		d.SetPair(1, s.LunchEnd, timecard.FormatClock(end))
	}
}
