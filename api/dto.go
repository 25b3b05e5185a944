/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types in
  timecard, projection and payroll carry no JSON tags; these types are the
  external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

CONVENTIONS:
  - Dates are YYYY-MM-DD, timestamps RFC3339
  - Minutes are integers, money is a decimal string
  - Settings use factory.SettingsJSON as-is

VALIDATION:
  Validation is done in handlers and in the factory, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/settings.go: SettingsJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timecard-engine/calendar"
	"github.com/warp/timecard-engine/factory"
	"github.com/warp/timecard-engine/payroll"
	"github.com/warp/timecard-engine/projection"
	"github.com/warp/timecard-engine/timecard"
)

const dateLayout = "2006-01-02"

// =============================================================================
// CARDS
// =============================================================================

// CardDayDTO is one card line.
type CardDayDTO struct {
	Line             int    `json:"line"`
	Date             string `json:"date,omitempty"`
	Entry1           string `json:"entry1,omitempty"`
	Exit1            string `json:"exit1,omitempty"`
	Entry2           string `json:"entry2,omitempty"`
	Exit2            string `json:"exit2,omitempty"`
	Entry3           string `json:"entry3,omitempty"`
	Exit3            string `json:"exit3,omitempty"`
	ManualAnnotation bool   `json:"manual_annotation,omitempty"`
}

// CardDTO is a full 31-line card.
type CardDTO struct {
	EmployeeID    string       `json:"employee_id,omitempty"`
	Year          int          `json:"year"`
	Month         int          `json:"month"`
	Type          string       `json:"type"`
	CycleStartDay int          `json:"cycle_start_day"`
	Days          []CardDayDTO `json:"days"`
	UpdatedAt     string       `json:"updated_at,omitempty"`
}

// UpdateCardRequest merges lines into the stored card.
type UpdateCardRequest struct {
	// CycleStartDay only applies when no card is stored yet. Defaults to
	// the employee's settings.
	CycleStartDay *int         `json:"cycle_start_day,omitempty"`
	Days          []CardDayDTO `json:"days"`
}

// UpdateCardResponse reports how many lines were merged.
type UpdateCardResponse struct {
	Merged int     `json:"merged"`
	Card   CardDTO `json:"card"`
}

func toCardDayDTO(d timecard.CardDay) CardDayDTO {
	dto := CardDayDTO{
		Line:             d.Line,
		Entry1:           d.Entry1,
		Exit1:            d.Exit1,
		Entry2:           d.Entry2,
		Exit2:            d.Exit2,
		Entry3:           d.Entry3,
		Exit3:            d.Exit3,
		ManualAnnotation: d.ManualAnnotation,
	}
	if d.HasDate() {
		dto.Date = d.Date.Format(dateLayout)
	}
	return dto
}

func fromCardDayDTO(dto CardDayDTO) timecard.CardDay {
	return timecard.CardDay{
		Line:             dto.Line,
		Entry1:           dto.Entry1,
		Exit1:            dto.Exit1,
		Entry2:           dto.Entry2,
		Exit2:            dto.Exit2,
		Entry3:           dto.Entry3,
		Exit3:            dto.Exit3,
		ManualAnnotation: dto.ManualAnnotation,
	}
}

func toCardDTO(employeeID string, c timecard.Card, updatedAt time.Time) CardDTO {
	dto := CardDTO{
		EmployeeID:    employeeID,
		Year:          c.Year,
		Month:         int(c.Month),
		Type:          string(c.Type),
		CycleStartDay: c.CycleStartDay,
		Days:          make([]CardDayDTO, 0, len(c.Days)),
	}
	for _, d := range c.Days {
		dto.Days = append(dto.Days, toCardDayDTO(d))
	}
	if !updatedAt.IsZero() {
		dto.UpdatedAt = updatedAt.Format(time.RFC3339)
	}
	return dto
}

// buildCard creates a card for the competence and merges the given lines.
func buildCard(cardType timecard.CardType, month time.Month, year, cycleStartDay int, days []CardDayDTO) timecard.Card {
	card := timecard.NewCard(cardType, month, year, cycleStartDay)
	lines := make([]timecard.CardDay, 0, len(days))
	for _, d := range days {
		lines = append(lines, fromCardDayDTO(d))
	}
	card.Merge(lines)
	return card
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// BucketsDTO holds minutes per bucket.
type BucketsDTO struct {
	Tier50   int `json:"tier_50"`
	Tier75   int `json:"tier_75"`
	Tier100  int `json:"tier_100"`
	Tier125  int `json:"tier_125"`
	Banked   int `json:"banked"`
	Lateness int `json:"lateness"`
}

func toBucketsDTO(b timecard.Buckets) BucketsDTO {
	return BucketsDTO(b)
}

func (b BucketsDTO) buckets() timecard.Buckets {
	return timecard.Buckets(b)
}

// RatesDTO holds the hourly value of each tier.
type RatesDTO struct {
	Hourly  decimal.Decimal `json:"hourly"`
	Rate50  decimal.Decimal `json:"rate_50"`
	Rate75  decimal.Decimal `json:"rate_75"`
	Rate100 decimal.Decimal `json:"rate_100"`
	Rate125 decimal.Decimal `json:"rate_125"`
}

func toRatesDTO(r timecard.Rates) RatesDTO {
	return RatesDTO{
		Hourly:  r.Hourly.Round(6),
		Rate50:  r.Rate50.Round(6),
		Rate75:  r.Rate75.Round(6),
		Rate100: r.Rate100.Round(6),
		Rate125: r.Rate125.Round(6),
	}
}

// DayResultDTO is the classification of one line.
type DayResultDTO struct {
	Line     int        `json:"line"`
	Date     string     `json:"date"`
	Card     string     `json:"card"`
	WeekKey  string     `json:"week_key"`
	Worked   int        `json:"worked"`
	Expected int        `json:"expected"`
	Overtime int        `json:"overtime"`
	Buckets  BucketsDTO `json:"buckets"`
}

// WeekDTO is the classification of one custom week.
type WeekDTO struct {
	Key     string          `json:"key"`
	Start   string          `json:"start"`
	End     string          `json:"end"`
	Buckets BucketsDTO      `json:"buckets"`
	Value   decimal.Decimal `json:"value"`
}

// ClassificationDTO is the output of the classifier and aggregator.
type ClassificationDTO struct {
	Weeks      []WeekDTO       `json:"weeks"`
	Days       []DayResultDTO  `json:"days"`
	Totals     BucketsDTO      `json:"totals"`
	TotalValue decimal.Decimal `json:"total_value"`
	Rates      RatesDTO        `json:"rates"`
}

func toClassificationDTO(c *timecard.Classification) ClassificationDTO {
	dto := ClassificationDTO{
		Weeks:      make([]WeekDTO, 0, len(c.Weeks)),
		Days:       make([]DayResultDTO, 0, len(c.Days)),
		Totals:     toBucketsDTO(c.Totals),
		TotalValue: c.TotalValue,
		Rates:      toRatesDTO(c.Rates),
	}
	for _, w := range c.Weeks {
		dto.Weeks = append(dto.Weeks, WeekDTO{
			Key:     w.Key,
			Start:   w.Start.Format(dateLayout),
			End:     w.End.Format(dateLayout),
			Buckets: toBucketsDTO(w.Buckets),
			Value:   w.Value,
		})
	}
	for _, d := range c.Days {
		dto.Days = append(dto.Days, DayResultDTO{
			Line:     d.Line,
			Date:     d.Date.Format(dateLayout),
			Card:     string(d.Card),
			WeekKey:  d.WeekKey,
			Worked:   d.Worked,
			Expected: d.Expected,
			Overtime: d.Overtime,
			Buckets:  toBucketsDTO(d.Buckets),
		})
	}
	return dto
}

// ClassifyRequest classifies cards sent inline.
type ClassifyRequest struct {
	Settings factory.SettingsJSON `json:"settings"`
	Year     int                  `json:"year"`
	Month    int                  `json:"month"`
	Normal   []CardDayDTO         `json:"normal"`
	Overtime []CardDayDTO         `json:"overtime"`
}

// =============================================================================
// PROJECTION
// =============================================================================

// AggregatesDTO holds payslip totals in minutes.
type AggregatesDTO struct {
	Tier50   int `json:"tier_50"`
	Tier75   int `json:"tier_75"`
	Tier100  int `json:"tier_100"`
	Tier125  int `json:"tier_125"`
	Lateness int `json:"lateness"`
}

func (a AggregatesDTO) aggregates() projection.Aggregates {
	return projection.Aggregates(a)
}

func toAggregatesDTO(a projection.Aggregates) AggregatesDTO {
	return AggregatesDTO(a)
}

// ProjectRequest synthesizes cards from payslip totals.
type ProjectRequest struct {
	Settings   factory.SettingsJSON `json:"settings"`
	Year       int                  `json:"year"`
	Month      int                  `json:"month"`
	Aggregates AggregatesDTO        `json:"aggregates"`
}

// ProjectResponse is the synthesized pair of cards.
type ProjectResponse struct {
	Normal         CardDTO           `json:"normal"`
	Overtime       CardDTO           `json:"overtime"`
	Requested      AggregatesDTO     `json:"requested"`
	Applied        AggregatesDTO     `json:"applied"`
	Shortfall      AggregatesDTO     `json:"shortfall"`
	Classification ClassificationDTO `json:"classification"`
	Warnings       []string          `json:"warnings"`
}

func toProjectResponse(r *projection.Result) ProjectResponse {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return ProjectResponse{
		Normal:         toCardDTO("", r.Normal, time.Time{}),
		Overtime:       toCardDTO("", r.Overtime, time.Time{}),
		Requested:      toAggregatesDTO(r.Requested),
		Applied:        toAggregatesDTO(r.Applied),
		Shortfall:      toAggregatesDTO(r.Shortfall),
		Classification: toClassificationDTO(r.Classification),
		Warnings:       warnings,
	}
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// AdvanceDTO is an advance payment already made in the month.
type AdvanceDTO struct {
	Gross      decimal.Decimal `json:"gross"`
	WithheldIR decimal.Decimal `json:"withheld_ir"`
}

func (a *AdvanceDTO) advance() *payroll.Advance {
	if a == nil {
		return nil
	}
	return &payroll.Advance{Gross: a.Gross, WithheldIR: a.WithheldIR}
}

// SettleRequest settles classified totals sent inline.
type SettleRequest struct {
	Settings factory.SettingsJSON `json:"settings"`
	Year     int                  `json:"year"`
	Month    int                  `json:"month"`
	Totals   BucketsDTO           `json:"totals"`
	Advance  *AdvanceDTO          `json:"advance,omitempty"`
}

// ItemDTO is one settlement report line.
type ItemDTO struct {
	Code   string          `json:"code"`
	Label  string          `json:"label"`
	Kind   string          `json:"kind"`
	Hours  decimal.Decimal `json:"hours"`
	Amount decimal.Decimal `json:"amount"`
}

// SettlementDTO is the monthly settlement. Amounts are rounded to cents;
// Residual is the rounding difference between NetRounded and the items.
type SettlementDTO struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	WindowStart   string          `json:"window_start"`
	WindowEnd     string          `json:"window_end"`
	BusinessDays  int             `json:"business_days"`
	RestDays      int             `json:"rest_days"`
	Rates         RatesDTO        `json:"rates"`
	Totals        BucketsDTO      `json:"totals"`
	BaseSalary    decimal.Decimal `json:"base_salary"`
	OvertimeValue decimal.Decimal `json:"overtime_value"`
	OvertimeDSR   decimal.Decimal `json:"overtime_dsr"`
	LatenessValue decimal.Decimal `json:"lateness_value"`
	LatenessDSR   decimal.Decimal `json:"lateness_dsr"`
	Gross         decimal.Decimal `json:"gross"`
	INSS          decimal.Decimal `json:"inss"`
	IRBase        decimal.Decimal `json:"ir_base"`
	IRTraditional decimal.Decimal `json:"ir_traditional"`
	IRReducer     decimal.Decimal `json:"ir_reducer"`
	IRTotal       decimal.Decimal `json:"ir_total"`
	AdvanceGross  decimal.Decimal `json:"advance_gross"`
	AdvanceIR     decimal.Decimal `json:"advance_ir"`
	AdvanceNet    decimal.Decimal `json:"advance_net"`
	ClosingIR     decimal.Decimal `json:"closing_ir"`
	Deductions    decimal.Decimal `json:"deductions"`
	Net           decimal.Decimal `json:"net"`
	Residual      decimal.Decimal `json:"residual"`
	TotalReceived decimal.Decimal `json:"total_received"`
	Items         []ItemDTO       `json:"items"`
}

func toSettlementDTO(st *payroll.Settlement) SettlementDTO {
	cents := func(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
	dto := SettlementDTO{
		Year:          st.Year,
		Month:         int(st.Month),
		WindowStart:   st.Window.Start.Format(dateLayout),
		WindowEnd:     st.Window.End.Format(dateLayout),
		BusinessDays:  st.Days.BusinessDays,
		RestDays:      st.Days.RestDays,
		Rates:         toRatesDTO(st.Rates),
		Totals:        toBucketsDTO(st.Totals),
		BaseSalary:    cents(st.BaseSalary),
		OvertimeValue: cents(st.OvertimeValue),
		OvertimeDSR:   cents(st.OvertimeDSR),
		LatenessValue: cents(st.LatenessValue),
		LatenessDSR:   cents(st.LatenessDSR),
		Gross:         cents(st.Gross),
		INSS:          cents(st.INSS),
		IRBase:        cents(st.IRBase),
		IRTraditional: cents(st.IRTraditional),
		IRReducer:     cents(st.IRReducer),
		IRTotal:       cents(st.IRTotal),
		AdvanceGross:  cents(st.AdvanceGross),
		AdvanceIR:     cents(st.AdvanceIR),
		AdvanceNet:    cents(st.AdvanceNet),
		ClosingIR:     cents(st.ClosingIR),
		Deductions:    cents(st.Deductions),
		Net:           st.NetRounded,
		Residual:      st.Residual,
		TotalReceived: st.TotalReceived,
		Items:         make([]ItemDTO, 0, len(st.Items)),
	}
	for _, it := range st.Items {
		dto.Items = append(dto.Items, ItemDTO{
			Code:   it.Code,
			Label:  it.Label,
			Kind:   string(it.Kind),
			Hours:  it.Hours,
			Amount: it.Amount,
		})
	}
	return dto
}

// ClosingDTO is a persisted closing: classification plus settlement.
type ClosingDTO struct {
	ID             string            `json:"id"`
	EmployeeID     string            `json:"employee_id"`
	Year           int               `json:"year"`
	Month          int               `json:"month"`
	SettingsJSON   string            `json:"settings_json,omitempty"`
	Classification ClassificationDTO `json:"classification"`
	Settlement     SettlementDTO     `json:"settlement"`
	CreatedAt      string            `json:"created_at"`
}

// =============================================================================
// CALENDAR
// =============================================================================

// HolidayDTO is a holiday, national or extra.
type HolidayDTO struct {
	ID        string `json:"id,omitempty"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
	National  bool   `json:"national"`
}

// CreateHolidayRequest registers an extra holiday.
type CreateHolidayRequest struct {
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

func toHolidayDTO(h calendar.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		Date:      h.Date.Format(dateLayout),
		Name:      h.Name,
		Recurring: h.Recurring,
		National:  h.National,
	}
}

// CalendarDTO describes a competence window.
type CalendarDTO struct {
	Year          int          `json:"year"`
	Month         int          `json:"month"`
	CycleStartDay int          `json:"cycle_start_day"`
	WindowStart   string       `json:"window_start"`
	WindowEnd     string       `json:"window_end"`
	BusinessDays  int          `json:"business_days"`
	RestDays      int          `json:"rest_days"`
	Holidays      []HolidayDTO `json:"holidays"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
