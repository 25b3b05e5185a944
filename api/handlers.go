/*
handlers.go - HTTP API handlers for the time-card engine

PURPOSE:
  Exposes classification, projection and settlement via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  Settings:
    GET    /api/employees/{id}/settings                   Stored settings
    PUT    /api/employees/{id}/settings                   Validate and store

  Cards:
    GET    /api/employees/{id}/cards                      All stored cards
    GET    /api/employees/{id}/cards/{year}/{month}/{type}
    PUT    /api/employees/{id}/cards/{year}/{month}/{type} Merge lines
    GET    /api/employees/{id}/cards/{year}/{month}/export xlsx workbook

  Closing:
    GET    /api/employees/{id}/closing/{year}/{month}     Preview, never stored (?format=pdf)
    POST   /api/employees/{id}/closing/{year}/{month}     Close and store the snapshot
    GET    /api/employees/{id}/closings                   Stored snapshots

  Stateless:
    POST   /api/classify     Classify inline cards
    POST   /api/project      Synthesize cards from payslip totals
    POST   /api/settle       Settle inline totals

  Calendar:
    GET    /api/holidays?year=  National + extra holidays of a year
    POST   /api/holidays        Register an extra holiday
    DELETE /api/holidays/{hid}
    GET    /api/calendar/{year}/{month}?cycle_start_day=

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid settings, competence, card type or negative totals
  - 404: Missing card or settings
  - 500: Internal errors (logged)

SEE ALSO:
  - dto.go: Request/response data structures
  - closing.go: Closing service
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v3"
	"github.com/shopspring/decimal"
	"github.com/warp/timecard-engine/calendar"
	"github.com/warp/timecard-engine/factory"
	"github.com/warp/timecard-engine/payroll"
	"github.com/warp/timecard-engine/projection"
	"github.com/warp/timecard-engine/report"
	"github.com/warp/timecard-engine/timecard"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store           Store
	SettingsFactory *factory.SettingsFactory
	Closings        *ClosingService
	Logger          *slog.Logger

	// AllowReset enables POST /api/reset and scenario loading.
	AllowReset bool

	// MaxBodyBytes limits request bodies; 0 means 1 MiB.
	MaxBodyBytes int64

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store, settings *factory.SettingsFactory, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Handler{
		Store:           store,
		SettingsFactory: settings,
		Closings:        NewClosingService(store, settings),
		Logger:          logger,
		AllowReset:      true,
	}
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the stored settings with defaults applied.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.Store.GetSettings(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get settings", err)
		return
	}
	s, err := h.SettingsFactory.ParseSettings(rec.ConfigJSON)
	if err != nil {
		h.writeDomainError(w, r, "Stored settings are invalid", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"employee_id": id,
		"settings":    h.SettingsFactory.ToJSON(s),
		"updated_at":  formatTime(rec.UpdatedAt),
	})
}

// PutSettings validates and stores an employee's settings.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req factory.SettingsJSON
	if !h.decode(w, r, &req) {
		return
	}
	s, err := h.SettingsFactory.FromJSON(req)
	if err != nil {
		h.writeDomainError(w, r, "Invalid settings", err)
		return
	}
	configJSON, err := h.SettingsFactory.Marshal(s)
	if err != nil {
		h.writeDomainError(w, r, "Failed to encode settings", err)
		return
	}
	if err := h.Store.SaveSettings(r.Context(), timecard.SettingsRecord{EmployeeID: id, ConfigJSON: configJSON}); err != nil {
		h.writeDomainError(w, r, "Failed to save settings", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"employee_id": id,
		"settings":    h.SettingsFactory.ToJSON(s),
	})
}

// =============================================================================
// CARD HANDLERS
// =============================================================================

// ListCards returns every stored card of an employee, newest first.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	recs, err := h.Store.ListCards(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to list cards", err)
		return
	}
	dtos := make([]CardDTO, 0, len(recs))
	for _, rec := range recs {
		dtos = append(dtos, toCardDTO(id, rec.Card, rec.UpdatedAt))
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": dtos})
}

// GetCard returns one stored card.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	key, err := cardKey(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid card", err)
		return
	}

	rec, err := h.Store.GetCard(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get card", err)
		return
	}
	writeJSON(w, http.StatusOK, toCardDTO(key.EmployeeID, rec.Card, rec.UpdatedAt))
}

// PutCard merges the sent lines into the stored card and saves all 31 lines.
// A card that does not exist yet is created for the competence.
func (h *Handler) PutCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, err := cardKey(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid card", err)
		return
	}

	var req UpdateCardRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.Store.GetCard(ctx, key)
	switch {
	case errors.Is(err, timecard.ErrCardNotFound):
		cycle, err := h.cycleStartDay(r, req.CycleStartDay, key.EmployeeID)
		if err != nil {
			h.writeDomainError(w, r, "Failed to resolve cycle start day", err)
			return
		}
		rec = &timecard.CardRecord{Key: key, Card: timecard.NewCard(key.Type, key.Month, key.Year, cycle)}
	case err != nil:
		h.writeDomainError(w, r, "Failed to get card", err)
		return
	}

	lines := make([]timecard.CardDay, 0, len(req.Days))
	for _, d := range req.Days {
		lines = append(lines, fromCardDayDTO(d))
	}
	merged := rec.Card.Merge(lines)

	if err := h.Store.SaveCard(ctx, *rec); err != nil {
		h.writeDomainError(w, r, "Failed to save card", err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateCardResponse{
		Merged: merged,
		Card:   toCardDTO(key.EmployeeID, rec.Card, time.Now()),
	})
}

// cycleStartDay picks the explicit value, then the employee's settings, then
// the factory default.
func (h *Handler) cycleStartDay(r *http.Request, explicit *int, employeeID string) (int, error) {
	if explicit != nil {
		if *explicit < 0 || *explicit > 31 {
			return 0, &factory.ValidationError{Field: "cycle_start_day", Reason: "must be between 0 and 31"}
		}
		return *explicit, nil
	}
	rec, err := h.Store.GetSettings(r.Context(), employeeID)
	if errors.Is(err, timecard.ErrSettingsNotFound) {
		return h.SettingsFactory.DefaultCycleStartDay, nil
	}
	if err != nil {
		return 0, err
	}
	s, err := h.SettingsFactory.ParseSettings(rec.ConfigJSON)
	if err != nil {
		return 0, err
	}
	return s.CycleStartDay, nil
}

// ExportCards writes both cards of a competence as an xlsx workbook.
func (h *Handler) ExportCards(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	year, month, err := competence(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid competence", err)
		return
	}

	closing, err := h.Closings.Close(r.Context(), ClosingRequest{EmployeeID: id, Year: year, Month: month, DryRun: true})
	if err != nil {
		h.writeDomainError(w, r, "Failed to classify cards", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="cartao-%s-%04d-%02d.xlsx"`, id, year, int(month)))
	err = report.CardWorkbook(w, report.Cards{Normal: &closing.Normal, Overtime: &closing.Overtime}, closing.Settings)
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "failed to write workbook", slog.String("employee_id", id), slog.Any("error", err))
	}
}

// =============================================================================
// CLOSING HANDLERS
// =============================================================================

// GetClosing previews the monthly closing without storing it.
// Query: format=pdf, advance_gross, advance_ir.
func (h *Handler) GetClosing(w http.ResponseWriter, r *http.Request) {
	h.runClosing(w, r, true)
}

// PostClosing closes the competence and stores the snapshot. A stored
// snapshot marks the competence as done for the closing scheduler.
func (h *Handler) PostClosing(w http.ResponseWriter, r *http.Request) {
	h.runClosing(w, r, false)
}

func (h *Handler) runClosing(w http.ResponseWriter, r *http.Request, dryRun bool) {
	id := chi.URLParam(r, "id")
	year, month, err := competence(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid competence", err)
		return
	}
	advance, err := advanceFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid advance", err)
		return
	}

	httplog.SetAttrs(r.Context(), slog.String("employee_id", id))
	closing, err := h.Closings.Close(r.Context(), ClosingRequest{
		EmployeeID: id,
		Year:       year,
		Month:      month,
		Advance:    advance,
		DryRun:     dryRun,
	})
	if err != nil {
		h.writeDomainError(w, r, "Failed to close competence", err)
		return
	}

	if r.URL.Query().Get("format") == "pdf" {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="fechamento-%s-%04d-%02d.pdf"`, id, year, int(month)))
		header := report.Header{EmployeeID: id, GeneratedAt: closing.CreatedAt}
		if err := report.SettlementPDF(w, header, closing.Settlement); err != nil {
			h.Logger.ErrorContext(r.Context(), "failed to write settlement pdf", slog.String("employee_id", id), slog.Any("error", err))
		}
		return
	}
	status := http.StatusCreated
	if dryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, closing.DTO())
}

// ListClosings returns the stored snapshots of an employee, newest first.
func (h *Handler) ListClosings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	recs, err := h.Store.ListClosings(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to list closings", err)
		return
	}
	dtos := make([]ClosingDTO, 0, len(recs))
	for _, rec := range recs {
		var dto ClosingDTO
		if err := json.Unmarshal([]byte(rec.ResultJSON), &dto); err != nil {
			h.Logger.WarnContext(r.Context(), "skipping unreadable closing", slog.String("closing_id", rec.ID), slog.Any("error", err))
			continue
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, map[string]any{"closings": dtos})
}

func advanceFromQuery(r *http.Request) (*payroll.Advance, error) {
	q := r.URL.Query()
	gross, ir := q.Get("advance_gross"), q.Get("advance_ir")
	if gross == "" && ir == "" {
		return nil, nil
	}
	a := &payroll.Advance{}
	var err error
	if gross != "" {
		if a.Gross, err = decimal.NewFromString(gross); err != nil {
			return nil, fmt.Errorf("advance_gross: %w", err)
		}
	}
	if ir != "" {
		if a.WithheldIR, err = decimal.NewFromString(ir); err != nil {
			return nil, fmt.Errorf("advance_ir: %w", err)
		}
	}
	return a, nil
}

// =============================================================================
// STATELESS ENGINE HANDLERS
// =============================================================================

// Classify classifies the cards in the request body.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, month, err := h.settingsAndMonth(req.Settings, req.Month, req.Year)
	if err != nil {
		h.writeDomainError(w, r, "Invalid request", err)
		return
	}

	normal := buildCard(timecard.CardNormal, month, req.Year, s.CycleStartDay, req.Normal)
	overtime := buildCard(timecard.CardOvertime, month, req.Year, s.CycleStartDay, req.Overtime)
	cls, err := timecard.Classify(append(normal.Entries(), overtime.Entries()...), s)
	if err != nil {
		h.writeDomainError(w, r, "Failed to classify", err)
		return
	}
	writeJSON(w, http.StatusOK, toClassificationDTO(cls))
}

// Project synthesizes a normal and an overtime card from payslip totals.
func (h *Handler) Project(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, month, err := h.settingsAndMonth(req.Settings, req.Month, req.Year)
	if err != nil {
		h.writeDomainError(w, r, "Invalid request", err)
		return
	}
	cal, err := h.calendar(r)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load holidays", err)
		return
	}

	res, err := projection.NewAllocator(cal).Project(projection.Input{
		Aggregates: req.Aggregates.aggregates(),
		Month:      month,
		Year:       req.Year,
		Settings:   s,
	})
	if err != nil {
		h.writeDomainError(w, r, "Failed to project", err)
		return
	}
	if len(res.Warnings) > 0 {
		h.Logger.InfoContext(r.Context(), "projection finished with warnings", slog.Int("warnings", len(res.Warnings)))
	}
	writeJSON(w, http.StatusOK, toProjectResponse(res))
}

// Settle computes the settlement of the totals in the request body.
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	var req SettleRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, month, err := h.settingsAndMonth(req.Settings, req.Month, req.Year)
	if err != nil {
		h.writeDomainError(w, r, "Invalid request", err)
		return
	}
	cal, err := h.calendar(r)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load holidays", err)
		return
	}

	st, err := payroll.Settle(payroll.Params{
		Settings: s,
		Month:    month,
		Year:     req.Year,
		Totals:   req.Totals.buckets(),
		Advance:  req.Advance.advance(),
		Calendar: cal,
	})
	if err != nil {
		h.writeDomainError(w, r, "Failed to settle", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(st))
}

func (h *Handler) settingsAndMonth(sj factory.SettingsJSON, month, year int) (*timecard.Settings, time.Month, error) {
	if month < 1 || month > 12 || year < 1900 {
		return nil, 0, fmt.Errorf("%w: %d/%d", timecard.ErrInvalidCompetence, month, year)
	}
	s, err := h.SettingsFactory.FromJSON(sj)
	if err != nil {
		return nil, 0, err
	}
	return s, time.Month(month), nil
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ListHolidays returns the extra holidays, or every holiday of ?year=.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	yearParam := r.URL.Query().Get("year")
	if yearParam == "" {
		extra, err := h.Store.ListHolidays(r.Context())
		if err != nil {
			h.writeDomainError(w, r, "Failed to list holidays", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"holidays": toHolidayDTOs(extra)})
		return
	}

	year, err := strconv.Atoi(yearParam)
	if err != nil || year < 1900 {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	cal, err := h.calendar(r)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "holidays": toHolidayDTOs(cal.Holidays(year))})
}

// CreateHoliday registers an extra holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Date == "" || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Date and name are required", nil)
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	saved, err := h.Store.SaveHoliday(r.Context(), calendar.Holiday{
		Date:      date,
		Name:      strings.TrimSpace(req.Name),
		Recurring: req.Recurring,
	})
	if err != nil {
		h.writeDomainError(w, r, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(saved))
}

// DeleteHoliday deletes an extra holiday.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "hid")); err != nil {
		h.writeDomainError(w, r, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// GetCalendar returns the competence window, its day counts and the
// holidays inside it.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, err := competence(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid competence", err)
		return
	}
	cycle := h.SettingsFactory.DefaultCycleStartDay
	if v := r.URL.Query().Get("cycle_start_day"); v != "" {
		cycle, err = strconv.Atoi(v)
		if err != nil || cycle < 0 || cycle > 31 {
			writeError(w, http.StatusBadRequest, "Invalid cycle_start_day", err)
			return
		}
	}
	cal, err := h.calendar(r)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load holidays", err)
		return
	}

	window := calendar.CompetenceWindow(month, year, cycle)
	days := calendar.CountBusinessAndRestDays(cal, month, year, cycle)

	var inside []calendar.Holiday
	for y := window.Start.Year(); y <= window.End.Year(); y++ {
		for _, hol := range cal.Holidays(y) {
			if window.Contains(hol.Date) {
				inside = append(inside, hol)
			}
		}
	}

	writeJSON(w, http.StatusOK, CalendarDTO{
		Year:          year,
		Month:         int(month),
		CycleStartDay: cycle,
		WindowStart:   window.Start.Format(dateLayout),
		WindowEnd:     window.End.Format(dateLayout),
		BusinessDays:  days.BusinessDays,
		RestDays:      days.RestDays,
		Holidays:      toHolidayDTOs(inside),
	})
}

// calendar returns the national calendar extended with the stored holidays.
func (h *Handler) calendar(r *http.Request) (*calendar.National, error) {
	extra, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		return nil, err
	}
	return calendar.NewNational(extra...), nil
}

func toHolidayDTOs(hs []calendar.Holiday) []HolidayDTO {
	dtos := make([]HolidayDTO, 0, len(hs))
	for _, hol := range hs {
		dtos = append(dtos, toHolidayDTO(hol))
	}
	return dtos
}

// =============================================================================
// ADMIN
// =============================================================================

// ResetDatabase deletes all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if !h.AllowReset {
		writeError(w, http.StatusForbidden, "Reset is disabled", nil)
		return
	}
	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeDomainError(w, r, "Failed to reset database", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func cardKey(r *http.Request) (timecard.CardKey, error) {
	year, month, err := competence(r)
	if err != nil {
		return timecard.CardKey{}, err
	}
	cardType := timecard.CardType(chi.URLParam(r, "type"))
	if !cardType.Valid() {
		return timecard.CardKey{}, fmt.Errorf("%w: %q", timecard.ErrInvalidCardType, cardType)
	}
	return timecard.CardKey{
		EmployeeID: chi.URLParam(r, "id"),
		Year:       year,
		Month:      month,
		Type:       cardType,
	}, nil
}

func competence(r *http.Request) (int, time.Month, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1900 {
		return 0, 0, fmt.Errorf("%w: year %q", timecard.ErrInvalidCompetence, chi.URLParam(r, "year"))
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: month %q", timecard.ErrInvalidCompetence, chi.URLParam(r, "month"))
	}
	return year, time.Month(month), nil
}

// decode reads a JSON body; it writes the 400 response itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// writeDomainError maps engine and store errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case timecard.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case timecard.IsClientError(err),
		errors.Is(err, factory.ErrInvalidSettings),
		errors.Is(err, projection.ErrNegativeAggregate),
		errors.Is(err, payroll.ErrNegativeTotals):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		httplog.SetAttrs(r.Context(), slog.String("error.message", err.Error()))
		h.Logger.ErrorContext(r.Context(), message, slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
