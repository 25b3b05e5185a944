/*
closing.go - Monthly closing of one employee

PURPOSE:
  Runs the full pipeline for a stored competence: both cards and the
  settings are loaded concurrently, the cards are classified together, the
  totals are settled and the result is persisted as a snapshot.

FLOW:
  1. Load normal card, overtime card, settings and extra holidays (errgroup)
  2. Missing cards count as empty cards; missing settings fail with 404
  3. timecard.Classify over both cards
  4. payroll.Settle with the classified totals
  5. Save the snapshot (ClosingDTO as JSON) unless it is a dry run

SEE ALSO:
  - scheduler.go: closes finished competences in the background
  - handlers.go: GetClosing endpoint
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warp/timecard-engine/calendar"
	"github.com/warp/timecard-engine/factory"
	"github.com/warp/timecard-engine/payroll"
	"github.com/warp/timecard-engine/timecard"
	"golang.org/x/sync/errgroup"
)

// Store is everything the API persists.
type Store interface {
	timecard.Store
	calendar.Registry
	Reset(ctx context.Context) error
}

// ClosingService runs monthly closings.
type ClosingService struct {
	Store    Store
	Settings *factory.SettingsFactory
	Now      func() time.Time
}

// NewClosingService creates a closing service.
func NewClosingService(store Store, settings *factory.SettingsFactory) *ClosingService {
	return &ClosingService{Store: store, Settings: settings, Now: time.Now}
}

// ClosingRequest selects what to close.
type ClosingRequest struct {
	EmployeeID string
	Year       int
	Month      time.Month
	Advance    *payroll.Advance

	// DryRun computes without saving a snapshot.
	DryRun bool
}

// Closing is the result of one run.
type Closing struct {
	ID             string
	EmployeeID     string
	Year           int
	Month          time.Month
	Settings       *timecard.Settings
	SettingsJSON   string
	Normal         timecard.Card
	Overtime       timecard.Card
	Classification *timecard.Classification
	Settlement     *payroll.Settlement
	CreatedAt      time.Time
}

// DTO converts the closing to its persisted form.
func (c *Closing) DTO() ClosingDTO {
	return ClosingDTO{
		ID:             c.ID,
		EmployeeID:     c.EmployeeID,
		Year:           c.Year,
		Month:          int(c.Month),
		SettingsJSON:   c.SettingsJSON,
		Classification: toClassificationDTO(c.Classification),
		Settlement:     toSettlementDTO(c.Settlement),
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
	}
}

// Close runs the closing for req.
func (s *ClosingService) Close(ctx context.Context, req ClosingRequest) (*Closing, error) {
	if req.Month < time.January || req.Month > time.December || req.Year < 1900 {
		return nil, fmt.Errorf("%w: %d/%d", timecard.ErrInvalidCompetence, req.Month, req.Year)
	}

	var (
		normal, overtime *timecard.CardRecord
		settingsRec      *timecard.SettingsRecord
		extra            []calendar.Holiday
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		normal, err = s.loadCard(gctx, req, timecard.CardNormal)
		return err
	})
	g.Go(func() error {
		var err error
		overtime, err = s.loadCard(gctx, req, timecard.CardOvertime)
		return err
	})
	g.Go(func() error {
		var err error
		settingsRec, err = s.Store.GetSettings(gctx, req.EmployeeID)
		return err
	})
	g.Go(func() error {
		var err error
		extra, err = s.Store.ListHolidays(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	settings, err := s.Settings.ParseSettings(settingsRec.ConfigJSON)
	if err != nil {
		return nil, fmt.Errorf("stored settings of %s: %w", req.EmployeeID, err)
	}
	if normal == nil {
		normal = &timecard.CardRecord{Card: timecard.NewCard(timecard.CardNormal, req.Month, req.Year, settings.CycleStartDay)}
	}
	if overtime == nil {
		overtime = &timecard.CardRecord{Card: timecard.NewCard(timecard.CardOvertime, req.Month, req.Year, settings.CycleStartDay)}
	}

	entries := append(normal.Card.Entries(), overtime.Card.Entries()...)
	cls, err := timecard.Classify(entries, settings)
	if err != nil {
		return nil, err
	}

	st, err := payroll.Settle(payroll.Params{
		Settings: settings,
		Month:    req.Month,
		Year:     req.Year,
		Totals:   cls.Totals,
		Advance:  req.Advance,
		Calendar: calendar.NewNational(extra...),
	})
	if err != nil {
		return nil, err
	}

	closing := &Closing{
		ID:             uuid.NewString(),
		EmployeeID:     req.EmployeeID,
		Year:           req.Year,
		Month:          req.Month,
		Settings:       settings,
		SettingsJSON:   settingsRec.ConfigJSON,
		Normal:         normal.Card,
		Overtime:       overtime.Card,
		Classification: cls,
		Settlement:     st,
		CreatedAt:      s.Now().UTC(),
	}
	if req.DryRun {
		return closing, nil
	}

	snapshot, err := json.Marshal(closing.DTO())
	if err != nil {
		return nil, fmt.Errorf("failed to encode closing: %w", err)
	}
	err = s.Store.SaveClosing(ctx, timecard.ClosingRecord{
		ID:         closing.ID,
		EmployeeID: req.EmployeeID,
		Year:       req.Year,
		Month:      req.Month,
		ResultJSON: string(snapshot),
		CreatedAt:  closing.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return closing, nil
}

// loadCard returns nil without error when the card is not stored.
func (s *ClosingService) loadCard(ctx context.Context, req ClosingRequest, cardType timecard.CardType) (*timecard.CardRecord, error) {
	rec, err := s.Store.GetCard(ctx, timecard.CardKey{
		EmployeeID: req.EmployeeID,
		Year:       req.Year,
		Month:      req.Month,
		Type:       cardType,
	})
	if errors.Is(err, timecard.ErrCardNotFound) {
		return nil, nil
	}
	return rec, err
}

// HasClosing reports whether a snapshot exists for the competence.
func (s *ClosingService) HasClosing(ctx context.Context, employeeID string, year int, month time.Month) (bool, error) {
	closings, err := s.Store.ListClosings(ctx, employeeID)
	if err != nil {
		return false, err
	}
	for _, c := range closings {
		if c.Year == year && c.Month == month {
			return true, nil
		}
	}
	return false, nil
}
