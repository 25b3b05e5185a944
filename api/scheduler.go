/*
scheduler.go - Automated monthly closing scheduler

PURPOSE:
  Periodically checks every employee with stored settings for competences
  whose window has ended and closes them automatically.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Candidates are the competence of the current month and the one before
  - A competence is due once today is past its window end (cycle aware)
  - Competences that already have a closing snapshot are skipped

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewClosingScheduler(closings, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - closing.go: ClosingService
  - handlers.go: PostClosing endpoint (manual closing)
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/timecard-engine/calendar"
)

// ClosingScheduler closes finished competences in the background.
type ClosingScheduler struct {
	Closings      *ClosingService
	Logger        *slog.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewClosingScheduler creates a new scheduler.
func NewClosingScheduler(closings *ClosingService, logger *slog.Logger) *ClosingScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClosingScheduler{
		Closings:      closings,
		Logger:        logger.With("component", "scheduler"),
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (cs *ClosingScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled || cs.CheckInterval <= 0 {
		cs.Logger.Info("scheduler disabled, not starting")
		return
	}
	if cs.ticker != nil {
		return
	}

	cs.ticker = time.NewTicker(cs.CheckInterval)
	cs.stop = make(chan struct{})
	cs.wg.Add(1)

	go cs.run(cs.ticker, cs.stop)

	cs.Logger.Info("scheduler started", "interval", cs.CheckInterval.String())
}

// Stop stops the scheduler and waits for a running check to finish.
func (cs *ClosingScheduler) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ticker != nil {
		cs.ticker.Stop()
		close(cs.stop)
		cs.wg.Wait()
		cs.ticker = nil
		cs.Logger.Info("scheduler stopped")
	}
}

func (cs *ClosingScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer cs.wg.Done()

	// Run immediately on start
	cs.checkAndProcess(context.Background())

	for {
		select {
		case <-ticker.C:
			cs.checkAndProcess(context.Background())
		case <-stop:
			return
		}
	}
}

// RunResult counts what one check did.
type RunResult struct {
	Closed  int
	Skipped int
	Failed  int
}

// RunNow triggers an immediate check (for testing/admin).
func (cs *ClosingScheduler) RunNow(ctx context.Context) RunResult {
	return cs.checkAndProcess(ctx)
}

func (cs *ClosingScheduler) checkAndProcess(ctx context.Context) RunResult {
	var res RunResult
	today := calendar.Truncate(cs.Closings.Now())

	records, err := cs.Closings.Store.ListSettings(ctx)
	if err != nil {
		cs.Logger.ErrorContext(ctx, "failed to list settings", "error", err)
		return res
	}

	for _, rec := range records {
		settings, err := cs.Closings.Settings.ParseSettings(rec.ConfigJSON)
		if err != nil {
			cs.Logger.WarnContext(ctx, "skipping employee with invalid settings", "employee", rec.EmployeeID, "error", err)
			res.Failed++
			continue
		}

		for _, c := range dueCompetences(today, settings.CycleStartDay) {
			done, err := cs.Closings.HasClosing(ctx, rec.EmployeeID, c.year, c.month)
			if err != nil {
				cs.Logger.ErrorContext(ctx, "failed to check closing status", "employee", rec.EmployeeID, "error", err)
				res.Failed++
				continue
			}
			if done {
				res.Skipped++
				continue
			}

			closing, err := cs.Closings.Close(ctx, ClosingRequest{EmployeeID: rec.EmployeeID, Year: c.year, Month: c.month})
			if err != nil {
				cs.Logger.ErrorContext(ctx, "closing failed",
					"employee", rec.EmployeeID, "year", c.year, "month", int(c.month), "error", err)
				res.Failed++
				continue
			}
			res.Closed++
			cs.Logger.InfoContext(ctx, "competence closed",
				"employee", rec.EmployeeID,
				"year", c.year,
				"month", int(c.month),
				"closing_id", closing.ID,
				"total_received", closing.Settlement.TotalReceived.StringFixed(2))
		}
	}

	if res.Closed > 0 || res.Failed > 0 {
		cs.Logger.InfoContext(ctx, "scheduler check completed",
			"closed", res.Closed, "skipped", res.Skipped, "failed", res.Failed)
	}
	return res
}

type yearMonth struct {
	year  int
	month time.Month
}

// dueCompetences returns the competences among the previous and the current
// month whose window ended before today.
func dueCompetences(today time.Time, cycleStartDay int) []yearMonth {
	py, pm := calendar.PreviousMonth(today.Year(), today.Month())
	var due []yearMonth
	for _, c := range []yearMonth{{py, pm}, {today.Year(), today.Month()}} {
		if today.After(calendar.CompetenceWindow(c.month, c.year, cycleStartDay).End) {
			due = append(due, c)
		}
	}
	return due
}
