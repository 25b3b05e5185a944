/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the time-card engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env file, environment, flags)
  2. Create the structured logger
  3. Initialize the store (SQLite, or memory for demos)
  4. Create API handler, closing scheduler and router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS (override the environment):
  -port    HTTP server port (APP_PORT, default: 8080)
  -db      SQLite database path (DB_PATH, default: ./data/timecard.db)
           Use ":memory:" for in-memory database
  -env     Env file to load (default: .env, optional)

ENVIRONMENT:
  STORE_DRIVER             sqlite | memory (memory keeps nothing across restarts)
  APP_ENV                  development | production (production disables reset)
  LOG_LEVEL                debug | info | warn | error
  LOG_CONCISE              Shorter ECS log lines
  CORS_ORIGINS             Comma-separated allowed origins
  DEFAULT_CYCLE_START_DAY  Cycle start day when settings omit it
  MAX_BODY_BYTES           Request body limit
  SCHEDULER_INTERVAL       Closing check interval (e.g. 1h, 0 disables)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the closing scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server -db="./data/timecard.db"
  ./server -db=":memory:" -port=3000

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/warp/timecard-engine/api"
	"github.com/warp/timecard-engine/config"
	"github.com/warp/timecard-engine/factory"
	"github.com/warp/timecard-engine/store/sqlite"
	memstore "github.com/warp/timecard-engine/timecard/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	envFile := flag.String("env", ".env", "Env file to load when present")
	port := flag.Int("port", 0, "HTTP server port (overrides APP_PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := api.NewLogger(os.Stdout, cfg.SlogLevel(), cfg.LogConcise,
		"app", "timecard-engine",
		"env", cfg.Environment,
	)

	// Initialize store
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Initialize handler
	handler := api.NewHandler(store, factory.NewSettingsFactory(cfg.DefaultCycleStartDay), logger)
	handler.AllowReset = !cfg.IsProduction()
	handler.MaxBodyBytes = cfg.MaxBodyBytes

	// Closing scheduler
	scheduler := api.NewClosingScheduler(handler.Closings, logger)
	scheduler.CheckInterval = cfg.SchedulerInterval
	scheduler.Enabled = cfg.SchedulerInterval > 0
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler, api.RouterOptions{
		Logger:         logger,
		AllowedOrigins: cfg.CORSOrigins,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "db", cfg.DBPath, "reset_enabled", handler.AllowReset)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func openStore(cfg *config.Config) (api.Store, func() error, error) {
	if cfg.StoreDriver == "memory" {
		return memstore.NewMemory(), func() error { return nil }, nil
	}
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, store.Close, nil
}
