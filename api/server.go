/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request for tracing
  2. RequestLogger:  Structured request logging (httplog, ECS schema)
  3. Recoverer:      Panic recovery (500 instead of crash)
  4. CORS:           Cross-origin requests for frontend
  5. Heartbeat:      /health liveness probe

ROUTE GROUPS:
  /api/employees/{id}/*  Settings, cards, exports and closings
  /api/classify          Stateless classification
  /api/project           Stateless payslip projection
  /api/settle            Stateless settlement
  /api/holidays/*        Extra holidays
  /api/calendar/*        Competence window and day counts
  /api/scenarios/*       Demo scenarios
  /api/reset             Database reset (disabled in production)

SECURITY NOTE:
  No authentication middleware. Deploy behind an authenticating gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewLogger creates the JSON slog logger used by the server, with attribute
// names following the ECS schema.
func NewLogger(w io.Writer, level slog.Level, concise bool, attrs ...any) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(concise)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(attrs...)
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees/{id}", func(r chi.Router) {
			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.PutSettings)

			r.Get("/cards", h.ListCards)
			r.Get("/cards/{year}/{month}/export", h.ExportCards)
			r.Get("/cards/{year}/{month}/{type}", h.GetCard)
			r.Put("/cards/{year}/{month}/{type}", h.PutCard)

			r.Get("/closing/{year}/{month}", h.GetClosing)
			r.Post("/closing/{year}/{month}", h.PostClosing)
			r.Get("/closings", h.ListClosings)
		})

		// Stateless engine routes
		r.Post("/classify", h.Classify)
		r.Post("/project", h.Project)
		r.Post("/settle", h.Settle)

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{hid}", h.DeleteHoliday)
		})

		r.Get("/calendar/{year}/{month}", h.GetCalendar)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
