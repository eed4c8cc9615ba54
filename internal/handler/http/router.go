package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AllowedOrigins []string
	Env            string
	Version        string
	LogLevel       slog.Level
}

func NewRouter(
	cfg RouterConfig,
	JWTService jwt.Service,
	punchHandler PunchHandler,
	kpiHandler KPIHandler,
	timesheetHandler TimesheetHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env == "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-engine"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// The stream authenticates with its own short-lived token, issued to managers only.
		r.Get("/punches/stream", punchHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/punches", func(r chi.Router) {
				r.Post("/", punchHandler.Submit)
				r.Get("/status", punchHandler.Status)
				r.With(middleware.RequireManager).Post("/stream-token", punchHandler.StreamToken)
			})

			// Manager only
			r.Route("/kpi", func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Get("/snapshot", kpiHandler.Snapshot)
				r.Get("/teams", kpiHandler.Teams)
				r.Get("/dates", kpiHandler.Dates)
				r.Get("/weekly", kpiHandler.Weekly)
				r.Get("/live", kpiHandler.Live)
			})

			r.Route("/timesheets/weeks/{weekStart}", func(r chi.Router) {
				r.Get("/", timesheetHandler.GetWeek)
				r.Put("/cells", timesheetHandler.UpsertCell)
				r.Delete("/cells/{code}/{date}", timesheetHandler.RemoveCell)
				r.Delete("/codes/{code}", timesheetHandler.RemoveActivityCode)
				r.Post("/send-day", timesheetHandler.SendDay)
				r.Post("/auto-send", timesheetHandler.AutoSend)
				r.Post("/overrides", timesheetHandler.AddWeekendOverride)

				r.With(middleware.RequireManager).Post("/approve", timesheetHandler.Approve)
			})
		})
	})
	return r
}
