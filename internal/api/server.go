package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/gloriosas/wellness/internal/api/handler"
	"github.com/gloriosas/wellness/internal/cache"
	"github.com/gloriosas/wellness/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(store handler.Store, db handler.HealthChecker, appCache *cache.Cache, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(store, db, appCache, cfg, logger)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Submissions
		r.Post("/wellness", h.PostWellness)
		r.Get("/wellness", h.ListWellness)
		r.Post("/rpe", h.PostRPE)
		r.Get("/rpe", h.ListRPE)

		// Completion
		r.Get("/completion/{kind}", h.GetMissing)
		r.Get("/completion/{kind}/{name}", h.GetAthleteCompletion)

		// Staff dashboard
		r.Get("/dashboard", h.GetDashboard)

		// Users
		r.Route("/users/{name}", func(r chi.Router) {
			r.Get("/preferences", h.GetPreferences)
			r.Put("/preferences", h.PutPreferences)
			r.Post("/tokens", h.RegisterToken)
		})

		// Planned RPE
		r.Get("/rpe-targets/{date}", h.GetRPETarget)
		r.Put("/rpe-targets/{date}", h.PutRPETarget)

		// Calendar
		r.Get("/calendar", h.ListEvents)
		r.Post("/calendar", h.CreateEvent)
		r.Put("/calendar/{id}", h.UpdateEvent)
		r.Delete("/calendar/{id}", h.DeleteEvent)
	})

	return r
}
