// Package handler provides HTTP handlers for all API endpoints.
// Handlers call the store directly; the pure domain packages (wellness,
// team, dashboard, notifications) do all validation and computation.
// Push notifications are not sent from here: inserts fire Postgres triggers
// that the listener consumes.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gloriosas/wellness/internal/api/respond"
	"github.com/gloriosas/wellness/internal/cache"
	"github.com/gloriosas/wellness/internal/config"
	"github.com/gloriosas/wellness/internal/store"
	"github.com/gloriosas/wellness/internal/team"
	"github.com/gloriosas/wellness/internal/wellness"
)

// Store is the persistence the handlers need. *store.Store satisfies it.
type Store interface {
	UserID(ctx context.Context, name string) (*uuid.UUID, error)
	RegisterToken(ctx context.Context, name string, role team.Role, token string) (uuid.UUID, team.Role, error)
	Preferences(ctx context.Context, name string) (team.Preferences, error)
	SetPreferences(ctx context.Context, name string, p team.Preferences) error

	InsertWellness(ctx context.Context, r *wellness.WellnessRecord) error
	InsertRPE(ctx context.Context, r *wellness.RPERecord) error
	WellnessBetween(ctx context.Context, from, to time.Time) ([]wellness.WellnessRecord, error)
	RPEBetween(ctx context.Context, from, to time.Time) ([]wellness.RPERecord, error)

	RPETarget(ctx context.Context, day string) (team.RPETarget, error)
	SetRPETarget(ctx context.Context, t team.RPETarget) error

	EventsBetween(ctx context.Context, from, to string) ([]team.CalendarEvent, error)
	Event(ctx context.Context, id uuid.UUID) (team.CalendarEvent, error)
	CreateEvent(ctx context.Context, e team.CalendarEvent) (team.CalendarEvent, error)
	UpdateEvent(ctx context.Context, e team.CalendarEvent) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

// HealthChecker verifies database connectivity. *db.Pool satisfies it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store  Store
	db     HealthChecker
	cache  *cache.Cache
	cfg    *config.Config
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Handler with shared dependencies.
func New(s Store, db HealthChecker, c *cache.Cache, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		store:  s,
		db:     db,
		cache:  c,
		cfg:    cfg,
		loc:    cfg.Location(),
		logger: logger,
		now:    time.Now,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and team settings.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"name":     "Gloriosas Wellness API",
		"version":  "1.0.0",
		"status":   "running",
		"docs":     "/docs",
		"timezone": h.loc.String(),
		"roster":   len(h.cfg.Roster),
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		h.logger.Warn("Database health check failed", "error", err)
		respond.JSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// today is the current civil date in the team timezone.
func (h *Handler) today() string {
	return h.now().In(h.loc).Format(time.DateOnly)
}

// dayParam reads ?date=YYYY-MM-DD, defaulting to today.
func (h *Handler) dayParam(r *http.Request) (string, error) {
	day := r.URL.Query().Get("date")
	if day == "" {
		return h.today(), nil
	}
	if _, err := time.Parse(time.DateOnly, day); err != nil {
		return "", fmt.Errorf("%w: date %q", team.ErrInvalid, day)
	}
	return day, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: body: %v", team.ErrInvalid, err)
	}
	return nil
}

// writeErr maps domain and store errors onto HTTP statuses.
func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respond.Error(w, http.StatusNotFound, respond.Problem{Code: "NOT_FOUND", Message: "Resource not found"})
	case errors.Is(err, wellness.ErrIncomplete):
		respond.Error(w, http.StatusBadRequest, respond.Problem{Code: "INCOMPLETE", Message: "Missing required field", Detail: err.Error()})
	case errors.Is(err, wellness.ErrOutOfRange):
		respond.Error(w, http.StatusBadRequest, respond.Problem{Code: "OUT_OF_RANGE", Message: "Value out of range", Detail: err.Error()})
	case errors.Is(err, team.ErrInvalid):
		respond.Error(w, http.StatusBadRequest, respond.Problem{Code: "VALIDATION_ERROR", Message: "Invalid request", Detail: err.Error()})
	default:
		h.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respond.Error(w, http.StatusInternalServerError, respond.Problem{Code: "INTERNAL", Message: "Internal server error"})
	}
}

// invalidateDay drops cached dashboards after a submission.
func (h *Handler) invalidateDay() {
	h.cache.Invalidate(cache.PrefixDashboard)
}
