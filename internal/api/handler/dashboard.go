package handler

import (
	"net/http"

	"github.com/gloriosas/wellness/internal/api/respond"
	"github.com/gloriosas/wellness/internal/cache"
	"github.com/gloriosas/wellness/internal/dashboard"
)

// GetDashboard returns the staff view for a day.
// @Summary Staff dashboard
// @Description Every roster athlete with that day's wellness (recomputed readiness and status), RPE, late flags, planned vs actual RPE and pending lists. Cached with ETag support.
// @Tags dashboard
// @Produce json
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} dashboard.Dashboard
// @Success 304 "Not modified"
// @Failure 400 {object} respond.ErrorResponse
// @Router /dashboard [get]
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	day, from, to, err := h.dayRange(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	view, err := h.cache.Load(cache.PrefixDashboard+day, cache.TTLDashboard, func() (any, error) {
		ctx := r.Context()
		wellnessLogs, err := h.store.WellnessBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		rpeLogs, err := h.store.RPEBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		target, err := h.store.RPETarget(ctx, day)
		if err != nil {
			return nil, err
		}
		return dashboard.Build(dashboard.Input{
			Date:     day,
			Location: h.loc,
			Roster:   h.cfg.Roster,
			Wellness: wellnessLogs,
			RPE:      rpeLogs,
			Target:   target,
		}), nil
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.View(w, r, view)
}
