package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gloriosas/wellness/internal/api/respond"
	"github.com/gloriosas/wellness/internal/cache"
	"github.com/gloriosas/wellness/internal/team"
)

// ListEvents returns calendar events in a date range, by default the
// current Monday-to-Sunday week.
// @Summary List calendar events
// @Tags calendar
// @Produce json
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {array} team.CalendarEvent
// @Router /calendar [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	from, to := weekOf(h.now().In(h.loc))
	if v := r.URL.Query().Get("from"); v != "" {
		from = v
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to = v
	}

	view, err := h.cache.Load(cache.PrefixCalendar+from+":"+to, cache.TTLCalendar, func() (any, error) {
		events, err := h.store.EventsBetween(r.Context(), from, to)
		if err != nil {
			return nil, err
		}
		if events == nil {
			events = []team.CalendarEvent{}
		}
		return map[string]any{"from": from, "to": to, "events": events}, nil
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.View(w, r, view)
}

// CreateEvent adds a calendar event. Players with calendar notifications
// enabled are notified by the insert trigger.
// @Summary Create calendar event
// @Tags calendar
// @Accept json
// @Produce json
// @Success 201 {object} team.CalendarEvent
// @Failure 400 {object} respond.ErrorResponse
// @Router /calendar [post]
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var e team.CalendarEvent
	if err := decodeJSON(w, r, &e); err != nil {
		h.writeErr(w, r, err)
		return
	}
	created, err := h.store.CreateEvent(r.Context(), e)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.cache.Invalidate(cache.PrefixCalendar)
	respond.JSON(w, http.StatusCreated, created)
}

// UpdateEvent updates a calendar event. Fields omitted from the body keep
// their current values.
// @Summary Update calendar event
// @Tags calendar
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} team.CalendarEvent
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /calendar/{id} [put]
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	e, err := h.store.Event(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := decodeJSON(w, r, &e); err != nil {
		h.writeErr(w, r, err)
		return
	}
	e.ID = id
	if err := h.store.UpdateEvent(r.Context(), e); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.cache.Invalidate(cache.PrefixCalendar)
	respond.JSON(w, http.StatusOK, e)
}

// DeleteEvent removes a calendar event.
// @Summary Delete calendar event
// @Tags calendar
// @Param id path string true "Event ID"
// @Success 204
// @Failure 404 {object} respond.ErrorResponse
// @Router /calendar/{id} [delete]
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := h.store.DeleteEvent(r.Context(), id); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.cache.Invalidate(cache.PrefixCalendar)
	w.WriteHeader(http.StatusNoContent)
}

// --------------------------------------------------------------------------
// RPE targets
// --------------------------------------------------------------------------

// GetRPETarget returns the planned RPE for a day, 5.0 when unset.
// @Summary Get planned RPE
// @Tags rpe
// @Produce json
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} team.RPETarget
// @Router /rpe-targets/{date} [get]
func (h *Handler) GetRPETarget(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.RPETarget(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, t)
}

// PutRPETarget sets the planned RPE for a day.
// @Summary Set planned RPE
// @Tags rpe
// @Accept json
// @Produce json
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} team.RPETarget
// @Failure 400 {object} respond.ErrorResponse
// @Router /rpe-targets/{date} [put]
func (h *Handler) PutRPETarget(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Target *float64 `json:"target"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if body.Target == nil {
		h.writeErr(w, r, fmt.Errorf("%w: target is required", team.ErrInvalid))
		return
	}
	t := team.RPETarget{Date: chi.URLParam(r, "date"), Target: *body.Target}
	if err := h.store.SetRPETarget(r.Context(), t); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.cache.Invalidate(cache.PrefixDashboard + t.Date)
	respond.JSON(w, http.StatusOK, t)
}

func eventID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: event id", team.ErrInvalid)
	}
	return id, nil
}

// weekOf returns the Monday and Sunday of t's week.
func weekOf(t time.Time) (string, string) {
	offset := (int(t.Weekday()) + 6) % 7
	monday := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
	return monday.Format(time.DateOnly), monday.AddDate(0, 0, 6).Format(time.DateOnly)
}
