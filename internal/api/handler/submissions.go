package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gloriosas/wellness/internal/api/respond"
	"github.com/gloriosas/wellness/internal/dashboard"
	"github.com/gloriosas/wellness/internal/notifications"
	"github.com/gloriosas/wellness/internal/team"
	"github.com/gloriosas/wellness/internal/wellness"
)

type wellnessRequest struct {
	PlayerName string `json:"playerName"`
	wellness.ScoreInput
	MenstruationStatus string `json:"menstruationStatus"`
	Notes              string `json:"notes"`
}

type rpeRequest struct {
	PlayerName string `json:"playerName"`
	Value      *int   `json:"rpeValue"`
	Notes      string `json:"notes"`
}

// PostWellness validates, scores and stores a wellness log.
// @Summary Submit wellness
// @Description Validates the five levels (1 best, 10 worst), computes the readiness score and stores the log. Staff risk alerts fire from the insert trigger.
// @Tags wellness
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /wellness [post]
func (h *Handler) PostWellness(w http.ResponseWriter, r *http.Request) {
	var req wellnessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	scores, err := req.ScoreInput.Scores()
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	m, err := wellness.ParseMenstruation(req.MenstruationStatus)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	athleteID, err := h.store.UserID(r.Context(), req.PlayerName)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	rec, err := wellness.NewWellnessRecord(req.PlayerName, athleteID, scores, m, req.Notes, h.now())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := h.store.InsertWellness(r.Context(), rec); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.invalidateDay()

	respond.JSON(w, http.StatusCreated, map[string]interface{}{
		"record": rec,
		"status": wellness.Classify(rec.Scores, rec.Readiness),
		"late":   wellness.IsLateWellness(rec.SubmittedAt(h.loc)),
	})
}

// ListWellness returns a day's wellness logs.
// @Summary List wellness
// @Tags wellness
// @Produce json
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {array} wellness.WellnessRecord
// @Router /wellness [get]
func (h *Handler) ListWellness(w http.ResponseWriter, r *http.Request) {
	day, from, to, err := h.dayRange(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	recs, err := h.store.WellnessBetween(r.Context(), from, to)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if recs == nil {
		recs = []wellness.WellnessRecord{}
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"date": day, "records": recs})
}

// PostRPE stores an RPE log.
// @Summary Submit RPE
// @Tags rpe
// @Accept json
// @Produce json
// @Success 201 {object} wellness.RPERecord
// @Failure 400 {object} respond.ErrorResponse
// @Router /rpe [post]
func (h *Handler) PostRPE(w http.ResponseWriter, r *http.Request) {
	var req rpeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if req.Value == nil {
		h.writeErr(w, r, fmt.Errorf("%w: rpeValue", wellness.ErrIncomplete))
		return
	}
	athleteID, err := h.store.UserID(r.Context(), req.PlayerName)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	rec, err := wellness.NewRPERecord(req.PlayerName, athleteID, *req.Value, req.Notes, h.now())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := h.store.InsertRPE(r.Context(), rec); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.invalidateDay()
	respond.JSON(w, http.StatusCreated, rec)
}

// ListRPE returns a day's RPE logs.
// @Summary List RPE
// @Tags rpe
// @Produce json
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {array} wellness.RPERecord
// @Router /rpe [get]
func (h *Handler) ListRPE(w http.ResponseWriter, r *http.Request) {
	day, from, to, err := h.dayRange(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	recs, err := h.store.RPEBetween(r.Context(), from, to)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if recs == nil {
		recs = []wellness.RPERecord{}
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"date": day, "records": recs})
}

// --------------------------------------------------------------------------
// Completion
// --------------------------------------------------------------------------

// GetMissing lists roster athletes who have not submitted a kind on a day.
// @Summary Missing submissions
// @Tags completion
// @Produce json
// @Param kind path string true "wellness or rpe"
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} map[string]interface{}
// @Router /completion/{kind} [get]
func (h *Handler) GetMissing(w http.ResponseWriter, r *http.Request) {
	kind, ok := notifications.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		respond.Error(w, http.StatusBadRequest, respond.Problem{Code: "INVALID_KIND", Message: "kind must be wellness or rpe"})
		return
	}
	day, from, to, err := h.dayRange(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	subs, err := h.submissions(r.Context(), kind, from, to)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	missing := notifications.Missing(h.cfg.Roster, subs)
	if missing == nil {
		missing = []string{}
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"date":       day,
		"kind":       kind,
		"rosterSize": len(h.cfg.Roster),
		"submitted":  subs.Len(),
		"missing":    missing,
		"message":    notifications.MissingMessage(missing),
	})
}

// GetAthleteCompletion reports whether one athlete has submitted a kind.
// @Summary Athlete completion
// @Tags completion
// @Produce json
// @Param kind path string true "wellness or rpe"
// @Param name path string true "Athlete name"
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} map[string]interface{}
// @Router /completion/{kind}/{name} [get]
func (h *Handler) GetAthleteCompletion(w http.ResponseWriter, r *http.Request) {
	kind, ok := notifications.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		respond.Error(w, http.StatusBadRequest, respond.Problem{Code: "INVALID_KIND", Message: "kind must be wellness or rpe"})
		return
	}
	name := chi.URLParam(r, "name")
	day, from, to, err := h.dayRange(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	subs, err := h.submissions(r.Context(), kind, from, to)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	done := subs.HasName(name)
	if id, err := h.store.UserID(r.Context(), name); err == nil && id != nil {
		done = subs.HasUser(team.User{ID: *id, Name: name})
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"date":      day,
		"kind":      kind,
		"name":      name,
		"submitted": done,
	})
}

func (h *Handler) submissions(ctx context.Context, kind notifications.Kind, from, to time.Time) (*notifications.Submissions, error) {
	subs := notifications.NewSubmissions()
	switch kind {
	case notifications.KindRPE:
		recs, err := h.store.RPEBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			subs.Add(rec.AthleteID, rec.PlayerName)
		}
	default:
		recs, err := h.store.WellnessBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			subs.Add(rec.AthleteID, rec.PlayerName)
		}
	}
	return subs, nil
}

// dayRange resolves ?date= to its local-midnight bounds.
func (h *Handler) dayRange(r *http.Request) (string, time.Time, time.Time, error) {
	day, err := h.dayParam(r)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	from, to, err := dashboard.DayBounds(day, h.loc)
	if err != nil {
		return "", time.Time{}, time.Time{}, fmt.Errorf("%w: date %q", team.ErrInvalid, day)
	}
	return day, from, to, nil
}
