package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gloriosas/wellness/internal/api/respond"
	"github.com/gloriosas/wellness/internal/team"
)

type tokenRequest struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// GetPreferences returns a user's notification preferences.
// @Summary Get notification preferences
// @Tags users
// @Produce json
// @Param name path string true "User name"
// @Success 200 {object} team.Preferences
// @Failure 404 {object} respond.ErrorResponse
// @Router /users/{name}/preferences [get]
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Preferences(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// PutPreferences replaces a user's notification preferences. Omitted
// weekdays are disabled.
// @Summary Update notification preferences
// @Tags users
// @Accept json
// @Produce json
// @Param name path string true "User name"
// @Success 200 {object} team.Preferences
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /users/{name}/preferences [put]
func (h *Handler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	p := team.DefaultPreferences()
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := h.store.SetPreferences(r.Context(), chi.URLParam(r, "name"), p); err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// RegisterToken attaches a device token to a user, creating the user if
// needed. A token already owned by someone else moves to this user. New
// users without a role become players.
// @Summary Register device token
// @Tags users
// @Accept json
// @Produce json
// @Param name path string true "User name"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /users/{name}/tokens [post]
func (h *Handler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if name == "" || strings.TrimSpace(req.Token) == "" {
		h.writeErr(w, r, fmt.Errorf("%w: name and token are required", team.ErrInvalid))
		return
	}
	// An omitted role leaves an existing user's role alone.
	var role team.Role
	if req.Role != "" {
		parsed, err := team.ParseRole(req.Role)
		if err != nil {
			h.writeErr(w, r, err)
			return
		}
		role = parsed
	}

	id, role, err := h.store.RegisterToken(r.Context(), name, role, req.Token)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.logger.Info("Device token registered", "user", name, "role", role)
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"userId": id,
		"name":   name,
		"role":   role,
	})
}
