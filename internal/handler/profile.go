package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/macrolog/internal/auth"
	"github.com/dukerupert/macrolog/internal/model"
	"github.com/dukerupert/macrolog/internal/profile"
	"github.com/dukerupert/macrolog/internal/websocket"
)

type ProfileHandler struct {
	profiles *profile.Service
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewProfileHandler(ps *profile.Service, hub *websocket.Hub, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: ps, hub: hub, logger: logger}
}

// Get returns the caller's profile, or null before the first write.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var u model.ProfileUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	p, err := h.profiles.Update(r.Context(), userID, u)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	broadcast(h.hub, userID, websocket.NewMessage("profile", "updated", p.ID, p))
	writeJSON(w, http.StatusOK, p)
}
