package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/macrolog/internal/auth"
	"github.com/dukerupert/macrolog/internal/ledger"
	"github.com/dukerupert/macrolog/internal/websocket"
)

type LogHandler struct {
	ledger *ledger.Ledger
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewLogHandler(l *ledger.Ledger, hub *websocket.Hub, logger *slog.Logger) *LogHandler {
	return &LogHandler{ledger: l, hub: hub, logger: logger}
}

type logRequest struct {
	Input    string `json:"input"`
	LoggedAt string `json:"logged_at"`
}

// Create parses a free-text description and logs it.
func (h *LogHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req logRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	date := strings.TrimSpace(req.LoggedAt)
	if date == "" {
		date = ledger.Today()
	}

	entry, err := h.ledger.ParseAndLog(r.Context(), userID, req.Input, date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	broadcast(h.hub, userID, websocket.NewMessage("log_entry", "created", entry.ID, entry))
	writeJSON(w, http.StatusCreated, entry)
}

// Day returns the entries and totals for the date path value.
func (h *LogHandler) Day(w http.ResponseWriter, r *http.Request) {
	day, err := h.ledger.DayLog(r.Context(), auth.UserID(r.Context()), r.PathValue("date"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

type servingsRequest struct {
	Servings *float64 `json:"servings"`
}

func (h *LogHandler) UpdateServings(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req servingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.Servings == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "servings is required"})
		return
	}

	entry, err := h.ledger.UpdateServings(r.Context(), r.PathValue("id"), userID, *req.Servings)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	broadcast(h.hub, userID, websocket.NewMessage("log_entry", "updated", entry.ID, entry))
	writeJSON(w, http.StatusOK, entry)
}

func (h *LogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id := r.PathValue("id")

	if err := h.ledger.DeleteEntry(r.Context(), id, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	broadcast(h.hub, userID, websocket.NewMessage("log_entry", "deleted", id, nil))
	success(w)
}
