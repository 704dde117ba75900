package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/macrolog/internal/auth"
	"github.com/dukerupert/macrolog/internal/ledger"
)

type TrackingHandler struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

func NewTrackingHandler(l *ledger.Ledger, logger *slog.Logger) *TrackingHandler {
	return &TrackingHandler{ledger: l, logger: logger}
}

// Summary aggregates logged days between the start_date and end_date query
// parameters, inclusive.
func (h *TrackingHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s, err := h.ledger.Summary(r.Context(), auth.UserID(r.Context()), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
