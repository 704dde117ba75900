package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/macrolog/internal/apperr"
	"github.com/dukerupert/macrolog/internal/backup"
	"github.com/dukerupert/macrolog/internal/model"
)

const (
	defaultSnapshotLimit = 20
	maxSnapshotLimit     = 100
)

type SnapshotHandler struct {
	backups *backup.Manager
	logger  *slog.Logger
}

func NewSnapshotHandler(m *backup.Manager, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{backups: m, logger: logger}
}

// List returns recent snapshot attempts, newest first. The optional limit
// query parameter is capped at 100.
func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultSnapshotLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, h.logger, apperr.Validation("limit must be a positive integer"))
			return
		}
		limit = min(n, maxSnapshotLimit)
	}

	snaps, err := h.backups.History(r.Context(), limit)
	if err != nil {
		writeError(w, r, h.logger, apperr.Persistence("list snapshots", err))
		return
	}
	if snaps == nil {
		snaps = []model.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

// Create takes a snapshot immediately.
func (h *SnapshotHandler) Create(w http.ResponseWriter, r *http.Request) {
	snap, err := h.backups.RunNow(r.Context())
	switch {
	case errors.Is(err, backup.ErrDisabled):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case errors.Is(err, backup.ErrInProgress):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case err != nil:
		h.logger.ErrorContext(r.Context(), "snapshot failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "snapshot failed"})
	default:
		writeJSON(w, http.StatusCreated, snap)
	}
}
