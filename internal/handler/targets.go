package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/macrolog/internal/apperr"
	"github.com/dukerupert/macrolog/internal/nutrition"
)

type TargetsHandler struct {
	policy nutrition.OtherPolicy
	logger *slog.Logger
}

func NewTargetsHandler(policy nutrition.OtherPolicy, logger *slog.Logger) *TargetsHandler {
	return &TargetsHandler{policy: policy, logger: logger}
}

// Preview computes TDEE and targets for the posted body stats without
// storing anything.
func (h *TargetsHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var stats nutrition.BodyStats
	if err := decodeJSON(w, r, &stats); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := nutrition.Calculate(h.policy, stats)
	if err != nil {
		writeError(w, r, h.logger, apperr.Validation("%s", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
