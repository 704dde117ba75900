package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/macrolog/internal/auth"
	"github.com/dukerupert/macrolog/internal/ledger"
	"github.com/dukerupert/macrolog/internal/model"
	"github.com/dukerupert/macrolog/internal/websocket"
)

type FoodHandler struct {
	ledger *ledger.Ledger
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewFoodHandler(l *ledger.Ledger, hub *websocket.Hub, logger *slog.Logger) *FoodHandler {
	return &FoodHandler{ledger: l, hub: hub, logger: logger}
}

func (h *FoodHandler) List(w http.ResponseWriter, r *http.Request) {
	foods, err := h.ledger.ListFoods(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, foods)
}

func (h *FoodHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var patch model.FoodPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	food, err := h.ledger.UpdateFood(r.Context(), r.PathValue("id"), userID, patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	broadcast(h.hub, userID, websocket.NewMessage("food", "updated", food.ID, food))
	writeJSON(w, http.StatusOK, food)
}

// Delete removes the food and every log entry that references it.
func (h *FoodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id := r.PathValue("id")

	if err := h.ledger.DeleteFood(r.Context(), id, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	broadcast(h.hub, userID, websocket.NewMessage("food", "deleted", id, nil))
	success(w)
}
