package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ewoodward/routinely/internal/recurrence"
	"github.com/ewoodward/routinely/internal/repository"
	"github.com/go-chi/chi/v5"
)

type DayOrderHandler struct {
	dayOrderRepo repository.DayOrderRepository
}

func NewDayOrderHandler(dayOrderRepo repository.DayOrderRepository) *DayOrderHandler {
	return &DayOrderHandler{dayOrderRepo: dayOrderRepo}
}

type bulkDayOrderRequest struct {
	MemberID   string `json:"member_id"`
	DayOfWeek  string `json:"day_of_week"`
	TaskOrders []struct {
		OccurrenceID string `json:"occurrence_id"`
		OrderIndex   int    `json:"order_index"`
	} `json:"task_orders"`
}

// BulkUpdate replaces the whole order set for one (member, day) key. The
// request lists every occurrence on that key; order_index is its position.
func (handler *DayOrderHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	routineID := chi.URLParam(r, "id")

	var request bulkDayOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if request.MemberID == "" || !recurrence.IsValidWeekday(request.DayOfWeek) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "member_id and a valid day_of_week are required"})
		return
	}

	occurrenceIDs := make([]string, len(request.TaskOrders))
	for i, order := range request.TaskOrders {
		occurrenceIDs[i] = order.OccurrenceID
	}

	orders, err := handler.dayOrderRepo.ReplaceForKey(ctx, routineID, request.MemberID, request.DayOfWeek, occurrenceIDs)
	if err != nil {
		slog.Error("replacing day orders", "routine_id", routineID, "member_id", request.MemberID, "day", request.DayOfWeek, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save day orders"})
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func (handler *DayOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := handler.dayOrderRepo.FindByRoutine(ctx, chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("listing day orders", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load day orders"})
		return
	}

	writeJSON(w, http.StatusOK, orders)
}
