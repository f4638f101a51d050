package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/ewoodward/routinely/internal/recurrence"
	"github.com/ewoodward/routinely/internal/services"
	"github.com/go-chi/chi/v5"
)

type TaskHandler struct {
	bulkService *services.BulkTaskService
}

func NewTaskHandler(bulkService *services.BulkTaskService) *TaskHandler {
	return &TaskHandler{bulkService: bulkService}
}

func (handler *TaskHandler) BulkAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	routineID := chi.URLParam(r, "id")

	var input services.BulkAssignInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := handler.bulkService.BulkAssign(ctx, routineID, input)
	if err != nil {
		if errors.Is(err, services.ErrNoAssignments) || errors.Is(err, services.ErrNoTargetDays) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("bulk assigning tasks", "routine_id", routineID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create tasks"})
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (handler *TaskHandler) BulkUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	routineID := chi.URLParam(r, "id")

	var input services.BulkUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if input.RecurringTemplateID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "recurring_template_id is required"})
		return
	}

	result, err := handler.bulkService.BulkUpdate(ctx, routineID, input)
	if err != nil {
		if errors.Is(err, services.ErrNoAssignments) || errors.Is(err, services.ErrNoTargetDays) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("bulk updating recurring tasks", "routine_id", routineID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update tasks"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (handler *TaskHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	routineID := chi.URLParam(r, "id")

	var input services.BulkDeleteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	switch input.DeleteScope {
	case models.DeleteScopeThisDay, models.DeleteScopeThisAndFollowing:
		if !recurrence.IsValidWeekday(input.TargetDay) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target_day must be a valid weekday"})
			return
		}
	}

	result, err := handler.bulkService.BulkDelete(ctx, routineID, input)
	if err != nil {
		if errors.Is(err, services.ErrUnknownScope) || errors.Is(err, services.ErrInvalidTargetDay) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("bulk deleting tasks", "routine_id", routineID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete tasks"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type updateTemplateDaysRequest struct {
	DaysOfWeek []string `json:"days_of_week"`
}

func (handler *TaskHandler) UpdateTemplateDays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	routineID := chi.URLParam(r, "id")
	templateID := chi.URLParam(r, "templateId")

	var request updateTemplateDaysRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	template, err := handler.bulkService.UpdateTemplateDays(ctx, routineID, templateID, request.DaysOfWeek)
	if err != nil {
		slog.Error("updating template days", "template_id", templateID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update template days"})
		return
	}

	writeJSON(w, http.StatusOK, template)
}
