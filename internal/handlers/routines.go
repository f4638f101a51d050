package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/ewoodward/routinely/internal/repository"
	"github.com/ewoodward/routinely/internal/services"
	"github.com/go-chi/chi/v5"
)

type RoutineHandler struct {
	routineRepo repository.RoutineRepository
	bulkService *services.BulkTaskService
}

func NewRoutineHandler(routineRepo repository.RoutineRepository, bulkService *services.BulkTaskService) *RoutineHandler {
	return &RoutineHandler{routineRepo: routineRepo, bulkService: bulkService}
}

type createRoutineRequest struct {
	FamilyID string `json:"family_id"`
	Name     string `json:"name"`
}

func (handler *RoutineHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request createRoutineRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if request.FamilyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "family_id is required"})
		return
	}
	if request.Name == "" {
		request.Name = "My Routine"
	}

	routine, err := handler.routineRepo.Create(ctx, models.Routine{
		FamilyID: request.FamilyID,
		Name:     request.Name,
		Status:   models.RoutineStatusDraft,
	})
	if err != nil {
		slog.Error("creating routine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create routine"})
		return
	}

	writeJSON(w, http.StatusCreated, routine)
}

type patchRoutineRequest struct {
	Name   *string               `json:"name,omitempty"`
	Status *models.RoutineStatus `json:"status,omitempty"`
}

func (handler *RoutineHandler) Patch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	routine, err := handler.routineRepo.FindByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "routine not found"})
		return
	}

	var request patchRoutineRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if request.Name != nil {
		routine.Name = *request.Name
	}
	if request.Status != nil {
		// Publishing moves draft to active; a routine never goes back.
		if routine.Status == models.RoutineStatusActive && *request.Status == models.RoutineStatusDraft {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "routine cannot return to draft"})
			return
		}
		routine.Status = *request.Status
	}

	if err := handler.routineRepo.Update(ctx, routine); err != nil {
		slog.Error("updating routine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update routine"})
		return
	}

	writeJSON(w, http.StatusOK, routine)
}

func (handler *RoutineHandler) FullData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fullData, err := handler.bulkService.GetFullData(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "routine not found"})
		return
	}

	writeJSON(w, http.StatusOK, fullData)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
