// Package planner is the engine behind the calendar-based routine builder.
// It turns one user intent ("this task happens Tuesday and Thursday, for
// these two kids") into the minimal set of bulk backend calls and keeps an
// in-memory week view consistent with the eventually-persisted result.
package planner

import (
	"context"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/ewoodward/routinely/internal/services"
)

// API is the backend surface the planner consumes. The bundled server
// implements it natively; Client implements it over HTTP.
type API interface {
	CreateRoutineDraft(ctx context.Context, familyID, name string) (models.Routine, error)
	PatchRoutine(ctx context.Context, routineID string, patch RoutinePatch) (models.Routine, error)
	GetRoutineFullData(ctx context.Context, routineID string) (services.FullData, error)
	BulkCreateIndividualTasks(ctx context.Context, routineID string, input services.BulkAssignInput) (services.BulkAssignResult, error)
	BulkUpdateRecurringTasks(ctx context.Context, routineID string, input services.BulkUpdateInput) (services.BulkUpdateResult, error)
	BulkDeleteTasks(ctx context.Context, routineID string, input services.BulkDeleteInput) (services.BulkDeleteResult, error)
	UpdateTemplateDays(ctx context.Context, routineID, templateID string, daysOfWeek []string) (models.RecurringTemplate, error)
	BulkUpdateDayOrders(ctx context.Context, routineID string, update DayOrderUpdate) ([]models.DaySpecificOrder, error)
}

type RoutinePatch struct {
	Name   *string               `json:"name,omitempty"`
	Status *models.RoutineStatus `json:"status,omitempty"`
}

type DayOrderUpdate struct {
	MemberID   string      `json:"member_id"`
	DayOfWeek  string      `json:"day_of_week"`
	TaskOrders []TaskOrder `json:"task_orders"`
}

type TaskOrder struct {
	OccurrenceID string `json:"occurrence_id"`
	OrderIndex   int    `json:"order_index"`
}
