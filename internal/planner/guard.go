package planner

import (
	"context"
	"sync"

	"github.com/ewoodward/routinely/internal/models"
	"golang.org/x/sync/singleflight"
)

// RoutineGuard makes sure exactly one draft routine exists before any task
// operation. Concurrent ensure calls collapse into one in-flight creation;
// a failed creation leaves the guard retryable. No other component creates
// routines.
type RoutineGuard struct {
	api         API
	familyID    string
	routineName string

	group   singleflight.Group
	mu      sync.Mutex
	routine *models.Routine
}

func NewRoutineGuard(api API, familyID, routineName string) *RoutineGuard {
	return &RoutineGuard{api: api, familyID: familyID, routineName: routineName}
}

// Seed installs an already-loaded routine so Ensure never hits the network
// for it. Used when rehydrating an existing routine.
func (guard *RoutineGuard) Seed(routine models.Routine) {
	guard.mu.Lock()
	defer guard.mu.Unlock()
	guard.routine = &routine
}

// Ensure returns the cached routine, or creates the draft exactly once no
// matter how many callers arrive while the creation is in flight.
func (guard *RoutineGuard) Ensure(ctx context.Context) (models.Routine, error) {
	guard.mu.Lock()
	if guard.routine != nil {
		routine := *guard.routine
		guard.mu.Unlock()
		return routine, nil
	}
	guard.mu.Unlock()

	result, err, _ := guard.group.Do("ensure-routine", func() (interface{}, error) {
		created, err := guard.api.CreateRoutineDraft(ctx, guard.familyID, guard.routineName)
		if err != nil {
			return nil, err
		}
		guard.mu.Lock()
		guard.routine = &created
		guard.mu.Unlock()
		return created, nil
	})
	if err != nil {
		return models.Routine{}, &RoutineUnavailableError{Err: err}
	}
	return result.(models.Routine), nil
}

// Current returns the cached routine without triggering creation.
func (guard *RoutineGuard) Current() (models.Routine, bool) {
	guard.mu.Lock()
	defer guard.mu.Unlock()
	if guard.routine == nil {
		return models.Routine{}, false
	}
	return *guard.routine, true
}
