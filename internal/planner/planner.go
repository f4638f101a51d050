package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/ewoodward/routinely/internal/recurrence"
	"github.com/ewoodward/routinely/internal/services"
)

// TaskContent is the user-editable payload of a task.
type TaskContent struct {
	Name         string
	Description  string
	Points       int
	DurationMins *int
	TimeOfDay    *models.TimeOfDay
}

// CreateTasksInput is one create intent: content, target days, target
// members. SourceTemplateID is set when the intent came from copying or
// dragging a task that already belongs to a recurring series.
type CreateTasksInput struct {
	Content          TaskContent
	Days             []string
	MemberIDs        []string
	Recurring        bool
	SourceTemplateID *string
}

// DeleteTasksInput targets one occurrence plus a scope. AllMembers widens
// the delete to every member of the series.
type DeleteTasksInput struct {
	Occurrence models.TaskOccurrence
	Scope      models.DeleteScope
	AllMembers bool
}

// Planner is the bulk operation orchestrator: it owns the calendar store,
// the order ledger, the routine guard and the template list, and is the only
// thing that mutates them. Create, update and delete are pessimistic — local
// state changes only after the backend confirms. Reorder is optimistic.
type Planner struct {
	api      API
	guard    *RoutineGuard
	calendar *CalendarStore
	ledger   *OrderLedger
	logger   *slog.Logger

	templates map[string]models.RecurringTemplate

	creatingTasks atomic.Bool
	deletingTask  atomic.Bool
}

func New(api API, familyID string) *Planner {
	return &Planner{
		api:       api,
		guard:     NewRoutineGuard(api, familyID, "My Routine"),
		calendar:  NewCalendarStore(),
		ledger:    NewOrderLedger(),
		logger:    slog.Default(),
		templates: make(map[string]models.RecurringTemplate),
	}
}

// Rehydrate rebuilds all client state from one full-data read.
func (planner *Planner) Rehydrate(ctx context.Context) error {
	routine, err := planner.guard.Ensure(ctx)
	if err != nil {
		return err
	}

	fullData, err := planner.api.GetRoutineFullData(ctx, routine.ID)
	if err != nil {
		return &BulkOperationError{Op: "loading routine data", Err: err}
	}

	planner.calendar.Reset(fullData.IndividualTasks)
	planner.ledger.Reset(fullData.DayOrders)
	planner.templates = make(map[string]models.RecurringTemplate, len(fullData.RecurringTemplates))
	for _, template := range fullData.RecurringTemplates {
		planner.templates[template.ID] = template
	}
	return nil
}

// CreateTasks fans one intent out to |days| x |members| occurrences. A
// source task already on a recurring series extends that series instead of
// minting a duplicate template when the target days cover the series' days.
func (planner *Planner) CreateTasks(ctx context.Context, input CreateTasksInput) ([]models.TaskOccurrence, error) {
	days := recurrence.SortWeekOrder(recurrence.Normalize(input.Days))
	if len(days) == 0 {
		return nil, &ValidationError{Message: "select at least one day"}
	}
	if len(input.MemberIDs) == 0 {
		return nil, &ValidationError{Message: "select at least one member"}
	}
	if input.Content.Name == "" {
		return nil, &ValidationError{Message: "task name is required"}
	}

	if !planner.creatingTasks.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer planner.creatingTasks.Store(false)

	routine, err := planner.guard.Ensure(ctx)
	if err != nil {
		return nil, err
	}

	request := services.BulkAssignInput{
		TaskTemplate: services.TaskContent{
			Name:         input.Content.Name,
			Description:  input.Content.Description,
			Points:       input.Content.Points,
			DurationMins: input.Content.DurationMins,
			TimeOfDay:    input.Content.TimeOfDay,
		},
	}
	for _, memberID := range input.MemberIDs {
		request.Assignments = append(request.Assignments, services.AssignmentSpec{
			MemberID:   memberID,
			DaysOfWeek: days,
		})
	}

	if existingID, ok := planner.extendableTemplate(input.SourceTemplateID, days); ok {
		request.ExistingRecurringTemplateID = &existingID
	} else {
		request.CreateRecurringTemplate = input.Recurring || len(days) > 1
	}

	result, err := planner.api.BulkCreateIndividualTasks(ctx, routine.ID, request)
	if err != nil {
		return nil, &BulkOperationError{Op: "creating tasks", Err: err}
	}
	for _, occurrence := range result.CreatedTasks {
		if occurrence.MemberID == "" {
			// An occurrence with no member cannot be placed in any
			// per-member bucket; reject the response instead of
			// rendering it.
			return nil, &BulkOperationError{
				Op:  "creating tasks",
				Err: fmt.Errorf("response occurrence %s has no member_id", occurrence.ID),
			}
		}
	}

	planner.calendar.Insert(result.CreatedTasks...)
	if result.RecurringTemplateID != nil {
		recordedDays := result.DaysAssigned
		if existing, ok := planner.templates[*result.RecurringTemplateID]; ok {
			// Extending: the template now covers its old days plus the new ones.
			recordedDays = mergeDays(existing.DaysOfWeek, result.DaysAssigned)
		}
		planner.recordTemplate(routine.ID, *result.RecurringTemplateID, input.Content, recordedDays)
	}
	return result.CreatedTasks, nil
}

// UpdateRecurringTasks replaces a whole recurring series: day changes,
// content changes, or both. Every old occurrence of the template is purged
// from the calendar before the updated set is inserted — across all days,
// because the edit can move the series to different days.
func (planner *Planner) UpdateRecurringTasks(ctx context.Context, templateID string, content TaskContent, newDays []string, memberIDs []string) error {
	days := recurrence.SortWeekOrder(recurrence.Normalize(newDays))
	if len(days) == 0 {
		return &ValidationError{Message: "select at least one day"}
	}
	if len(memberIDs) == 0 {
		return &ValidationError{Message: "select at least one member"}
	}

	routine, err := planner.guard.Ensure(ctx)
	if err != nil {
		return err
	}

	request := services.BulkUpdateInput{
		RecurringTemplateID: templateID,
		TaskTemplate: services.TaskContent{
			Name:         content.Name,
			Description:  content.Description,
			Points:       content.Points,
			DurationMins: content.DurationMins,
			TimeOfDay:    content.TimeOfDay,
		},
		NewDaysOfWeek: days,
	}
	for _, memberID := range memberIDs {
		request.Assignments = append(request.Assignments, services.AssignmentSpec{
			MemberID:   memberID,
			DaysOfWeek: days,
		})
	}

	result, err := planner.api.BulkUpdateRecurringTasks(ctx, routine.ID, request)
	if err != nil {
		return &BulkOperationError{Op: "updating recurring tasks", Err: err}
	}

	planner.calendar.PurgeTemplate(templateID)
	planner.calendar.Insert(result.UpdatedTasks...)
	planner.recordTemplate(routine.ID, templateID, content, days)
	return nil
}

// NeedsScopePrompt reports whether deleting this occurrence should go
// through the multi-day confirmation flow. Recurring tasks qualify by
// template id; legacy rows without one qualify when the same name appears on
// more than one day for the member.
func (planner *Planner) NeedsScopePrompt(occurrence models.TaskOccurrence) bool {
	if occurrence.RecurringTemplateID != nil {
		return true
	}
	return planner.calendar.DayCountFor(occurrence.Name, occurrence.MemberID) > 1
}

// DeleteTasks removes part or all of a series according to scope. A legacy
// row without a template id deletes as a single occurrence by id whatever
// scope was chosen, since the delete endpoint has no name-based filter.
// Template cleanups reported by the backend are informational; they are
// logged and mirrored locally, never treated as failure.
func (planner *Planner) DeleteTasks(ctx context.Context, input DeleteTasksInput) error {
	if !planner.deletingTask.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer planner.deletingTask.Store(false)

	routine, err := planner.guard.Ensure(ctx)
	if err != nil {
		return err
	}

	request := services.BulkDeleteInput{
		RecurringTemplateID: input.Occurrence.RecurringTemplateID,
		DeleteScope:         input.Scope,
		TargetDay:           input.Occurrence.DayOfWeek,
	}
	if input.Occurrence.RecurringTemplateID == nil {
		occurrenceID := input.Occurrence.ID
		request.OccurrenceID = &occurrenceID
	}
	if !input.AllMembers {
		memberID := input.Occurrence.MemberID
		request.MemberID = &memberID
	}

	result, err := planner.api.BulkDeleteTasks(ctx, routine.ID, request)
	if err != nil {
		return &BulkOperationError{Op: "deleting tasks", Err: err}
	}

	planner.applyDelete(input, result)
	return nil
}

func (planner *Planner) applyDelete(input DeleteTasksInput, result services.BulkDeleteResult) {
	templateID := input.Occurrence.RecurringTemplateID
	var memberFilter *string
	if !input.AllMembers {
		memberID := input.Occurrence.MemberID
		memberFilter = &memberID
	}

	switch {
	case templateID == nil:
		planner.calendar.RemoveOccurrence(input.Occurrence.DayOfWeek, input.Occurrence.ID)
		planner.ledger.Drop(input.Occurrence.ID)
	case input.Scope == models.DeleteScopeThisDay:
		planner.calendar.RemoveScoped(*templateID, []string{input.Occurrence.DayOfWeek}, memberFilter)
	case input.Scope == models.DeleteScopeThisAndFollowing:
		planner.calendar.RemoveScoped(*templateID, recurrence.DaysOnOrAfter(input.Occurrence.DayOfWeek), memberFilter)
	case input.Scope == models.DeleteScopeAllDays:
		planner.calendar.RemoveScoped(*templateID, recurrence.WeekOrder, memberFilter)
	}

	for _, cleanedID := range result.CleanedTemplates {
		planner.logger.Info("backend cleaned up recurring template", "template_id", cleanedID)
		delete(planner.templates, cleanedID)
	}
}

// Reorder persists a new order for one (member, day) immediately on drop.
// The local ledger is updated first; a failed write keeps the visual order
// and surfaces an OrderPersistenceError for non-blocking display.
func (planner *Planner) Reorder(ctx context.Context, memberID, day string, orderedOccurrenceIDs []string) error {
	key := OrderKey{MemberID: memberID, DayOfWeek: day}
	planner.ledger.SetLocal(key, orderedOccurrenceIDs)

	routine, ok := planner.guard.Current()
	if !ok {
		return &OrderPersistenceError{Key: key, Err: fmt.Errorf("no routine loaded")}
	}

	update := DayOrderUpdate{MemberID: memberID, DayOfWeek: day}
	for position, occurrenceID := range orderedOccurrenceIDs {
		update.TaskOrders = append(update.TaskOrders, TaskOrder{
			OccurrenceID: occurrenceID,
			OrderIndex:   position,
		})
	}

	orders, err := planner.api.BulkUpdateDayOrders(ctx, routine.ID, update)
	if err != nil {
		planner.logger.Error("saving day order", "member_id", memberID, "day", day, "error", err)
		return &OrderPersistenceError{Key: key, Err: err}
	}

	planner.ledger.Apply(orders)
	return nil
}

// OrderedTasksFor returns one member's tasks for a day with the ledger
// overlay applied: ordered entries first by index, unordered ones appended
// in arrival order.
func (planner *Planner) OrderedTasksFor(day, memberID string) []models.TaskOccurrence {
	tasks := planner.calendar.MemberTasksFor(day, memberID)
	return planner.ledger.EffectiveOrder(OrderKey{MemberID: memberID, DayOfWeek: day}, tasks)
}

// Calendar exposes the store read-only for views.
func (planner *Planner) Calendar() *CalendarStore {
	return planner.calendar
}

// Templates returns the current recurring template list.
func (planner *Planner) Templates() []models.RecurringTemplate {
	out := make([]models.RecurringTemplate, 0, len(planner.templates))
	for _, template := range planner.templates {
		out = append(out, template)
	}
	return out
}

// DescribeTemplate renders the recurrence summary label for a template.
func (planner *Planner) DescribeTemplate(templateID string, hasException bool) string {
	template, ok := planner.templates[templateID]
	if !ok {
		return ""
	}
	return recurrence.Describe(template.DaysOfWeek, hasException)
}

// extendableTemplate decides between extending an existing series and
// creating a fresh one: extend only when the source task carries a template
// and the target day set covers the template's current days.
func (planner *Planner) extendableTemplate(sourceTemplateID *string, targetDays []string) (string, bool) {
	if sourceTemplateID == nil {
		return "", false
	}
	template, ok := planner.templates[*sourceTemplateID]
	if !ok {
		return "", false
	}
	if !recurrence.Subset(template.DaysOfWeek, targetDays) {
		return "", false
	}
	return template.ID, true
}

func mergeDays(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var merged []string
	for _, day := range append(append([]string{}, a...), b...) {
		if !seen[day] {
			seen[day] = true
			merged = append(merged, day)
		}
	}
	return recurrence.SortWeekOrder(merged)
}

func (planner *Planner) recordTemplate(routineID, templateID string, content TaskContent, days []string) {
	frequency := models.FrequencySpecificDays
	if recurrence.Classify(days, false) == recurrence.EveryDay {
		frequency = models.FrequencyEveryDay
	}
	planner.templates[templateID] = models.RecurringTemplate{
		ID:            templateID,
		RoutineID:     routineID,
		Name:          content.Name,
		Description:   content.Description,
		Points:        content.Points,
		DurationMins:  content.DurationMins,
		TimeOfDay:     content.TimeOfDay,
		FrequencyType: frequency,
		DaysOfWeek:    days,
	}
}
