package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/ewoodward/routinely/internal/recurrence"
	"github.com/ewoodward/routinely/internal/repository"
)

var (
	ErrNoAssignments    = errors.New("at least one assignment is required")
	ErrNoTargetDays     = errors.New("at least one target day is required")
	ErrUnknownScope     = errors.New("unknown delete scope")
	ErrInvalidTargetDay = errors.New("target day is not a valid weekday")
)

// TaskContent is the per-task payload shared by occurrences and their
// template.
type TaskContent struct {
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Points       int               `json:"points"`
	DurationMins *int              `json:"duration_mins,omitempty"`
	TimeOfDay    *models.TimeOfDay `json:"time_of_day,omitempty"`
}

// AssignmentSpec names one member and the weekdays the task lands on for
// that member.
type AssignmentSpec struct {
	MemberID   string   `json:"member_id"`
	DaysOfWeek []string `json:"days_of_week"`
}

type BulkAssignInput struct {
	TaskTemplate                TaskContent      `json:"task_template"`
	Assignments                 []AssignmentSpec `json:"assignments"`
	CreateRecurringTemplate     bool             `json:"create_recurring_template"`
	ExistingRecurringTemplateID *string          `json:"existing_recurring_template_id,omitempty"`
}

type BulkAssignResult struct {
	RoutineID           string                  `json:"routine_id"`
	RecurringTemplateID *string                 `json:"recurring_template_id,omitempty"`
	TasksCreated        int                     `json:"tasks_created"`
	MembersAssigned     []string                `json:"members_assigned"`
	DaysAssigned        []string                `json:"days_assigned"`
	CreatedTasks        []models.TaskOccurrence `json:"created_tasks"`
}

type BulkUpdateInput struct {
	RecurringTemplateID string           `json:"recurring_template_id"`
	TaskTemplate        TaskContent      `json:"task_template"`
	Assignments         []AssignmentSpec `json:"assignments"`
	NewDaysOfWeek       []string         `json:"new_days_of_week"`
}

type BulkUpdateResult struct {
	RoutineID           string                  `json:"routine_id"`
	RecurringTemplateID string                  `json:"recurring_template_id"`
	TasksCreated        int                     `json:"tasks_created"`
	TasksUpdated        int                     `json:"tasks_updated"`
	TasksDeleted        int                     `json:"tasks_deleted"`
	DaysAssigned        []string                `json:"days_assigned"`
	UpdatedTasks        []models.TaskOccurrence `json:"updated_tasks"`
}

type BulkDeleteInput struct {
	RecurringTemplateID *string            `json:"recurring_template_id,omitempty"`
	OccurrenceID        *string            `json:"occurrence_id,omitempty"`
	DeleteScope         models.DeleteScope `json:"delete_scope"`
	TargetDay           string             `json:"target_day,omitempty"`
	MemberID            *string            `json:"member_id,omitempty"`
}

type BulkDeleteResult struct {
	RoutineID        string   `json:"routine_id"`
	TasksDeleted     int      `json:"tasks_deleted"`
	DaysAffected     []string `json:"days_affected"`
	CleanedTemplates []string `json:"cleaned_templates"`
}

// FullData is the single rehydration read: everything a calendar view needs
// to rebuild its state from scratch.
type FullData struct {
	Routine            models.Routine             `json:"routine"`
	Groups             []models.TaskGroup         `json:"groups"`
	IndividualTasks    []models.TaskOccurrence    `json:"individual_tasks"`
	RecurringTemplates []models.RecurringTemplate `json:"recurring_templates"`
	Schedules          []models.RoutineSchedule   `json:"schedules"`
	DayOrders          []models.DaySpecificOrder  `json:"day_orders"`
}

// BulkTaskService owns the fan-out from user intent to persisted rows: one
// template per recurring series, one occurrence per (day, member) pair, and
// the scope arithmetic for partial deletes. The consistency target is that
// the occurrences of a template, projected onto weekdays, always equal the
// template's day set for every assigned member.
type BulkTaskService struct {
	routineRepo    repository.RoutineRepository
	templateRepo   repository.RecurringTemplateRepository
	occurrenceRepo repository.TaskOccurrenceRepository
	dayOrderRepo   repository.DayOrderRepository
	groupRepo      repository.TaskGroupRepository
	scheduleRepo   repository.RoutineScheduleRepository
}

func NewBulkTaskService(
	routineRepo repository.RoutineRepository,
	templateRepo repository.RecurringTemplateRepository,
	occurrenceRepo repository.TaskOccurrenceRepository,
	dayOrderRepo repository.DayOrderRepository,
	groupRepo repository.TaskGroupRepository,
	scheduleRepo repository.RoutineScheduleRepository,
) *BulkTaskService {
	return &BulkTaskService{
		routineRepo:    routineRepo,
		templateRepo:   templateRepo,
		occurrenceRepo: occurrenceRepo,
		dayOrderRepo:   dayOrderRepo,
		groupRepo:      groupRepo,
		scheduleRepo:   scheduleRepo,
	}
}

func (service *BulkTaskService) BulkAssign(ctx context.Context, routineID string, input BulkAssignInput) (BulkAssignResult, error) {
	if len(input.Assignments) == 0 {
		return BulkAssignResult{}, ErrNoAssignments
	}

	routine, err := service.routineRepo.FindByID(ctx, routineID)
	if err != nil {
		return BulkAssignResult{}, fmt.Errorf("loading routine: %w", err)
	}

	allDays := collectDays(input.Assignments)
	if len(allDays) == 0 {
		return BulkAssignResult{}, ErrNoTargetDays
	}

	var templateID *string
	switch {
	case input.ExistingRecurringTemplateID != nil:
		extended, err := service.extendTemplate(ctx, *input.ExistingRecurringTemplateID, allDays)
		if err != nil {
			return BulkAssignResult{}, err
		}
		templateID = &extended.ID
	case input.CreateRecurringTemplate || len(allDays) > 1:
		template, err := service.templateRepo.Create(ctx, models.RecurringTemplate{
			RoutineID:     routine.ID,
			Name:          input.TaskTemplate.Name,
			Description:   input.TaskTemplate.Description,
			Points:        input.TaskTemplate.Points,
			DurationMins:  input.TaskTemplate.DurationMins,
			TimeOfDay:     input.TaskTemplate.TimeOfDay,
			FrequencyType: frequencyFor(allDays),
			DaysOfWeek:    allDays,
		})
		if err != nil {
			return BulkAssignResult{}, fmt.Errorf("creating recurring template: %w", err)
		}
		templateID = &template.ID
	}

	result := BulkAssignResult{
		RoutineID:           routine.ID,
		RecurringTemplateID: templateID,
		DaysAssigned:        allDays,
	}

	for _, assignment := range input.Assignments {
		days := recurrence.SortWeekOrder(recurrence.Normalize(assignment.DaysOfWeek))
		existingDays, err := service.occurrenceDays(ctx, routine.ID, templateID, assignment.MemberID)
		if err != nil {
			return BulkAssignResult{}, err
		}
		for _, day := range days {
			if templateID != nil && existingDays[day] {
				// Extending a template must not duplicate days the
				// member already has.
				continue
			}
			occurrence, err := service.occurrenceRepo.Create(ctx, models.TaskOccurrence{
				RoutineID:           routine.ID,
				RecurringTemplateID: templateID,
				MemberID:            assignment.MemberID,
				DayOfWeek:           day,
				Name:                input.TaskTemplate.Name,
				Description:         input.TaskTemplate.Description,
				Points:              input.TaskTemplate.Points,
				DurationMins:        input.TaskTemplate.DurationMins,
				TimeOfDay:           input.TaskTemplate.TimeOfDay,
			})
			if err != nil {
				return BulkAssignResult{}, fmt.Errorf("creating occurrence: %w", err)
			}
			result.CreatedTasks = append(result.CreatedTasks, occurrence)
		}
		result.MembersAssigned = append(result.MembersAssigned, assignment.MemberID)
	}
	result.TasksCreated = len(result.CreatedTasks)

	return result, nil
}

// BulkUpdate replaces a recurring series wholesale: removed days are deleted,
// added days are created, retained days get the new content, per member.
func (service *BulkTaskService) BulkUpdate(ctx context.Context, routineID string, input BulkUpdateInput) (BulkUpdateResult, error) {
	if len(input.Assignments) == 0 {
		return BulkUpdateResult{}, ErrNoAssignments
	}

	template, err := service.templateRepo.FindByID(ctx, input.RecurringTemplateID)
	if err != nil {
		return BulkUpdateResult{}, fmt.Errorf("loading template: %w", err)
	}

	newDays := recurrence.SortWeekOrder(recurrence.Normalize(input.NewDaysOfWeek))
	if len(newDays) == 0 {
		return BulkUpdateResult{}, ErrNoTargetDays
	}

	template.Name = input.TaskTemplate.Name
	template.Description = input.TaskTemplate.Description
	template.Points = input.TaskTemplate.Points
	template.DurationMins = input.TaskTemplate.DurationMins
	template.TimeOfDay = input.TaskTemplate.TimeOfDay
	template.DaysOfWeek = newDays
	template.FrequencyType = frequencyFor(newDays)
	if err := service.templateRepo.Update(ctx, template); err != nil {
		return BulkUpdateResult{}, fmt.Errorf("updating template: %w", err)
	}

	result := BulkUpdateResult{
		RoutineID:           routineID,
		RecurringTemplateID: template.ID,
		DaysAssigned:        newDays,
	}

	newDaySet := make(map[string]bool, len(newDays))
	for _, day := range newDays {
		newDaySet[day] = true
	}

	// Assignments are the authoritative membership for the series. Members
	// left off the list are dropped from it, so the response really is the
	// complete post-update occurrence set for the template.
	assigned := make(map[string]bool, len(input.Assignments))
	for _, assignment := range input.Assignments {
		assigned[assignment.MemberID] = true
	}
	current, err := service.occurrenceRepo.FindFiltered(ctx, routineID, repository.OccurrenceFilter{
		RecurringTemplateID: &template.ID,
	})
	if err != nil {
		return BulkUpdateResult{}, fmt.Errorf("loading template occurrences: %w", err)
	}
	for _, occurrence := range current {
		if assigned[occurrence.MemberID] {
			continue
		}
		if err := service.occurrenceRepo.Delete(ctx, occurrence.ID); err != nil {
			return BulkUpdateResult{}, fmt.Errorf("deleting unassigned-member occurrence: %w", err)
		}
		if err := service.dayOrderRepo.DeleteForOccurrences(ctx, []string{occurrence.ID}); err != nil {
			return BulkUpdateResult{}, err
		}
		result.TasksDeleted++
	}

	for _, assignment := range input.Assignments {
		memberID := assignment.MemberID
		existing, err := service.occurrenceRepo.FindFiltered(ctx, routineID, repository.OccurrenceFilter{
			RecurringTemplateID: &template.ID,
			MemberID:            &memberID,
		})
		if err != nil {
			return BulkUpdateResult{}, fmt.Errorf("loading existing occurrences: %w", err)
		}

		existingByDay := make(map[string]models.TaskOccurrence, len(existing))
		for _, occurrence := range existing {
			existingByDay[occurrence.DayOfWeek] = occurrence
		}

		for day, occurrence := range existingByDay {
			if newDaySet[day] {
				continue
			}
			if err := service.occurrenceRepo.Delete(ctx, occurrence.ID); err != nil {
				return BulkUpdateResult{}, fmt.Errorf("deleting removed-day occurrence: %w", err)
			}
			if err := service.dayOrderRepo.DeleteForOccurrences(ctx, []string{occurrence.ID}); err != nil {
				return BulkUpdateResult{}, err
			}
			result.TasksDeleted++
		}

		for _, day := range newDays {
			if occurrence, ok := existingByDay[day]; ok {
				occurrence.Name = input.TaskTemplate.Name
				occurrence.Description = input.TaskTemplate.Description
				occurrence.Points = input.TaskTemplate.Points
				occurrence.DurationMins = input.TaskTemplate.DurationMins
				occurrence.TimeOfDay = input.TaskTemplate.TimeOfDay
				occurrence.IsException = false
				if err := service.occurrenceRepo.Update(ctx, occurrence); err != nil {
					return BulkUpdateResult{}, fmt.Errorf("overwriting occurrence: %w", err)
				}
				result.TasksUpdated++
				result.UpdatedTasks = append(result.UpdatedTasks, occurrence)
				continue
			}
			occurrence, err := service.occurrenceRepo.Create(ctx, models.TaskOccurrence{
				RoutineID:           routineID,
				RecurringTemplateID: &template.ID,
				MemberID:            memberID,
				DayOfWeek:           day,
				Name:                input.TaskTemplate.Name,
				Description:         input.TaskTemplate.Description,
				Points:              input.TaskTemplate.Points,
				DurationMins:        input.TaskTemplate.DurationMins,
				TimeOfDay:           input.TaskTemplate.TimeOfDay,
			})
			if err != nil {
				return BulkUpdateResult{}, fmt.Errorf("creating added-day occurrence: %w", err)
			}
			result.TasksCreated++
			result.UpdatedTasks = append(result.UpdatedTasks, occurrence)
		}
	}

	return result, nil
}

func (service *BulkTaskService) BulkDelete(ctx context.Context, routineID string, input BulkDeleteInput) (BulkDeleteResult, error) {
	filter := repository.OccurrenceFilter{
		RecurringTemplateID: input.RecurringTemplateID,
		MemberID:            input.MemberID,
	}

	switch input.DeleteScope {
	case models.DeleteScopeThisDay:
		filter.DaysOfWeek = recurrence.Normalize([]string{input.TargetDay})
	case models.DeleteScopeThisAndFollowing:
		filter.DaysOfWeek = recurrence.DaysOnOrAfter(input.TargetDay)
	case models.DeleteScopeAllDays:
		// no day filter
	default:
		return BulkDeleteResult{}, ErrUnknownScope
	}

	// An empty day filter on a day-scoped delete would widen to the whole
	// series. A bad target day must fail, never escalate the scope.
	if input.DeleteScope != models.DeleteScopeAllDays && len(filter.DaysOfWeek) == 0 {
		return BulkDeleteResult{}, ErrInvalidTargetDay
	}

	// A templateless single task deletes by id.
	if input.RecurringTemplateID == nil && input.OccurrenceID != nil {
		occurrence, err := service.occurrenceRepo.FindByID(ctx, *input.OccurrenceID)
		if err != nil {
			return BulkDeleteResult{}, fmt.Errorf("loading occurrence: %w", err)
		}
		if err := service.occurrenceRepo.Delete(ctx, occurrence.ID); err != nil {
			return BulkDeleteResult{}, err
		}
		if err := service.dayOrderRepo.DeleteForOccurrences(ctx, []string{occurrence.ID}); err != nil {
			return BulkDeleteResult{}, err
		}
		return BulkDeleteResult{
			RoutineID:    routineID,
			TasksDeleted: 1,
			DaysAffected: []string{occurrence.DayOfWeek},
		}, nil
	}

	doomed, err := service.occurrenceRepo.FindFiltered(ctx, routineID, filter)
	if err != nil {
		return BulkDeleteResult{}, fmt.Errorf("loading occurrences to delete: %w", err)
	}

	doomedIDs := make([]string, 0, len(doomed))
	daysAffected := make(map[string]bool)
	for _, occurrence := range doomed {
		doomedIDs = append(doomedIDs, occurrence.ID)
		daysAffected[occurrence.DayOfWeek] = true
	}

	deleted, err := service.occurrenceRepo.DeleteFiltered(ctx, routineID, filter)
	if err != nil {
		return BulkDeleteResult{}, err
	}
	if err := service.dayOrderRepo.DeleteForOccurrences(ctx, doomedIDs); err != nil {
		return BulkDeleteResult{}, err
	}

	result := BulkDeleteResult{
		RoutineID:    routineID,
		TasksDeleted: deleted,
	}
	for day := range daysAffected {
		result.DaysAffected = append(result.DaysAffected, day)
	}
	recurrence.SortWeekOrder(result.DaysAffected)

	if input.RecurringTemplateID != nil {
		cleaned, err := service.reconcileTemplateAfterDelete(ctx, routineID, *input.RecurringTemplateID, input.DeleteScope, input.MemberID)
		if err != nil {
			return BulkDeleteResult{}, err
		}
		result.CleanedTemplates = cleaned
	}

	return result, nil
}

// UpdateTemplateDays rewrites a template's day set directly, deleting
// occurrences for dropped days and backfilling added days for every member
// already on the template. An emptied day set deletes the template.
func (service *BulkTaskService) UpdateTemplateDays(ctx context.Context, routineID, templateID string, daysOfWeek []string) (models.RecurringTemplate, error) {
	template, err := service.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		return models.RecurringTemplate{}, fmt.Errorf("loading template: %w", err)
	}

	newDays := recurrence.SortWeekOrder(recurrence.Normalize(daysOfWeek))
	if len(newDays) == 0 {
		if _, err := service.BulkDelete(ctx, routineID, BulkDeleteInput{
			RecurringTemplateID: &template.ID,
			DeleteScope:         models.DeleteScopeAllDays,
		}); err != nil {
			return models.RecurringTemplate{}, err
		}
		return models.RecurringTemplate{}, nil
	}

	newDaySet := make(map[string]bool, len(newDays))
	for _, day := range newDays {
		newDaySet[day] = true
	}

	existing, err := service.occurrenceRepo.FindFiltered(ctx, routineID, repository.OccurrenceFilter{
		RecurringTemplateID: &template.ID,
	})
	if err != nil {
		return models.RecurringTemplate{}, fmt.Errorf("loading template occurrences: %w", err)
	}

	memberDays := make(map[string]map[string]bool)
	for _, occurrence := range existing {
		if memberDays[occurrence.MemberID] == nil {
			memberDays[occurrence.MemberID] = make(map[string]bool)
		}
		memberDays[occurrence.MemberID][occurrence.DayOfWeek] = true
		if newDaySet[occurrence.DayOfWeek] {
			continue
		}
		if err := service.occurrenceRepo.Delete(ctx, occurrence.ID); err != nil {
			return models.RecurringTemplate{}, err
		}
		if err := service.dayOrderRepo.DeleteForOccurrences(ctx, []string{occurrence.ID}); err != nil {
			return models.RecurringTemplate{}, err
		}
	}

	for memberID, has := range memberDays {
		for _, day := range newDays {
			if has[day] {
				continue
			}
			if _, err := service.occurrenceRepo.Create(ctx, models.TaskOccurrence{
				RoutineID:           routineID,
				RecurringTemplateID: &template.ID,
				MemberID:            memberID,
				DayOfWeek:           day,
				Name:                template.Name,
				Description:         template.Description,
				Points:              template.Points,
				DurationMins:        template.DurationMins,
				TimeOfDay:           template.TimeOfDay,
			}); err != nil {
				return models.RecurringTemplate{}, fmt.Errorf("backfilling occurrence: %w", err)
			}
		}
	}

	if err := service.templateRepo.UpdateDays(ctx, template.ID, newDays, frequencyFor(newDays)); err != nil {
		return models.RecurringTemplate{}, err
	}
	template.DaysOfWeek = newDays
	template.FrequencyType = frequencyFor(newDays)
	return template, nil
}

func (service *BulkTaskService) GetFullData(ctx context.Context, routineID string) (FullData, error) {
	routine, err := service.routineRepo.FindByID(ctx, routineID)
	if err != nil {
		return FullData{}, fmt.Errorf("loading routine: %w", err)
	}

	groups, err := service.groupRepo.FindByRoutine(ctx, routineID)
	if err != nil {
		return FullData{}, err
	}
	occurrences, err := service.occurrenceRepo.FindByRoutine(ctx, routineID)
	if err != nil {
		return FullData{}, err
	}
	templates, err := service.templateRepo.FindByRoutine(ctx, routineID)
	if err != nil {
		return FullData{}, err
	}
	schedules, err := service.scheduleRepo.FindByRoutine(ctx, routineID)
	if err != nil {
		return FullData{}, err
	}
	dayOrders, err := service.dayOrderRepo.FindByRoutine(ctx, routineID)
	if err != nil {
		return FullData{}, err
	}

	return FullData{
		Routine:            routine,
		Groups:             groups,
		IndividualTasks:    occurrences,
		RecurringTemplates: templates,
		Schedules:          schedules,
		DayOrders:          dayOrders,
	}, nil
}

// extendTemplate merges extra days into an existing template instead of
// minting a duplicate. Duplicate templates for what the user sees as one
// recurring task are a correctness bug.
func (service *BulkTaskService) extendTemplate(ctx context.Context, templateID string, days []string) (models.RecurringTemplate, error) {
	template, err := service.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		return models.RecurringTemplate{}, fmt.Errorf("loading template to extend: %w", err)
	}

	merged := recurrence.SortWeekOrder(recurrence.Normalize(append(template.DaysOfWeek, days...)))
	merged = dedupeDays(merged)
	if err := service.templateRepo.UpdateDays(ctx, template.ID, merged, frequencyFor(merged)); err != nil {
		return models.RecurringTemplate{}, err
	}
	template.DaysOfWeek = merged
	template.FrequencyType = frequencyFor(merged)
	return template, nil
}

// reconcileTemplateAfterDelete trims deleted days off the template, or
// removes the template entirely when nothing references it anymore. Orphan
// templates with zero days must not persist.
func (service *BulkTaskService) reconcileTemplateAfterDelete(ctx context.Context, routineID, templateID string, scope models.DeleteScope, memberID *string) ([]string, error) {
	remaining, err := service.occurrenceRepo.FindFiltered(ctx, routineID, repository.OccurrenceFilter{
		RecurringTemplateID: &templateID,
	})
	if err != nil {
		return nil, fmt.Errorf("checking remaining occurrences: %w", err)
	}

	if len(remaining) == 0 {
		if err := service.templateRepo.Delete(ctx, templateID); err != nil {
			return nil, err
		}
		slog.Info("cleaned up empty recurring template", "template_id", templateID)
		return []string{templateID}, nil
	}

	// A member-scoped delete leaves the template days intact for the other
	// members; a full-width delete narrows the template's day set.
	if memberID == nil && scope != models.DeleteScopeAllDays {
		remainingDays := make(map[string]bool)
		for _, occurrence := range remaining {
			remainingDays[occurrence.DayOfWeek] = true
		}
		days := make([]string, 0, len(remainingDays))
		for day := range remainingDays {
			days = append(days, day)
		}
		recurrence.SortWeekOrder(days)
		if err := service.templateRepo.UpdateDays(ctx, templateID, days, frequencyFor(days)); err != nil {
			return nil, err
		}
	}

	return nil, nil
}

func (service *BulkTaskService) occurrenceDays(ctx context.Context, routineID string, templateID *string, memberID string) (map[string]bool, error) {
	if templateID == nil {
		return map[string]bool{}, nil
	}
	existing, err := service.occurrenceRepo.FindFiltered(ctx, routineID, repository.OccurrenceFilter{
		RecurringTemplateID: templateID,
		MemberID:            &memberID,
	})
	if err != nil {
		return nil, fmt.Errorf("loading member occurrences: %w", err)
	}
	days := make(map[string]bool, len(existing))
	for _, occurrence := range existing {
		days[occurrence.DayOfWeek] = true
	}
	return days, nil
}

func collectDays(assignments []AssignmentSpec) []string {
	var all []string
	for _, assignment := range assignments {
		all = append(all, assignment.DaysOfWeek...)
	}
	return dedupeDays(recurrence.SortWeekOrder(recurrence.Normalize(all)))
}

func dedupeDays(days []string) []string {
	seen := make(map[string]bool, len(days))
	out := days[:0]
	for _, day := range days {
		if !seen[day] {
			seen[day] = true
			out = append(out, day)
		}
	}
	return out
}

func frequencyFor(days []string) models.FrequencyType {
	if recurrence.Classify(days, false) == recurrence.EveryDay {
		return models.FrequencyEveryDay
	}
	return models.FrequencySpecificDays
}
