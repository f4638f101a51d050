package planner

import (
	"sync"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/ewoodward/routinely/internal/recurrence"
)

// DayTasks is what the view renders for one weekday.
type DayTasks struct {
	GroupTasks      []models.TaskOccurrence
	IndividualTasks []models.TaskOccurrence
}

// CalendarStore is the single source of truth for what the week view shows:
// a day-keyed mapping of grouped and individual occurrences. All mutations go
// through its methods; nothing else may splice the slices, which is what
// keeps the per-template day-set invariant enforceable in one place.
type CalendarStore struct {
	mu   sync.Mutex
	days map[string]*DayTasks
}

func NewCalendarStore() *CalendarStore {
	store := &CalendarStore{days: make(map[string]*DayTasks, len(recurrence.WeekOrder))}
	for _, day := range recurrence.WeekOrder {
		store.days[day] = &DayTasks{}
	}
	return store
}

// Reset drops every entry and reloads from a full-data read.
func (store *CalendarStore) Reset(occurrences []models.TaskOccurrence) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, day := range recurrence.WeekOrder {
		store.days[day] = &DayTasks{}
	}
	for _, occurrence := range occurrences {
		store.insertLocked(occurrence)
	}
}

// Insert places occurrences into their day buckets. Merges are keyed on
// occurrence id, never array position, so out-of-order completions of
// unrelated bulk calls land correctly.
func (store *CalendarStore) Insert(occurrences ...models.TaskOccurrence) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, occurrence := range occurrences {
		store.insertLocked(occurrence)
	}
}

func (store *CalendarStore) insertLocked(occurrence models.TaskOccurrence) {
	bucket, ok := store.days[occurrence.DayOfWeek]
	if !ok {
		return
	}
	if occurrence.GroupID != nil {
		bucket.GroupTasks = upsertByID(bucket.GroupTasks, occurrence)
		return
	}
	bucket.IndividualTasks = upsertByID(bucket.IndividualTasks, occurrence)
}

// PurgeTemplate removes every occurrence carrying the template id, across
// all days. An update can change which days a series appears on, so a purge
// scoped to the originating day would leave stale occurrences behind.
func (store *CalendarStore) PurgeTemplate(templateID string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, bucket := range store.days {
		bucket.GroupTasks = rejectOccurrences(bucket.GroupTasks, func(occurrence models.TaskOccurrence) bool {
			return occurrence.RecurringTemplateID != nil && *occurrence.RecurringTemplateID == templateID
		})
		bucket.IndividualTasks = rejectOccurrences(bucket.IndividualTasks, func(occurrence models.TaskOccurrence) bool {
			return occurrence.RecurringTemplateID != nil && *occurrence.RecurringTemplateID == templateID
		})
	}
}

// RemoveScoped removes a template's occurrences on the given days, for one
// member or for all members when memberID is nil.
func (store *CalendarStore) RemoveScoped(templateID string, days []string, memberID *string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, day := range days {
		bucket, ok := store.days[day]
		if !ok {
			continue
		}
		match := func(occurrence models.TaskOccurrence) bool {
			if occurrence.RecurringTemplateID == nil || *occurrence.RecurringTemplateID != templateID {
				return false
			}
			return memberID == nil || occurrence.MemberID == *memberID
		}
		bucket.GroupTasks = rejectOccurrences(bucket.GroupTasks, match)
		bucket.IndividualTasks = rejectOccurrences(bucket.IndividualTasks, match)
	}
}

// RemoveOccurrence removes a single occurrence by id from its day.
func (store *CalendarStore) RemoveOccurrence(day, occurrenceID string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	bucket, ok := store.days[day]
	if !ok {
		return
	}
	match := func(occurrence models.TaskOccurrence) bool { return occurrence.ID == occurrenceID }
	bucket.GroupTasks = rejectOccurrences(bucket.GroupTasks, match)
	bucket.IndividualTasks = rejectOccurrences(bucket.IndividualTasks, match)
}

// TasksFor returns a copy of one day's buckets, deduplicated by id. The
// dedupe masks backend duplication defensively; rendering the same id twice
// breaks drag handles.
func (store *CalendarStore) TasksFor(day string) DayTasks {
	store.mu.Lock()
	defer store.mu.Unlock()
	bucket, ok := store.days[day]
	if !ok {
		return DayTasks{}
	}
	return DayTasks{
		GroupTasks:      dedupeByID(bucket.GroupTasks),
		IndividualTasks: dedupeByID(bucket.IndividualTasks),
	}
}

// MemberTasksFor returns one member's individual occurrences for a day, in
// arrival order.
func (store *CalendarStore) MemberTasksFor(day, memberID string) []models.TaskOccurrence {
	tasks := store.TasksFor(day)
	var out []models.TaskOccurrence
	for _, occurrence := range tasks.IndividualTasks {
		if occurrence.MemberID == memberID {
			out = append(out, occurrence)
		}
	}
	return out
}

// DayCountFor counts how many distinct days carry a task with this name for
// this member. Used for delete-scope eligibility on legacy rows that predate
// template ids.
func (store *CalendarStore) DayCountFor(name, memberID string) int {
	store.mu.Lock()
	defer store.mu.Unlock()
	count := 0
	for _, day := range recurrence.WeekOrder {
		bucket := store.days[day]
		for _, occurrence := range append(append([]models.TaskOccurrence{}, bucket.GroupTasks...), bucket.IndividualTasks...) {
			if occurrence.Name == name && occurrence.MemberID == memberID {
				count++
				break
			}
		}
	}
	return count
}

// TemplateDays reports the day set a template's occurrences currently cover
// for one member.
func (store *CalendarStore) TemplateDays(templateID, memberID string) []string {
	store.mu.Lock()
	defer store.mu.Unlock()
	var days []string
	for _, day := range recurrence.WeekOrder {
		bucket := store.days[day]
		for _, occurrence := range append(append([]models.TaskOccurrence{}, bucket.GroupTasks...), bucket.IndividualTasks...) {
			if occurrence.RecurringTemplateID != nil && *occurrence.RecurringTemplateID == templateID && occurrence.MemberID == memberID {
				days = append(days, day)
				break
			}
		}
	}
	return days
}

func upsertByID(occurrences []models.TaskOccurrence, incoming models.TaskOccurrence) []models.TaskOccurrence {
	for i, occurrence := range occurrences {
		if occurrence.ID == incoming.ID {
			occurrences[i] = incoming
			return occurrences
		}
	}
	return append(occurrences, incoming)
}

func rejectOccurrences(occurrences []models.TaskOccurrence, match func(models.TaskOccurrence) bool) []models.TaskOccurrence {
	out := occurrences[:0]
	for _, occurrence := range occurrences {
		if !match(occurrence) {
			out = append(out, occurrence)
		}
	}
	return out
}

func dedupeByID(occurrences []models.TaskOccurrence) []models.TaskOccurrence {
	seen := make(map[string]bool, len(occurrences))
	out := make([]models.TaskOccurrence, 0, len(occurrences))
	for _, occurrence := range occurrences {
		if seen[occurrence.ID] {
			continue
		}
		seen[occurrence.ID] = true
		out = append(out, occurrence)
	}
	return out
}
