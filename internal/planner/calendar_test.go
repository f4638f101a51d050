package planner

import (
	"testing"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/stretchr/testify/assert"
)

func occurrence(id, memberID, day, name string, templateID *string) models.TaskOccurrence {
	return models.TaskOccurrence{
		ID:                  id,
		RoutineID:           "routine-1",
		RecurringTemplateID: templateID,
		MemberID:            memberID,
		DayOfWeek:           day,
		Name:                name,
	}
}

func TestCalendarInsertKeysOnID(t *testing.T) {
	store := NewCalendarStore()

	store.Insert(occurrence("occ-1", "ada", "monday", "Make bed", nil))
	store.Insert(occurrence("occ-1", "ada", "monday", "Make bed (renamed)", nil))

	tasks := store.TasksFor("monday")
	assert.Len(t, tasks.IndividualTasks, 1, "same id must merge, not duplicate")
	assert.Equal(t, "Make bed (renamed)", tasks.IndividualTasks[0].Name)
}

func TestCalendarTasksForDeduplicates(t *testing.T) {
	store := NewCalendarStore()
	store.Insert(
		occurrence("occ-1", "ada", "monday", "Make bed", nil),
		occurrence("occ-2", "ada", "monday", "Sweep", nil),
	)

	first := store.TasksFor("monday")
	second := store.TasksFor("monday")

	// Returned slices are copies; mutating one must not leak into the store.
	first.IndividualTasks[0].Name = "mutated"
	assert.Equal(t, "Make bed", second.IndividualTasks[0].Name)
	assert.Equal(t, "Make bed", store.TasksFor("monday").IndividualTasks[0].Name)
}

func TestCalendarPurgeTemplateCrossesAllDays(t *testing.T) {
	store := NewCalendarStore()
	templateID := "tpl-1"
	store.Insert(
		occurrence("occ-1", "ada", "monday", "Read", &templateID),
		occurrence("occ-2", "ada", "friday", "Read", &templateID),
		occurrence("occ-3", "ada", "friday", "Sweep", nil),
	)

	store.PurgeTemplate(templateID)

	assert.Empty(t, store.TasksFor("monday").IndividualTasks)
	friday := store.TasksFor("friday").IndividualTasks
	assert.Len(t, friday, 1)
	assert.Equal(t, "occ-3", friday[0].ID)
}

func TestCalendarRemoveScoped(t *testing.T) {
	templateID := "tpl-1"
	seed := func() *CalendarStore {
		store := NewCalendarStore()
		for _, day := range []string{"monday", "wednesday", "friday"} {
			store.Insert(
				occurrence("ada-"+day, "ada", day, "Read", &templateID),
				occurrence("ben-"+day, "ben", day, "Read", &templateID),
			)
		}
		return store
	}

	t.Run("one day one member", func(t *testing.T) {
		store := seed()
		memberID := "ada"
		store.RemoveScoped(templateID, []string{"wednesday"}, &memberID)

		wednesday := store.TasksFor("wednesday").IndividualTasks
		assert.Len(t, wednesday, 1)
		assert.Equal(t, "ben", wednesday[0].MemberID)
		assert.Len(t, store.TasksFor("monday").IndividualTasks, 2)
	})

	t.Run("following days all members", func(t *testing.T) {
		store := seed()
		store.RemoveScoped(templateID, []string{"wednesday", "thursday", "friday", "saturday", "sunday"}, nil)

		assert.Len(t, store.TasksFor("monday").IndividualTasks, 2)
		assert.Empty(t, store.TasksFor("wednesday").IndividualTasks)
		assert.Empty(t, store.TasksFor("friday").IndividualTasks)
	})
}

func TestCalendarRemoveOccurrence(t *testing.T) {
	store := NewCalendarStore()
	store.Insert(
		occurrence("occ-1", "ada", "monday", "Make bed", nil),
		occurrence("occ-2", "ada", "monday", "Sweep", nil),
	)

	store.RemoveOccurrence("monday", "occ-1")

	tasks := store.TasksFor("monday").IndividualTasks
	assert.Len(t, tasks, 1)
	assert.Equal(t, "occ-2", tasks[0].ID)
}

func TestCalendarDayCountFor(t *testing.T) {
	store := NewCalendarStore()
	store.Insert(
		occurrence("occ-1", "ada", "monday", "Read", nil),
		occurrence("occ-2", "ada", "thursday", "Read", nil),
		occurrence("occ-3", "ben", "friday", "Read", nil),
	)

	assert.Equal(t, 2, store.DayCountFor("Read", "ada"))
	assert.Equal(t, 1, store.DayCountFor("Read", "ben"))
	assert.Equal(t, 0, store.DayCountFor("Sweep", "ada"))
}

func TestCalendarTemplateDays(t *testing.T) {
	store := NewCalendarStore()
	templateID := "tpl-1"
	store.Insert(
		occurrence("occ-1", "ada", "wednesday", "Read", &templateID),
		occurrence("occ-2", "ada", "monday", "Read", &templateID),
		occurrence("occ-3", "ben", "friday", "Read", &templateID),
	)

	// Days come back in week order regardless of insertion order.
	assert.Equal(t, []string{"monday", "wednesday"}, store.TemplateDays(templateID, "ada"))
	assert.Equal(t, []string{"friday"}, store.TemplateDays(templateID, "ben"))
}

func TestCalendarResetReplacesEverything(t *testing.T) {
	store := NewCalendarStore()
	store.Insert(occurrence("old", "ada", "monday", "Old task", nil))

	store.Reset([]models.TaskOccurrence{
		occurrence("new-1", "ada", "tuesday", "New task", nil),
	})

	assert.Empty(t, store.TasksFor("monday").IndividualTasks)
	assert.Len(t, store.TasksFor("tuesday").IndividualTasks, 1)
}
