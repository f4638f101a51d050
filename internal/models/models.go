package models

import "time"

type RoutineStatus string

const (
	RoutineStatusDraft    RoutineStatus = "draft"
	RoutineStatusActive   RoutineStatus = "active"
	RoutineStatusArchived RoutineStatus = "archived"
)

type FrequencyType string

const (
	FrequencyEveryDay     FrequencyType = "every_day"
	FrequencySpecificDays FrequencyType = "specific_days"
)

type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
	TimeOfDayNight     TimeOfDay = "night"
)

type DeleteScope string

const (
	DeleteScopeThisDay          DeleteScope = "this_day"
	DeleteScopeThisAndFollowing DeleteScope = "this_and_following"
	DeleteScopeAllDays          DeleteScope = "all_days"
)

type ScheduleScope string

const (
	ScheduleScopeEveryday ScheduleScope = "everyday"
	ScheduleScopeWeekdays ScheduleScope = "weekdays"
	ScheduleScopeWeekends ScheduleScope = "weekends"
	ScheduleScopeCustom   ScheduleScope = "custom"
)

type Routine struct {
	ID        string        `json:"id"`
	FamilyID  string        `json:"family_id"`
	Name      string        `json:"name"`
	Status    RoutineStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type FamilyMember struct {
	ID        string    `json:"id"`
	FamilyID  string    `json:"family_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// RecurringTemplate is the authoritative recurrence definition for a series
// of task occurrences. An every_day template always holds all seven weekdays.
type RecurringTemplate struct {
	ID            string        `json:"id"`
	RoutineID     string        `json:"routine_id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Points        int           `json:"points"`
	DurationMins  *int          `json:"duration_mins"`
	TimeOfDay     *TimeOfDay    `json:"time_of_day"`
	FrequencyType FrequencyType `json:"frequency_type"`
	DaysOfWeek    []string      `json:"days_of_week"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// TaskOccurrence is one concrete placement of a task: exactly one weekday,
// exactly one member. Multi-member intent is N occurrences sharing a
// RecurringTemplateID. RecurringTemplateID is nil only for templateless
// single-day tasks and rows predating the template system.
type TaskOccurrence struct {
	ID                  string     `json:"id"`
	RoutineID           string     `json:"routine_id"`
	GroupID             *string    `json:"group_id"`
	RecurringTemplateID *string    `json:"recurring_template_id"`
	MemberID            string     `json:"member_id"`
	DayOfWeek           string     `json:"day_of_week"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	Points              int        `json:"points"`
	DurationMins        *int       `json:"duration_mins"`
	TimeOfDay           *TimeOfDay `json:"time_of_day"`
	IsException         bool       `json:"is_exception"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type TaskGroup struct {
	ID         string     `json:"id"`
	RoutineID  string     `json:"routine_id"`
	Name       string     `json:"name"`
	TimeOfDay  *TimeOfDay `json:"time_of_day"`
	OrderIndex int        `json:"order_index"`
	CreatedAt  time.Time  `json:"created_at"`
}

// DaySpecificOrder is one entry of the ordering ledger. Ordering lives apart
// from task content so a drag never rewrites task rows.
type DaySpecificOrder struct {
	ID           string    `json:"id"`
	RoutineID    string    `json:"routine_id"`
	MemberID     string    `json:"member_id"`
	DayOfWeek    string    `json:"day_of_week"`
	OccurrenceID string    `json:"occurrence_id"`
	OrderIndex   int       `json:"order_index"`
	CreatedAt    time.Time `json:"created_at"`
}

// RoutineSchedule carries the routine-wide scheduling scope. The timezone is
// an opaque IANA string, stored and returned but never interpreted here.
type RoutineSchedule struct {
	ID         string        `json:"id"`
	RoutineID  string        `json:"routine_id"`
	Scope      ScheduleScope `json:"scope"`
	DaysOfWeek []string      `json:"days_of_week"`
	StartDate  *string       `json:"start_date"`
	EndDate    *string       `json:"end_date"`
	Timezone   string        `json:"timezone"`
	IsActive   bool          `json:"is_active"`
	CreatedAt  time.Time     `json:"created_at"`
}

type APIToken struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	TokenHash string     `json:"-"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}
