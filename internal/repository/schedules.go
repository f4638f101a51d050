package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/google/uuid"
)

type RoutineScheduleRepository interface {
	FindByRoutine(ctx context.Context, routineID string) ([]models.RoutineSchedule, error)
	Create(ctx context.Context, schedule models.RoutineSchedule) (models.RoutineSchedule, error)
}

type SQLiteRoutineScheduleRepository struct {
	database *sql.DB
}

func NewRoutineScheduleRepository(database *sql.DB) *SQLiteRoutineScheduleRepository {
	return &SQLiteRoutineScheduleRepository{database: database}
}

func (repository *SQLiteRoutineScheduleRepository) FindByRoutine(ctx context.Context, routineID string) ([]models.RoutineSchedule, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT id, routine_id, scope, days_of_week, start_date, end_date, timezone, is_active, created_at
		FROM routine_schedules WHERE routine_id = ? ORDER BY created_at`, routineID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding schedules: %w", err)
	}
	defer rows.Close()

	var schedules []models.RoutineSchedule
	for rows.Next() {
		var schedule models.RoutineSchedule
		var rawDays string
		if err := rows.Scan(
			&schedule.ID, &schedule.RoutineID, &schedule.Scope, &rawDays,
			&schedule.StartDate, &schedule.EndDate, &schedule.Timezone,
			&schedule.IsActive, &schedule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning schedule: %w", err)
		}
		days, err := unmarshalDays(rawDays)
		if err != nil {
			return nil, err
		}
		schedule.DaysOfWeek = days
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}

func (repository *SQLiteRoutineScheduleRepository) Create(ctx context.Context, schedule models.RoutineSchedule) (models.RoutineSchedule, error) {
	if schedule.ID == "" {
		schedule.ID = uuid.New().String()
	}
	schedule.CreatedAt = time.Now()

	days, err := marshalDays(schedule.DaysOfWeek)
	if err != nil {
		return models.RoutineSchedule{}, err
	}

	_, err = repository.database.ExecContext(ctx,
		`INSERT INTO routine_schedules (id, routine_id, scope, days_of_week, start_date, end_date, timezone, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		schedule.ID, schedule.RoutineID, schedule.Scope, days, schedule.StartDate,
		schedule.EndDate, schedule.Timezone, schedule.IsActive, schedule.CreatedAt,
	)
	if err != nil {
		return models.RoutineSchedule{}, fmt.Errorf("creating schedule: %w", err)
	}
	return schedule, nil
}
