package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/google/uuid"
)

type OccurrenceFilter struct {
	RecurringTemplateID *string
	MemberID            *string
	DaysOfWeek          []string
}

type TaskOccurrenceRepository interface {
	FindByID(ctx context.Context, id string) (models.TaskOccurrence, error)
	FindByRoutine(ctx context.Context, routineID string) ([]models.TaskOccurrence, error)
	FindFiltered(ctx context.Context, routineID string, filter OccurrenceFilter) ([]models.TaskOccurrence, error)
	Create(ctx context.Context, occurrence models.TaskOccurrence) (models.TaskOccurrence, error)
	Update(ctx context.Context, occurrence models.TaskOccurrence) error
	Delete(ctx context.Context, id string) error
	DeleteFiltered(ctx context.Context, routineID string, filter OccurrenceFilter) (int, error)
}

type SQLiteTaskOccurrenceRepository struct {
	database *sql.DB
}

func NewTaskOccurrenceRepository(database *sql.DB) *SQLiteTaskOccurrenceRepository {
	return &SQLiteTaskOccurrenceRepository{database: database}
}

const occurrenceColumns = `id, routine_id, group_id, recurring_template_id, member_id,
	day_of_week, name, description, points, duration_mins, time_of_day, is_exception,
	created_at, updated_at`

func (repository *SQLiteTaskOccurrenceRepository) FindByID(ctx context.Context, id string) (models.TaskOccurrence, error) {
	row := repository.database.QueryRowContext(ctx,
		`SELECT `+occurrenceColumns+` FROM task_occurrences WHERE id = ?`, id,
	)
	occurrence, err := scanOccurrence(row)
	if err != nil {
		return models.TaskOccurrence{}, fmt.Errorf("finding occurrence by id: %w", err)
	}
	return occurrence, nil
}

func (repository *SQLiteTaskOccurrenceRepository) FindByRoutine(ctx context.Context, routineID string) ([]models.TaskOccurrence, error) {
	return repository.FindFiltered(ctx, routineID, OccurrenceFilter{})
}

func (repository *SQLiteTaskOccurrenceRepository) FindFiltered(ctx context.Context, routineID string, filter OccurrenceFilter) ([]models.TaskOccurrence, error) {
	query := `SELECT ` + occurrenceColumns + ` FROM task_occurrences WHERE routine_id = ?`
	args := []any{routineID}
	query, args = applyOccurrenceFilter(query, args, filter)
	query += " ORDER BY created_at ASC"

	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding occurrences: %w", err)
	}
	defer rows.Close()

	var occurrences []models.TaskOccurrence
	for rows.Next() {
		occurrence, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning occurrence: %w", err)
		}
		occurrences = append(occurrences, occurrence)
	}
	return occurrences, rows.Err()
}

func (repository *SQLiteTaskOccurrenceRepository) Create(ctx context.Context, occurrence models.TaskOccurrence) (models.TaskOccurrence, error) {
	if occurrence.ID == "" {
		occurrence.ID = uuid.New().String()
	}
	now := time.Now()
	occurrence.CreatedAt = now
	occurrence.UpdatedAt = now

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO task_occurrences (id, routine_id, group_id, recurring_template_id,
			member_id, day_of_week, name, description, points, duration_mins, time_of_day,
			is_exception, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		occurrence.ID, occurrence.RoutineID, occurrence.GroupID, occurrence.RecurringTemplateID,
		occurrence.MemberID, occurrence.DayOfWeek, occurrence.Name, occurrence.Description,
		occurrence.Points, occurrence.DurationMins, occurrence.TimeOfDay,
		occurrence.IsException, occurrence.CreatedAt, occurrence.UpdatedAt,
	)
	if err != nil {
		return models.TaskOccurrence{}, fmt.Errorf("creating occurrence: %w", err)
	}
	return occurrence, nil
}

func (repository *SQLiteTaskOccurrenceRepository) Update(ctx context.Context, occurrence models.TaskOccurrence) error {
	occurrence.UpdatedAt = time.Now()
	_, err := repository.database.ExecContext(ctx,
		`UPDATE task_occurrences SET group_id = ?, recurring_template_id = ?, member_id = ?,
			day_of_week = ?, name = ?, description = ?, points = ?, duration_mins = ?,
			time_of_day = ?, is_exception = ?, updated_at = ?
		WHERE id = ?`,
		occurrence.GroupID, occurrence.RecurringTemplateID, occurrence.MemberID,
		occurrence.DayOfWeek, occurrence.Name, occurrence.Description, occurrence.Points,
		occurrence.DurationMins, occurrence.TimeOfDay, occurrence.IsException,
		occurrence.UpdatedAt, occurrence.ID,
	)
	if err != nil {
		return fmt.Errorf("updating occurrence: %w", err)
	}
	return nil
}

func (repository *SQLiteTaskOccurrenceRepository) Delete(ctx context.Context, id string) error {
	_, err := repository.database.ExecContext(ctx, "DELETE FROM task_occurrences WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting occurrence: %w", err)
	}
	return nil
}

// DeleteFiltered removes every occurrence matching the filter and reports how
// many rows went away. Scope deletes are expressed as day-set filters by the
// service layer.
func (repository *SQLiteTaskOccurrenceRepository) DeleteFiltered(ctx context.Context, routineID string, filter OccurrenceFilter) (int, error) {
	query := "DELETE FROM task_occurrences WHERE routine_id = ?"
	args := []any{routineID}
	query, args = applyOccurrenceFilter(query, args, filter)

	result, err := repository.database.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting occurrences: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted occurrences: %w", err)
	}
	return int(affected), nil
}

func applyOccurrenceFilter(query string, args []any, filter OccurrenceFilter) (string, []any) {
	if filter.RecurringTemplateID != nil {
		query += " AND recurring_template_id = ?"
		args = append(args, *filter.RecurringTemplateID)
	}
	if filter.MemberID != nil {
		query += " AND member_id = ?"
		args = append(args, *filter.MemberID)
	}
	if len(filter.DaysOfWeek) > 0 {
		placeholders := make([]string, len(filter.DaysOfWeek))
		for i, day := range filter.DaysOfWeek {
			placeholders[i] = "?"
			args = append(args, day)
		}
		query += " AND day_of_week IN (" + strings.Join(placeholders, ",") + ")"
	}
	return query, args
}

func scanOccurrence(row rowScanner) (models.TaskOccurrence, error) {
	var occurrence models.TaskOccurrence
	if err := row.Scan(
		&occurrence.ID, &occurrence.RoutineID, &occurrence.GroupID, &occurrence.RecurringTemplateID,
		&occurrence.MemberID, &occurrence.DayOfWeek, &occurrence.Name, &occurrence.Description,
		&occurrence.Points, &occurrence.DurationMins, &occurrence.TimeOfDay, &occurrence.IsException,
		&occurrence.CreatedAt, &occurrence.UpdatedAt,
	); err != nil {
		return models.TaskOccurrence{}, err
	}
	return occurrence, nil
}
