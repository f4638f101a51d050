package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/google/uuid"
)

type RecurringTemplateRepository interface {
	FindByID(ctx context.Context, id string) (models.RecurringTemplate, error)
	FindByRoutine(ctx context.Context, routineID string) ([]models.RecurringTemplate, error)
	Create(ctx context.Context, template models.RecurringTemplate) (models.RecurringTemplate, error)
	Update(ctx context.Context, template models.RecurringTemplate) error
	UpdateDays(ctx context.Context, id string, daysOfWeek []string, frequencyType models.FrequencyType) error
	Delete(ctx context.Context, id string) error
}

type SQLiteRecurringTemplateRepository struct {
	database *sql.DB
}

func NewRecurringTemplateRepository(database *sql.DB) *SQLiteRecurringTemplateRepository {
	return &SQLiteRecurringTemplateRepository{database: database}
}

const templateColumns = `id, routine_id, name, description, points, duration_mins,
	time_of_day, frequency_type, days_of_week, created_at, updated_at`

func (repository *SQLiteRecurringTemplateRepository) FindByID(ctx context.Context, id string) (models.RecurringTemplate, error) {
	row := repository.database.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM recurring_templates WHERE id = ?`, id,
	)
	template, err := scanTemplate(row)
	if err != nil {
		return models.RecurringTemplate{}, fmt.Errorf("finding template by id: %w", err)
	}
	return template, nil
}

func (repository *SQLiteRecurringTemplateRepository) FindByRoutine(ctx context.Context, routineID string) ([]models.RecurringTemplate, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM recurring_templates
		WHERE routine_id = ? ORDER BY created_at ASC`, routineID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding templates: %w", err)
	}
	defer rows.Close()

	var templates []models.RecurringTemplate
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		templates = append(templates, template)
	}
	return templates, rows.Err()
}

func (repository *SQLiteRecurringTemplateRepository) Create(ctx context.Context, template models.RecurringTemplate) (models.RecurringTemplate, error) {
	if template.ID == "" {
		template.ID = uuid.New().String()
	}
	now := time.Now()
	template.CreatedAt = now
	template.UpdatedAt = now

	days, err := marshalDays(template.DaysOfWeek)
	if err != nil {
		return models.RecurringTemplate{}, err
	}

	_, err = repository.database.ExecContext(ctx,
		`INSERT INTO recurring_templates (id, routine_id, name, description, points,
			duration_mins, time_of_day, frequency_type, days_of_week, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		template.ID, template.RoutineID, template.Name, template.Description, template.Points,
		template.DurationMins, template.TimeOfDay, template.FrequencyType, days,
		template.CreatedAt, template.UpdatedAt,
	)
	if err != nil {
		return models.RecurringTemplate{}, fmt.Errorf("creating template: %w", err)
	}
	return template, nil
}

func (repository *SQLiteRecurringTemplateRepository) Update(ctx context.Context, template models.RecurringTemplate) error {
	template.UpdatedAt = time.Now()
	days, err := marshalDays(template.DaysOfWeek)
	if err != nil {
		return err
	}

	_, err = repository.database.ExecContext(ctx,
		`UPDATE recurring_templates SET name = ?, description = ?, points = ?,
			duration_mins = ?, time_of_day = ?, frequency_type = ?, days_of_week = ?, updated_at = ?
		WHERE id = ?`,
		template.Name, template.Description, template.Points,
		template.DurationMins, template.TimeOfDay, template.FrequencyType, days,
		template.UpdatedAt, template.ID,
	)
	if err != nil {
		return fmt.Errorf("updating template: %w", err)
	}
	return nil
}

func (repository *SQLiteRecurringTemplateRepository) UpdateDays(ctx context.Context, id string, daysOfWeek []string, frequencyType models.FrequencyType) error {
	days, err := marshalDays(daysOfWeek)
	if err != nil {
		return err
	}
	_, err = repository.database.ExecContext(ctx,
		`UPDATE recurring_templates SET days_of_week = ?, frequency_type = ?, updated_at = ? WHERE id = ?`,
		days, frequencyType, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("updating template days: %w", err)
	}
	return nil
}

func (repository *SQLiteRecurringTemplateRepository) Delete(ctx context.Context, id string) error {
	_, err := repository.database.ExecContext(ctx, "DELETE FROM recurring_templates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (models.RecurringTemplate, error) {
	var template models.RecurringTemplate
	var rawDays string
	if err := row.Scan(
		&template.ID, &template.RoutineID, &template.Name, &template.Description, &template.Points,
		&template.DurationMins, &template.TimeOfDay, &template.FrequencyType, &rawDays,
		&template.CreatedAt, &template.UpdatedAt,
	); err != nil {
		return models.RecurringTemplate{}, err
	}
	days, err := unmarshalDays(rawDays)
	if err != nil {
		return models.RecurringTemplate{}, err
	}
	template.DaysOfWeek = days
	return template, nil
}
