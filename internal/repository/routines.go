package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/google/uuid"
)

type RoutineRepository interface {
	FindByID(ctx context.Context, id string) (models.Routine, error)
	FindCurrentByFamily(ctx context.Context, familyID string) (models.Routine, error)
	Create(ctx context.Context, routine models.Routine) (models.Routine, error)
	Update(ctx context.Context, routine models.Routine) error
}

type SQLiteRoutineRepository struct {
	database *sql.DB
}

func NewRoutineRepository(database *sql.DB) *SQLiteRoutineRepository {
	return &SQLiteRoutineRepository{database: database}
}

func (repository *SQLiteRoutineRepository) FindByID(ctx context.Context, id string) (models.Routine, error) {
	var routine models.Routine
	err := repository.database.QueryRowContext(ctx,
		`SELECT id, family_id, name, status, created_at, updated_at
		FROM routines WHERE id = ?`, id,
	).Scan(&routine.ID, &routine.FamilyID, &routine.Name, &routine.Status, &routine.CreatedAt, &routine.UpdatedAt)
	if err != nil {
		return models.Routine{}, fmt.Errorf("finding routine by id: %w", err)
	}
	return routine, nil
}

// FindCurrentByFamily returns the family's single non-archived routine.
func (repository *SQLiteRoutineRepository) FindCurrentByFamily(ctx context.Context, familyID string) (models.Routine, error) {
	var routine models.Routine
	err := repository.database.QueryRowContext(ctx,
		`SELECT id, family_id, name, status, created_at, updated_at
		FROM routines WHERE family_id = ? AND status != ?
		ORDER BY created_at DESC LIMIT 1`, familyID, models.RoutineStatusArchived,
	).Scan(&routine.ID, &routine.FamilyID, &routine.Name, &routine.Status, &routine.CreatedAt, &routine.UpdatedAt)
	if err != nil {
		return models.Routine{}, fmt.Errorf("finding current routine: %w", err)
	}
	return routine, nil
}

func (repository *SQLiteRoutineRepository) Create(ctx context.Context, routine models.Routine) (models.Routine, error) {
	if routine.ID == "" {
		routine.ID = uuid.New().String()
	}
	if routine.Status == "" {
		routine.Status = models.RoutineStatusDraft
	}
	now := time.Now()
	routine.CreatedAt = now
	routine.UpdatedAt = now

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO routines (id, family_id, name, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		routine.ID, routine.FamilyID, routine.Name, routine.Status, routine.CreatedAt, routine.UpdatedAt,
	)
	if err != nil {
		return models.Routine{}, fmt.Errorf("creating routine: %w", err)
	}
	return routine, nil
}

func (repository *SQLiteRoutineRepository) Update(ctx context.Context, routine models.Routine) error {
	routine.UpdatedAt = time.Now()
	_, err := repository.database.ExecContext(ctx,
		`UPDATE routines SET name = ?, status = ?, updated_at = ? WHERE id = ?`,
		routine.Name, routine.Status, routine.UpdatedAt, routine.ID,
	)
	if err != nil {
		return fmt.Errorf("updating routine: %w", err)
	}
	return nil
}

// marshalDays and unmarshalDays keep weekday sets in a single TEXT column so
// template day edits stay one row write.
func marshalDays(days []string) (string, error) {
	if days == nil {
		days = []string{}
	}
	encoded, err := json.Marshal(days)
	if err != nil {
		return "", fmt.Errorf("encoding days of week: %w", err)
	}
	return string(encoded), nil
}

func unmarshalDays(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var days []string
	if err := json.Unmarshal([]byte(raw), &days); err != nil {
		return nil, fmt.Errorf("decoding days of week: %w", err)
	}
	return days, nil
}
