package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/google/uuid"
)

type TaskGroupRepository interface {
	FindByRoutine(ctx context.Context, routineID string) ([]models.TaskGroup, error)
	Create(ctx context.Context, group models.TaskGroup) (models.TaskGroup, error)
	Delete(ctx context.Context, id string) error
}

type SQLiteTaskGroupRepository struct {
	database *sql.DB
}

func NewTaskGroupRepository(database *sql.DB) *SQLiteTaskGroupRepository {
	return &SQLiteTaskGroupRepository{database: database}
}

func (repository *SQLiteTaskGroupRepository) FindByRoutine(ctx context.Context, routineID string) ([]models.TaskGroup, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT id, routine_id, name, time_of_day, order_index, created_at
		FROM task_groups WHERE routine_id = ? ORDER BY order_index, created_at`, routineID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding task groups: %w", err)
	}
	defer rows.Close()

	var groups []models.TaskGroup
	for rows.Next() {
		var group models.TaskGroup
		if err := rows.Scan(&group.ID, &group.RoutineID, &group.Name, &group.TimeOfDay, &group.OrderIndex, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning task group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (repository *SQLiteTaskGroupRepository) Create(ctx context.Context, group models.TaskGroup) (models.TaskGroup, error) {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	group.CreatedAt = time.Now()

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO task_groups (id, routine_id, name, time_of_day, order_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		group.ID, group.RoutineID, group.Name, group.TimeOfDay, group.OrderIndex, group.CreatedAt,
	)
	if err != nil {
		return models.TaskGroup{}, fmt.Errorf("creating task group: %w", err)
	}
	return group, nil
}

func (repository *SQLiteTaskGroupRepository) Delete(ctx context.Context, id string) error {
	_, err := repository.database.ExecContext(ctx, "DELETE FROM task_groups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task group: %w", err)
	}
	return nil
}
