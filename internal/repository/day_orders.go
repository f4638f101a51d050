package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/google/uuid"
)

type DayOrderRepository interface {
	FindByRoutine(ctx context.Context, routineID string) ([]models.DaySpecificOrder, error)
	FindByKey(ctx context.Context, routineID, memberID, dayOfWeek string) ([]models.DaySpecificOrder, error)
	ReplaceForKey(ctx context.Context, routineID, memberID, dayOfWeek string, occurrenceIDs []string) ([]models.DaySpecificOrder, error)
	DeleteForOccurrences(ctx context.Context, occurrenceIDs []string) error
}

type SQLiteDayOrderRepository struct {
	database *sql.DB
}

func NewDayOrderRepository(database *sql.DB) *SQLiteDayOrderRepository {
	return &SQLiteDayOrderRepository{database: database}
}

func (repository *SQLiteDayOrderRepository) FindByRoutine(ctx context.Context, routineID string) ([]models.DaySpecificOrder, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT id, routine_id, member_id, day_of_week, occurrence_id, order_index, created_at
		FROM day_specific_orders WHERE routine_id = ?
		ORDER BY member_id, day_of_week, order_index`, routineID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding day orders: %w", err)
	}
	defer rows.Close()
	return scanDayOrders(rows)
}

func (repository *SQLiteDayOrderRepository) FindByKey(ctx context.Context, routineID, memberID, dayOfWeek string) ([]models.DaySpecificOrder, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT id, routine_id, member_id, day_of_week, occurrence_id, order_index, created_at
		FROM day_specific_orders
		WHERE routine_id = ? AND member_id = ? AND day_of_week = ?
		ORDER BY order_index`, routineID, memberID, dayOfWeek,
	)
	if err != nil {
		return nil, fmt.Errorf("finding day orders by key: %w", err)
	}
	defer rows.Close()
	return scanDayOrders(rows)
}

// ReplaceForKey swaps out the entire order set for one (member, day) key in a
// single transaction. Partial updates are not supported: the bulk endpoint
// always sends the full list, with order_index equal to list position.
func (repository *SQLiteDayOrderRepository) ReplaceForKey(ctx context.Context, routineID, memberID, dayOfWeek string, occurrenceIDs []string) ([]models.DaySpecificOrder, error) {
	transaction, err := repository.database.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer transaction.Rollback()

	if _, err := transaction.ExecContext(ctx,
		`DELETE FROM day_specific_orders WHERE routine_id = ? AND member_id = ? AND day_of_week = ?`,
		routineID, memberID, dayOfWeek,
	); err != nil {
		return nil, fmt.Errorf("clearing day orders: %w", err)
	}

	now := time.Now()
	orders := make([]models.DaySpecificOrder, 0, len(occurrenceIDs))
	for index, occurrenceID := range occurrenceIDs {
		order := models.DaySpecificOrder{
			ID:           uuid.New().String(),
			RoutineID:    routineID,
			MemberID:     memberID,
			DayOfWeek:    dayOfWeek,
			OccurrenceID: occurrenceID,
			OrderIndex:   index,
			CreatedAt:    now,
		}
		if _, err := transaction.ExecContext(ctx,
			`INSERT INTO day_specific_orders (id, routine_id, member_id, day_of_week, occurrence_id, order_index, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			order.ID, order.RoutineID, order.MemberID, order.DayOfWeek, order.OccurrenceID, order.OrderIndex, order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("inserting day order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := transaction.Commit(); err != nil {
		return nil, fmt.Errorf("committing day orders: %w", err)
	}
	return orders, nil
}

func (repository *SQLiteDayOrderRepository) DeleteForOccurrences(ctx context.Context, occurrenceIDs []string) error {
	for _, occurrenceID := range occurrenceIDs {
		if _, err := repository.database.ExecContext(ctx,
			"DELETE FROM day_specific_orders WHERE occurrence_id = ?", occurrenceID,
		); err != nil {
			return fmt.Errorf("deleting day orders for occurrence: %w", err)
		}
	}
	return nil
}

func scanDayOrders(rows *sql.Rows) ([]models.DaySpecificOrder, error) {
	var orders []models.DaySpecificOrder
	for rows.Next() {
		var order models.DaySpecificOrder
		if err := rows.Scan(
			&order.ID, &order.RoutineID, &order.MemberID, &order.DayOfWeek,
			&order.OccurrenceID, &order.OrderIndex, &order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning day order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
