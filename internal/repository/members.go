package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/google/uuid"
)

type FamilyMemberRepository interface {
	FindByID(ctx context.Context, id string) (models.FamilyMember, error)
	FindByFamily(ctx context.Context, familyID string) ([]models.FamilyMember, error)
	Create(ctx context.Context, member models.FamilyMember) (models.FamilyMember, error)
	CreateFamily(ctx context.Context, name string) (string, error)
}

type SQLiteFamilyMemberRepository struct {
	database *sql.DB
}

func NewFamilyMemberRepository(database *sql.DB) *SQLiteFamilyMemberRepository {
	return &SQLiteFamilyMemberRepository{database: database}
}

func (repository *SQLiteFamilyMemberRepository) FindByID(ctx context.Context, id string) (models.FamilyMember, error) {
	var member models.FamilyMember
	err := repository.database.QueryRowContext(ctx,
		`SELECT id, family_id, name, color, created_at
		FROM family_members WHERE id = ?`, id,
	).Scan(&member.ID, &member.FamilyID, &member.Name, &member.Color, &member.CreatedAt)
	if err != nil {
		return models.FamilyMember{}, fmt.Errorf("finding member by id: %w", err)
	}
	return member, nil
}

func (repository *SQLiteFamilyMemberRepository) FindByFamily(ctx context.Context, familyID string) ([]models.FamilyMember, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT id, family_id, name, color, created_at
		FROM family_members WHERE family_id = ? ORDER BY created_at ASC`, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding family members: %w", err)
	}
	defer rows.Close()

	var members []models.FamilyMember
	for rows.Next() {
		var member models.FamilyMember
		if err := rows.Scan(&member.ID, &member.FamilyID, &member.Name, &member.Color, &member.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (repository *SQLiteFamilyMemberRepository) Create(ctx context.Context, member models.FamilyMember) (models.FamilyMember, error) {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	member.CreatedAt = time.Now()

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO family_members (id, family_id, name, color, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		member.ID, member.FamilyID, member.Name, member.Color, member.CreatedAt,
	)
	if err != nil {
		return models.FamilyMember{}, fmt.Errorf("creating family member: %w", err)
	}
	return member, nil
}

func (repository *SQLiteFamilyMemberRepository) CreateFamily(ctx context.Context, name string) (string, error) {
	id := uuid.New().String()
	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO families (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, time.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("creating family: %w", err)
	}
	return id, nil
}
