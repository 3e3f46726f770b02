package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/easydayai/daisy-engine/pkg/database"
	"github.com/easydayai/daisy-engine/pkg/models"
)

// AvailabilityRepository provides data access for weekly availability rules.
type AvailabilityRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.AvailabilityRule, error)
	GetByUserAndWeekday(ctx context.Context, userID uuid.UUID, weekday int) (*models.AvailabilityRule, error)
	Insert(ctx context.Context, rule *models.AvailabilityRule) error
	Update(ctx context.Context, rule *models.AvailabilityRule) error
}

type availabilityRepository struct {
	db *database.DB
}

// NewAvailabilityRepository creates a new AvailabilityRepository.
func NewAvailabilityRepository(db *database.DB) AvailabilityRepository {
	return &availabilityRepository{db: db}
}

var _ AvailabilityRepository = (*availabilityRepository)(nil)

func (r *availabilityRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.AvailabilityRule, error) {
	query := `
		SELECT id, user_id, weekday, start_time, end_time, is_active, created_at, updated_at
		FROM availability_rules
		WHERE user_id = $1 AND is_active = true
		ORDER BY weekday, start_time`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability rules: %w", err)
	}
	defer rows.Close()

	rules := make([]*models.AvailabilityRule, 0)
	for rows.Next() {
		rule, err := scanAvailabilityRuleRows(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availability rules: %w", err)
	}

	return rules, nil
}

func (r *availabilityRepository) GetByUserAndWeekday(ctx context.Context, userID uuid.UUID, weekday int) (*models.AvailabilityRule, error) {
	query := `
		SELECT id, user_id, weekday, start_time, end_time, is_active, created_at, updated_at
		FROM availability_rules
		WHERE user_id = $1 AND weekday = $2`

	var rule models.AvailabilityRule
	err := r.db.QueryRow(ctx, query, userID, weekday).Scan(
		&rule.ID, &rule.UserID, &rule.Weekday, &rule.StartTime, &rule.EndTime,
		&rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get availability rule: %w", err)
	}

	return &rule, nil
}

func (r *availabilityRepository) Insert(ctx context.Context, rule *models.AvailabilityRule) error {
	now := time.Now()
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.CreatedAt = now
	rule.UpdatedAt = now

	query := `
		INSERT INTO availability_rules (
			id, user_id, weekday, start_time, end_time, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		rule.ID, rule.UserID, rule.Weekday, rule.StartTime, rule.EndTime,
		rule.IsActive, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert availability rule: %w", err)
	}

	return nil
}

func (r *availabilityRepository) Update(ctx context.Context, rule *models.AvailabilityRule) error {
	rule.UpdatedAt = time.Now()

	query := `
		UPDATE availability_rules
		SET start_time = $1, end_time = $2, is_active = $3, updated_at = $4
		WHERE id = $5`

	result, err := r.db.Exec(ctx, query,
		rule.StartTime, rule.EndTime, rule.IsActive, rule.UpdatedAt, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update availability rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("availability rule not found")
	}

	return nil
}

func scanAvailabilityRuleRows(rows pgx.Rows) (*models.AvailabilityRule, error) {
	var rule models.AvailabilityRule
	err := rows.Scan(
		&rule.ID, &rule.UserID, &rule.Weekday, &rule.StartTime, &rule.EndTime,
		&rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan availability rule: %w", err)
	}
	return &rule, nil
}
