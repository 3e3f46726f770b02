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

// ReminderRepository provides data access for booking reminder rules.
// Callers probe with GetByUserAndChannel before choosing Insert or Update.
type ReminderRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ReminderRule, error)
	GetByUserAndChannel(ctx context.Context, userID uuid.UUID, channel string) (*models.ReminderRule, error)
	Insert(ctx context.Context, rule *models.ReminderRule) error
	Update(ctx context.Context, rule *models.ReminderRule) error
}

type reminderRepository struct {
	db *database.DB
}

// NewReminderRepository creates a new ReminderRepository.
func NewReminderRepository(db *database.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

var _ ReminderRepository = (*reminderRepository)(nil)

func (r *reminderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ReminderRule, error) {
	query := `
		SELECT id, user_id, channel, offset_minutes, is_active, created_at, updated_at
		FROM reminder_rules
		WHERE user_id = $1
		ORDER BY channel`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder rules: %w", err)
	}
	defer rows.Close()

	rules := make([]*models.ReminderRule, 0)
	for rows.Next() {
		var rule models.ReminderRule
		if err := rows.Scan(
			&rule.ID, &rule.UserID, &rule.Channel, &rule.OffsetMinutes,
			&rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder rule: %w", err)
		}
		rules = append(rules, &rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rules: %w", err)
	}

	return rules, nil
}

func (r *reminderRepository) GetByUserAndChannel(ctx context.Context, userID uuid.UUID, channel string) (*models.ReminderRule, error) {
	query := `
		SELECT id, user_id, channel, offset_minutes, is_active, created_at, updated_at
		FROM reminder_rules
		WHERE user_id = $1 AND channel = $2`

	var rule models.ReminderRule
	err := r.db.QueryRow(ctx, query, userID, channel).Scan(
		&rule.ID, &rule.UserID, &rule.Channel, &rule.OffsetMinutes,
		&rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get reminder rule: %w", err)
	}

	return &rule, nil
}

func (r *reminderRepository) Insert(ctx context.Context, rule *models.ReminderRule) error {
	now := time.Now()
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.CreatedAt = now
	rule.UpdatedAt = now

	query := `
		INSERT INTO reminder_rules (
			id, user_id, channel, offset_minutes, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		rule.ID, rule.UserID, rule.Channel, rule.OffsetMinutes, rule.IsActive,
		rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reminder rule: %w", err)
	}

	return nil
}

func (r *reminderRepository) Update(ctx context.Context, rule *models.ReminderRule) error {
	rule.UpdatedAt = time.Now()

	query := `
		UPDATE reminder_rules
		SET offset_minutes = $1, is_active = $2, updated_at = $3
		WHERE user_id = $4 AND channel = $5`

	result, err := r.db.Exec(ctx, query,
		rule.OffsetMinutes, rule.IsActive, rule.UpdatedAt, rule.UserID, rule.Channel,
	)
	if err != nil {
		return fmt.Errorf("failed to update reminder rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("reminder rule not found")
	}

	return nil
}
