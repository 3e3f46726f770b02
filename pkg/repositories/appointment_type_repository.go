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

// AppointmentTypeRepository provides data access for bookable appointment types.
type AppointmentTypeRepository interface {
	Create(ctx context.Context, at *models.AppointmentType) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.AppointmentType, error)
}

type appointmentTypeRepository struct {
	db *database.DB
}

// NewAppointmentTypeRepository creates a new AppointmentTypeRepository.
func NewAppointmentTypeRepository(db *database.DB) AppointmentTypeRepository {
	return &appointmentTypeRepository{db: db}
}

var _ AppointmentTypeRepository = (*appointmentTypeRepository)(nil)

func (r *appointmentTypeRepository) Create(ctx context.Context, at *models.AppointmentType) error {
	now := time.Now()
	if at.ID == uuid.Nil {
		at.ID = uuid.New()
	}
	at.CreatedAt = now
	at.UpdatedAt = now

	query := `
		INSERT INTO appointment_types (
			id, user_id, name, duration_minutes, price_cents, description,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		at.ID, at.UserID, at.Name, at.DurationMinutes, at.PriceCents,
		at.Description, at.IsActive, at.CreatedAt, at.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment type: %w", err)
	}

	return nil
}

func (r *appointmentTypeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.AppointmentType, error) {
	query := `
		SELECT id, user_id, name, duration_minutes, price_cents, description,
		       is_active, created_at, updated_at
		FROM appointment_types
		WHERE user_id = $1 AND is_active = true
		ORDER BY name`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointment types: %w", err)
	}
	defer rows.Close()

	types := make([]*models.AppointmentType, 0)
	for rows.Next() {
		at, err := scanAppointmentTypeRows(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointment types: %w", err)
	}

	return types, nil
}

func scanAppointmentTypeRows(rows pgx.Rows) (*models.AppointmentType, error) {
	var at models.AppointmentType
	err := rows.Scan(
		&at.ID, &at.UserID, &at.Name, &at.DurationMinutes, &at.PriceCents,
		&at.Description, &at.IsActive, &at.CreatedAt, &at.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan appointment type: %w", err)
	}
	return &at, nil
}
