package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/easydayai/daisy-engine/pkg/database"
	"github.com/easydayai/daisy-engine/pkg/models"
)

// ProfileRepository provides read access to operator profiles.
// The assistant never creates or mutates profiles.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type profileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *database.DB) ProfileRepository {
	return &profileRepository{db: db}
}

var _ ProfileRepository = (*profileRepository)(nil)

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	query := `
		SELECT user_id, full_name, business_name, slug, created_at, updated_at
		FROM profiles
		WHERE user_id = $1`

	var p models.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.FullName, &p.BusinessName, &p.Slug,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}
