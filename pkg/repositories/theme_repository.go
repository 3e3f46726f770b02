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

// ThemeRepository provides data access for booking-page design settings.
// Callers probe with GetByUser before choosing Insert or Update.
type ThemeRepository interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.CalendarDesignSettings, error)
	Insert(ctx context.Context, settings *models.CalendarDesignSettings) error
	Update(ctx context.Context, settings *models.CalendarDesignSettings) error
}

type themeRepository struct {
	db *database.DB
}

// NewThemeRepository creates a new ThemeRepository.
func NewThemeRepository(db *database.DB) ThemeRepository {
	return &themeRepository{db: db}
}

var _ ThemeRepository = (*themeRepository)(nil)

func (r *themeRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*models.CalendarDesignSettings, error) {
	query := `
		SELECT id, user_id, primary_color, background_color, font_family, logo_url,
		       created_at, updated_at
		FROM calendar_design_settings
		WHERE user_id = $1`

	var s models.CalendarDesignSettings
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.PrimaryColor, &s.BackgroundColor, &s.FontFamily,
		&s.LogoURL, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get design settings: %w", err)
	}

	return &s, nil
}

func (r *themeRepository) Insert(ctx context.Context, settings *models.CalendarDesignSettings) error {
	now := time.Now()
	if settings.ID == uuid.Nil {
		settings.ID = uuid.New()
	}
	settings.CreatedAt = now
	settings.UpdatedAt = now

	query := `
		INSERT INTO calendar_design_settings (
			id, user_id, primary_color, background_color, font_family, logo_url,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		settings.ID, settings.UserID, settings.PrimaryColor, settings.BackgroundColor,
		settings.FontFamily, settings.LogoURL, settings.CreatedAt, settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert design settings: %w", err)
	}

	return nil
}

func (r *themeRepository) Update(ctx context.Context, settings *models.CalendarDesignSettings) error {
	settings.UpdatedAt = time.Now()

	query := `
		UPDATE calendar_design_settings
		SET primary_color = $1, background_color = $2, font_family = $3,
		    logo_url = $4, updated_at = $5
		WHERE user_id = $6`

	result, err := r.db.Exec(ctx, query,
		settings.PrimaryColor, settings.BackgroundColor, settings.FontFamily,
		settings.LogoURL, settings.UpdatedAt, settings.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update design settings: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("design settings not found")
	}

	return nil
}
