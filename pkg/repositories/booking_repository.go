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

// BookingRepository provides read access to customer bookings.
// Bookings are created by the public booking flow, not by the assistant.
type BookingRepository interface {
	ListUpcoming(ctx context.Context, userID uuid.UUID, from time.Time, limit int) ([]*models.Booking, error)
}

type bookingRepository struct {
	db *database.DB
}

// NewBookingRepository creates a new BookingRepository.
func NewBookingRepository(db *database.DB) BookingRepository {
	return &bookingRepository{db: db}
}

var _ BookingRepository = (*bookingRepository)(nil)

func (r *bookingRepository) ListUpcoming(ctx context.Context, userID uuid.UUID, from time.Time, limit int) ([]*models.Booking, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, user_id, appointment_type_id, customer_name, customer_email,
		       starts_at, ends_at, status, created_at
		FROM bookings
		WHERE user_id = $1 AND starts_at >= $2 AND status = $3
		ORDER BY starts_at
		LIMIT $4`

	rows, err := r.db.Query(ctx, query, userID, from, models.BookingStatusConfirmed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBookingRows(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}

func scanBookingRows(rows pgx.Rows) (*models.Booking, error) {
	var b models.Booking
	err := rows.Scan(
		&b.ID, &b.UserID, &b.AppointmentTypeID, &b.CustomerName, &b.CustomerEmail,
		&b.StartsAt, &b.EndsAt, &b.Status, &b.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}
	return &b, nil
}
