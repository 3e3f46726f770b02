package models

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentType is a bookable service offered by an operator.
type AppointmentType struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      *int64    `json:"price_cents,omitempty"`
	Description     *string   `json:"description,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AvailabilityRule defines a weekly recurring open window.
// Weekday follows time.Weekday numbering (0 = Sunday).
type AvailabilityRule struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Weekday   int       `json:"weekday"`
	StartTime string    `json:"start_time"` // "HH:MM", operator-local
	EndTime   string    `json:"end_time"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Booking status constants.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Booking is a customer reservation against an appointment type.
type Booking struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	AppointmentTypeID uuid.UUID `json:"appointment_type_id"`
	CustomerName      string    `json:"customer_name"`
	CustomerEmail     string    `json:"customer_email"`
	StartsAt          time.Time `json:"starts_at"`
	EndsAt            time.Time `json:"ends_at"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}
