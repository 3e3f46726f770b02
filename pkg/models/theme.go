package models

import (
	"time"

	"github.com/google/uuid"
)

// CalendarDesignSettings holds the booking-page theme for one operator.
// Exactly one row per user; written through the upsert path.
type CalendarDesignSettings struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	PrimaryColor    string    `json:"primary_color"`
	BackgroundColor string    `json:"background_color"`
	FontFamily      string    `json:"font_family"`
	LogoURL         *string   `json:"logo_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
