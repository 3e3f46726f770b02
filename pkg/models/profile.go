package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds per-user business metadata. The assistant reads it to ground
// the authenticated system prompt; it never creates or destroys profiles.
type Profile struct {
	UserID       uuid.UUID `json:"user_id"`
	FullName     string    `json:"full_name"`
	BusinessName string    `json:"business_name"`
	Slug         string    `json:"slug"` // Public booking-page slug
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
