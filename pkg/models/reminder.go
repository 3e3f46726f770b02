package models

import (
	"time"

	"github.com/google/uuid"
)

// Reminder channel constants.
const (
	ReminderChannelEmail = "email"
	ReminderChannelSMS   = "sms"
)

// ValidReminderChannels contains all valid channel values.
var ValidReminderChannels = []string{ReminderChannelEmail, ReminderChannelSMS}

// IsValidReminderChannel checks if the given channel is valid.
func IsValidReminderChannel(channel string) bool {
	for _, c := range ValidReminderChannels {
		if c == channel {
			return true
		}
	}
	return false
}

// ReminderRule configures booking reminders for one operator and channel.
// One row per (user, channel); written through the upsert path.
type ReminderRule struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Channel       string    `json:"channel"`
	OffsetMinutes int       `json:"offset_minutes"` // Lead time before the booking
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
