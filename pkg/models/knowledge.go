package models

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeEntry represents one fact in the company knowledge base.
// Active entries are concatenated verbatim into the assistant system prompt
// on every request; there is no caching layer in front of them.
type KnowledgeEntry struct {
	ID        uuid.UUID `json:"id"`
	Topic     string    `json:"topic"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
