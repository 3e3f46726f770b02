package models

// Action types returned to the client UI.
const (
	ActionTypeNavigate = "navigate"
)

// Action is a structured directive returned alongside assistant text,
// letting the UI react programmatically to the conversation.
type Action struct {
	Type  string `json:"type"`
	Path  string `json:"path"`
	Label string `json:"label"`
}
