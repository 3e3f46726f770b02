package models

import (
	"time"

	"github.com/google/uuid"
)

// Credit ledger event types.
const (
	CreditEventConsumption = "consumption"
	CreditEventRefund      = "refund"
	CreditEventPurchase    = "purchase"
)

// CreditBalance is the current credit balance for one user.
// Invariant: BalanceCredits >= 0 at rest. Only the ledger's debit/credit
// operations may mutate it, and every mutation appends a ledger entry in the
// same transaction.
type CreditBalance struct {
	UserID         uuid.UUID `json:"user_id"`
	BalanceCredits int64     `json:"balance_credits"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreditLedgerEntry is an immutable, append-only audit record. Summing
// CreditsDelta over a user's entries reconciles with the balance row.
type CreditLedgerEntry struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	CreditsDelta int64     `json:"credits_delta"` // Negative for consumption
	EventType    string    `json:"event_type"`
	Source       string    `json:"source"`       // What triggered the entry, e.g. "assistant:create_appointment_type"
	ReferenceID  string    `json:"reference_id"` // Unique per entry
	CreatedAt    time.Time `json:"created_at"`
}
