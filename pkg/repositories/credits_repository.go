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

// CreditsRepository holds the balance row and the append-only ledger for each
// user. Debit and Credit are the only mutation paths; both write the balance
// and the ledger in a single transaction so the two can always be reconciled.
type CreditsRepository interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	// Debit atomically subtracts amount from the user's balance and appends a
	// consumption ledger entry. Returns false without mutating anything when
	// the balance would go negative.
	Debit(ctx context.Context, userID uuid.UUID, amount int64, source, referenceID string) (bool, error)
	// Credit atomically adds amount to the user's balance and appends a ledger
	// entry of the given event type, creating the balance row if needed.
	Credit(ctx context.Context, userID uuid.UUID, amount int64, eventType, source, referenceID string) error
	ListLedger(ctx context.Context, userID uuid.UUID, limit int) ([]*models.CreditLedgerEntry, error)
}

type creditsRepository struct {
	db *database.DB
}

// NewCreditsRepository creates a new CreditsRepository.
func NewCreditsRepository(db *database.DB) CreditsRepository {
	return &creditsRepository{db: db}
}

var _ CreditsRepository = (*creditsRepository)(nil)

func (r *creditsRepository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx,
		`SELECT balance_credits FROM credits_balance WHERE user_id = $1`,
		userID,
	).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil // No balance row yet
		}
		return 0, fmt.Errorf("failed to get credit balance: %w", err)
	}
	return balance, nil
}

func (r *creditsRepository) Debit(ctx context.Context, userID uuid.UUID, amount int64, source, referenceID string) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("debit amount must be non-negative, got %d", amount)
	}
	if amount == 0 {
		return true, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin debit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the balance row so concurrent debits serialize.
	var balance int64
	err = tx.QueryRow(ctx,
		`SELECT balance_credits FROM credits_balance WHERE user_id = $1 FOR UPDATE`,
		userID,
	).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil // No balance row means zero credits
		}
		return false, fmt.Errorf("failed to lock credit balance: %w", err)
	}

	if balance < amount {
		return false, nil
	}

	now := time.Now()
	_, err = tx.Exec(ctx,
		`UPDATE credits_balance SET balance_credits = balance_credits - $1, updated_at = $2 WHERE user_id = $3`,
		amount, now, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to debit credit balance: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO credits_ledger (id, user_id, credits_delta, event_type, source, reference_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), userID, -amount, models.CreditEventConsumption, source, referenceID, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit debit: %w", err)
	}

	return true, nil
}

func (r *creditsRepository) Credit(ctx context.Context, userID uuid.UUID, amount int64, eventType, source, referenceID string) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin credit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	_, err = tx.Exec(ctx,
		`INSERT INTO credits_balance (user_id, balance_credits, created_at, updated_at)
		 VALUES ($1, $2, $3, $3)
		 ON CONFLICT (user_id)
		 DO UPDATE SET balance_credits = credits_balance.balance_credits + EXCLUDED.balance_credits,
		               updated_at = EXCLUDED.updated_at`,
		userID, amount, now,
	)
	if err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO credits_ledger (id, user_id, credits_delta, event_type, source, reference_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), userID, amount, eventType, source, referenceID, now,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit credit: %w", err)
	}

	return nil
}

func (r *creditsRepository) ListLedger(ctx context.Context, userID uuid.UUID, limit int) ([]*models.CreditLedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, credits_delta, event_type, source, reference_id, created_at
		FROM credits_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.CreditLedgerEntry, 0)
	for rows.Next() {
		var e models.CreditLedgerEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.CreditsDelta, &e.EventType, &e.Source,
			&e.ReferenceID, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}
