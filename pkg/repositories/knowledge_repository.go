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

// KnowledgeRepository provides data access for the company knowledge base.
type KnowledgeRepository interface {
	ListActive(ctx context.Context) ([]*models.KnowledgeEntry, error)
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, entry *models.KnowledgeEntry) error
}

type knowledgeRepository struct {
	db *database.DB
}

// NewKnowledgeRepository creates a new KnowledgeRepository.
func NewKnowledgeRepository(db *database.DB) KnowledgeRepository {
	return &knowledgeRepository{db: db}
}

var _ KnowledgeRepository = (*knowledgeRepository)(nil)

// ListActive returns active knowledge entries ordered by category and topic.
// Called on every assistant request; the table is expected to stay small.
func (r *knowledgeRepository) ListActive(ctx context.Context) ([]*models.KnowledgeEntry, error) {
	query := `
		SELECT id, topic, content, category, is_active, created_at, updated_at
		FROM company_knowledge
		WHERE is_active = true
		ORDER BY category, topic`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.KnowledgeEntry, 0)
	for rows.Next() {
		e, err := scanKnowledgeEntryRows(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating knowledge entries: %w", err)
	}

	return entries, nil
}

func (r *knowledgeRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM company_knowledge`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count knowledge entries: %w", err)
	}
	return count, nil
}

func (r *knowledgeRepository) Insert(ctx context.Context, entry *models.KnowledgeEntry) error {
	now := time.Now()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `
		INSERT INTO company_knowledge (id, topic, content, category, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.Topic, entry.Content, entry.Category, entry.IsActive,
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert knowledge entry: %w", err)
	}

	return nil
}

func scanKnowledgeEntryRows(rows pgx.Rows) (*models.KnowledgeEntry, error) {
	var e models.KnowledgeEntry
	err := rows.Scan(
		&e.ID, &e.Topic, &e.Content, &e.Category, &e.IsActive,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
	}
	return &e, nil
}
