package services

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/easydayai/daisy-engine/pkg/models"
	"github.com/easydayai/daisy-engine/pkg/repositories"
)

// knowledgeSeedFile is the on-disk shape of the knowledge seed.
type knowledgeSeedFile struct {
	Entries []knowledgeSeedEntry `yaml:"entries"`
}

type knowledgeSeedEntry struct {
	Topic    string `yaml:"topic"`
	Content  string `yaml:"content"`
	Category string `yaml:"category"`
}

// KnowledgeSeeder loads the initial company knowledge base from a YAML file
// on startup. It only writes when the table is empty, so redeploys never
// duplicate or overwrite entries edited since the first boot.
type KnowledgeSeeder struct {
	knowledgeRepo repositories.KnowledgeRepository
	seedPath      string
	logger        *zap.Logger
}

// NewKnowledgeSeeder creates a new KnowledgeSeeder. An empty seedPath
// disables seeding.
func NewKnowledgeSeeder(knowledgeRepo repositories.KnowledgeRepository, seedPath string, logger *zap.Logger) *KnowledgeSeeder {
	return &KnowledgeSeeder{
		knowledgeRepo: knowledgeRepo,
		seedPath:      seedPath,
		logger:        logger.Named("knowledge-seeder"),
	}
}

// Seed populates the knowledge base if it is empty.
func (s *KnowledgeSeeder) Seed(ctx context.Context) error {
	if s.seedPath == "" {
		s.logger.Debug("No knowledge seed path configured, skipping")
		return nil
	}

	count, err := s.knowledgeRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count knowledge entries: %w", err)
	}
	if count > 0 {
		s.logger.Debug("Knowledge base already populated, skipping seed",
			zap.Int("existing_entries", count))
		return nil
	}

	data, err := os.ReadFile(s.seedPath)
	if err != nil {
		return fmt.Errorf("failed to read knowledge seed file: %w", err)
	}

	var seed knowledgeSeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse knowledge seed file: %w", err)
	}

	inserted := 0
	for i, entry := range seed.Entries {
		if entry.Topic == "" || entry.Content == "" {
			return fmt.Errorf("knowledge seed entry %d is missing topic or content", i)
		}
		err := s.knowledgeRepo.Insert(ctx, &models.KnowledgeEntry{
			Topic:    entry.Topic,
			Content:  entry.Content,
			Category: entry.Category,
			IsActive: true,
		})
		if err != nil {
			return fmt.Errorf("failed to seed knowledge entry %q: %w", entry.Topic, err)
		}
		inserted++
	}

	s.logger.Info("Seeded knowledge base",
		zap.String("path", s.seedPath),
		zap.Int("entries", inserted))

	return nil
}
