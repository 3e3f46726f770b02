package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/easydayai/daisy-engine/pkg/models"
	"github.com/easydayai/daisy-engine/pkg/repositories"
)

// CreditService mediates every credit mutation the assistant makes. It tags
// ledger entries with a source and a unique reference so consumption can be
// traced back to the tool calls that caused it.
type CreditService interface {
	// Charge debits amount credits. It returns false when the balance cannot
	// cover the amount; nothing is written in that case.
	Charge(ctx context.Context, userID uuid.UUID, amount int64, source string) (bool, error)
	// Refund returns previously charged credits, e.g. when the paid work
	// could not be delivered after the debit.
	Refund(ctx context.Context, userID uuid.UUID, amount int64, source string) error
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
}

type creditService struct {
	creditsRepo repositories.CreditsRepository
	logger      *zap.Logger
}

// NewCreditService creates a new CreditService.
func NewCreditService(creditsRepo repositories.CreditsRepository, logger *zap.Logger) CreditService {
	return &creditService{
		creditsRepo: creditsRepo,
		logger:      logger.Named("credits"),
	}
}

var _ CreditService = (*creditService)(nil)

func (s *creditService) Charge(ctx context.Context, userID uuid.UUID, amount int64, source string) (bool, error) {
	// Free operations never touch the ledger.
	if amount == 0 {
		return true, nil
	}

	referenceID := uuid.New().String()
	charged, err := s.creditsRepo.Debit(ctx, userID, amount, source, referenceID)
	if err != nil {
		return false, fmt.Errorf("failed to charge credits: %w", err)
	}

	if charged {
		s.logger.Info("Charged credits",
			zap.String("user_id", userID.String()),
			zap.Int64("amount", amount),
			zap.String("source", source),
			zap.String("reference_id", referenceID))
	} else {
		s.logger.Info("Credit charge declined",
			zap.String("user_id", userID.String()),
			zap.Int64("amount", amount),
			zap.String("source", source))
	}

	return charged, nil
}

func (s *creditService) Refund(ctx context.Context, userID uuid.UUID, amount int64, source string) error {
	referenceID := uuid.New().String()
	err := s.creditsRepo.Credit(ctx, userID, amount, models.CreditEventRefund, source, referenceID)
	if err != nil {
		return fmt.Errorf("failed to refund credits: %w", err)
	}

	s.logger.Info("Refunded credits",
		zap.String("user_id", userID.String()),
		zap.Int64("amount", amount),
		zap.String("source", source),
		zap.String("reference_id", referenceID))

	return nil
}

func (s *creditService) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.creditsRepo.GetBalance(ctx, userID)
}
