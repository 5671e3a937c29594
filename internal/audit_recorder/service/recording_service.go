package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bank-account-service/internal/domain/transaction"
)

// RecordingServiceImpl writes transaction records to the transaction repository
type RecordingServiceImpl struct {
	txRepo transaction.Repository
	logger *slog.Logger
}

// NewRecordingService creates a new recording service
func NewRecordingService(txRepo transaction.Repository, logger *slog.Logger) *RecordingServiceImpl {
	return &RecordingServiceImpl{
		txRepo: txRepo,
		logger: logger,
	}
}

// Record stores tx, treating an already stored record as success so redelivered
// events are harmless
func (s *RecordingServiceImpl) Record(ctx context.Context, tx *transaction.Transaction) error {
	logger := s.logger
	if tx.CorrelationID != "" {
		logger = s.logger.With("correlation_id", tx.CorrelationID)
	}

	if err := s.txRepo.Create(ctx, tx); err != nil {
		if errors.Is(err, transaction.ErrDuplicateTransaction{}) {
			logger.Info("Transaction already recorded, skipping", "transaction_id", tx.ID.String())
			return nil
		}
		logger.Error("Failed to record transaction", "transaction_id", tx.ID.String(), "error", err)
		return fmt.Errorf("failed to record transaction %s: %w", tx.ID.String(), err)
	}

	logger.Info("Transaction recorded",
		"transaction_id", tx.ID.String(),
		"bank_account_id", tx.BankAccountID,
		"type", string(tx.Type),
		"amount", tx.Amount,
	)
	return nil
}
