package service

import (
	"context"

	"github.com/bank-account-service/internal/domain/transaction"
)

// RecordingService stores transaction records consumed from the event stream
type RecordingService interface {
	// Record stores tx. Recording the same transaction twice is not an error.
	Record(ctx context.Context, tx *transaction.Transaction) error
}
