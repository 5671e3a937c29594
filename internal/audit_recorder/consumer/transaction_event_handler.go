package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/bank-account-service/internal/audit_recorder/service"
	"github.com/bank-account-service/internal/domain/transaction"
	"github.com/bank-account-service/internal/platform/messaging/producers"
)

// TransactionEventHandler records transaction events consumed from Kafka
type TransactionEventHandler struct {
	recordingService service.RecordingService
	producer         producers.DeadLetterPublisher
	logger           *slog.Logger
}

// NewTransactionEventHandler creates a new handler. producer may be nil when no DLQ is configured.
func NewTransactionEventHandler(
	logger *slog.Logger,
	recordingService service.RecordingService,
	producer producers.DeadLetterPublisher,
) *TransactionEventHandler {
	return &TransactionEventHandler{
		recordingService: recordingService,
		producer:         producer,
		logger:           logger,
	}
}

// HandleMessage records one transaction event. Events that can never be recorded
// (unparseable or invalid) are moved to the DLQ and acknowledged; a storage
// failure is returned so the message is delivered again.
func (h *TransactionEventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var tx transaction.Transaction
	if err := json.Unmarshal(msg.Value, &tx); err != nil {
		return h.reject(ctx, msg, "Failed to unmarshal transaction event", err)
	}
	if tx.ID == uuid.Nil {
		return h.reject(ctx, msg, "Transaction event has no id", nil)
	}
	if err := tx.Validate(); err != nil {
		return h.reject(ctx, msg, "Invalid transaction event", err)
	}

	if tx.CorrelationID == "" {
		tx.CorrelationID = headerValue(msg, producers.CorrelationIDHeader)
	}

	logger := h.logger
	if tx.CorrelationID != "" {
		logger = h.logger.With("correlation_id", tx.CorrelationID)
	}
	logger.Debug("Received transaction event",
		"transaction_id", tx.ID.String(),
		"bank_account_id", tx.BankAccountID,
		"type", string(tx.Type),
	)

	if err := h.recordingService.Record(ctx, &tx); err != nil {
		return fmt.Errorf("recording transaction %s failed: %w", tx.ID.String(), err)
	}
	return nil
}

// reject sends msg to the DLQ. Without a DLQ the message is logged and dropped,
// since retrying it can never succeed.
func (h *TransactionEventHandler) reject(ctx context.Context, msg kafka.Message, reason string, cause error) error {
	if cause != nil {
		reason = fmt.Sprintf("%s: %s", reason, cause.Error())
	}
	key := string(msg.Key)
	h.logger.Error("Rejecting transaction event", "message_key", key, "reason", reason)

	if h.producer == nil {
		h.logger.Warn("No DLQ configured, dropping transaction event", "message_key", key)
		return nil
	}

	if err := h.producer.PublishToDLQ(ctx, key, msg.Value, reason); err != nil {
		if errors.Is(err, producers.ErrDLQDisabled) {
			h.logger.Warn("No DLQ configured, dropping transaction event", "message_key", key)
			return nil
		}
		// Keep the message until the DLQ accepts it
		return fmt.Errorf("failed to publish rejected event to DLQ: %w", err)
	}
	return nil
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
