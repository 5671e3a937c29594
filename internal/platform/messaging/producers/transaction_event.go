package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/bank-account-service/internal/config"
	"github.com/bank-account-service/internal/domain/transaction"
	"github.com/bank-account-service/internal/logger"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// CorrelationIDHeader carries the originating request's correlation ID on event messages
const CorrelationIDHeader = "correlation-id"

// TransactionEventProducer publishes one event per deposit or withdrawal. It is the
// account service's transaction.Log; the audit recorder persists the events.
type TransactionEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewTransactionEventProducer ensures the topic exists and returns an asynchronous producer
func NewTransactionEventProducer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*TransactionEventProducer, error) {
	if cfg.TransactionTopic == "" {
		return nil, fmt.Errorf("kafka transaction topic is not configured")
	}

	brokers := SplitBrokers(cfg.Brokers)
	if err := dialAndEnsureTopic(brokers, cfg.TransactionTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure transaction topic %s exists: %w", cfg.TransactionTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.TransactionTopic,
		Balancer:     &kafka.Hash{}, // events of one account stay in order on one partition
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write transaction events", "topic", cfg.TransactionTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Wrote transaction events", "topic", cfg.TransactionTopic, "count", len(messages))
			}
		},
	}

	return &TransactionEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.TransactionTopic,
	}, nil
}

// Append publishes a transaction event keyed by the bank account ID
func (p *TransactionEventProducer) Append(ctx context.Context, bankAccountID int64, amount decimal.Decimal, txType transaction.Type) error {
	correlationID := logger.CorrelationID(ctx)
	tx := transaction.New(bankAccountID, amount, txType, correlationID)
	if err := tx.Validate(); err != nil {
		return err
	}

	value, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction event: %w", err)
	}

	key := strconv.FormatInt(bankAccountID, 10)
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}
	if correlationID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: CorrelationIDHeader, Value: []byte(correlationID)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish transaction event",
			"topic", p.topic,
			"key", key,
			"transaction_id", tx.ID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to publish transaction event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published transaction event",
		"topic", p.topic,
		"key", key,
		"transaction_id", tx.ID.String(),
		"type", string(txType),
	)
	return nil
}

func (p *TransactionEventProducer) Close() error {
	p.logger.Info("Closing transaction event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

var _ transaction.Log = (*TransactionEventProducer)(nil)
