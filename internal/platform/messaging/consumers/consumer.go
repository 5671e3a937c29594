package consumers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bank-account-service/internal/config"
	"github.com/bank-account-service/internal/platform/messaging/producers"
	"github.com/segmentio/kafka-go"
)

const defaultRetryBackoff = time.Second

// MessageHandler processes one message. A returned error means the message
// could not be handled yet and must be delivered again.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

// KafkaReader wraps kafka.Reader methods for testing
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ KafkaReader = (*kafka.Reader)(nil)

// KafkaConsumer implements Consumer using a Kafka consumer group
type KafkaConsumer struct {
	reader  KafkaReader
	logger  *slog.Logger
	topic   string
	groupID string
	backoff time.Duration
}

func NewKafkaConsumer(logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	return &KafkaConsumer{
		logger:  logger,
		topic:   cfg.TransactionTopic,
		groupID: cfg.ConsumerGroup,
		backoff: defaultRetryBackoff,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     producers.SplitBrokers(cfg.Brokers),
			Topic:       cfg.TransactionTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: kafka.FirstOffset,
		}),
	}
}

// Subscribe blocks, handing each message to handler until ctx is cancelled.
// Offsets are committed only after the handler succeeds; a failing message is
// retried in place so later messages are never committed past it.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	log := c.logger.With("topic", c.topic, "group_id", c.groupID)
	log.Info("Subscribed to Kafka topic")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Info("Context canceled, stopping consumer")
				return nil
			}
			log.Error("Failed to fetch message from Kafka", "error", err)
			if !c.sleep(ctx) {
				return nil
			}
			continue
		}

		msgLog := log.With("partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))
		msgLog.Debug("Received message from Kafka")

		for {
			err := handler(ctx, msg)
			if err == nil {
				break
			}
			msgLog.Error("Failed to process message, retrying", "error", err)
			if !c.sleep(ctx) {
				return nil
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			msgLog.Error("Failed to commit message after successful processing", "error", err)
			continue
		}
		msgLog.Debug("Message committed successfully")
	}
}

func (c *KafkaConsumer) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.backoff):
		return true
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
