package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bank-account-service/internal/audit_recorder/components"
	"github.com/bank-account-service/internal/audit_recorder/consumer"
	"github.com/bank-account-service/internal/config"
	"github.com/bank-account-service/internal/data/mongo"
	"github.com/bank-account-service/internal/logger"
	"github.com/bank-account-service/internal/platform/messaging/consumers"
	"github.com/bank-account-service/internal/platform/messaging/producers"
	"github.com/bank-account-service/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("audit_recorder")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Audit Recorder",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"topic", cfg.Kafka.TransactionTopic,
		"consumer_group", cfg.Kafka.ConsumerGroup,
	)

	if cfg.TransactionLog.Driver != config.TransactionLogDriverKafka {
		log.Error("Audit recorder requires the kafka transaction log driver", "driver", cfg.TransactionLog.Driver)
		os.Exit(1)
	}

	// Initialize MongoDB
	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	transactionRepo := mongo.NewTransactionRepository(log, mongoDB.Database())
	if err := transactionRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create transaction indexes", "error", err)
		_ = mongoDB.Close(context.Background())
		os.Exit(1)
	}

	// Initialize DLQ producer, nil when no DLQ topic is configured
	dlqProducer, err := producers.NewDLQProducer(appCtx, log.With("component", "dlq_producer"), &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ producer", "error", err)
		_ = mongoDB.Close(context.Background())
		os.Exit(1)
	}

	// Initialize services
	recordingService, shutdownRecording := components.CreateRecordingService(transactionRepo, log, cfg)

	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}
	eventHandler := consumer.NewTransactionEventHandler(log.With("component", "transaction_event_handler"), recordingService, deadLetters)

	kafkaConsumer := consumers.NewKafkaConsumer(log.With("component", "kafka_consumer"), &cfg.Kafka)

	// Create error channel for consumer errors
	errChan := make(chan error, 1)
	var wg sync.WaitGroup

	// Start consumer in goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := kafkaConsumer.Subscribe(appCtx, eventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var consumerErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Consumer error occurred", "error", err)
		consumerErr = err
	}

	// Cancel the application context, stopping the consumer loop
	cancelAppCtx()
	wg.Wait()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	shutdownRecording()

	var shutdownErr error
	if err := kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
		shutdownErr = err
	}

	if dlqProducer != nil {
		if err := dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ producer", "error", err)
			shutdownErr = err
		}
	}

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	// Final status
	if consumerErr != nil {
		log.Error("Kafka consumer shutdown with errors", "error", consumerErr)
	}
	if shutdownErr != nil {
		log.Error("Audit recorder shutdown completed with errors")
	} else {
		log.Info("Audit recorder shutdown completed successfully")
	}
}
