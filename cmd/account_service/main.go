package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bank-account-service/internal/account_service"
	"github.com/bank-account-service/internal/account_service/components"
	"github.com/bank-account-service/internal/config"
	"github.com/bank-account-service/internal/data/cache"
	"github.com/bank-account-service/internal/data/memory"
	"github.com/bank-account-service/internal/data/mongo"
	"github.com/bank-account-service/internal/data/postgres"
	"github.com/bank-account-service/internal/domain/account"
	"github.com/bank-account-service/internal/domain/transaction"
	"github.com/bank-account-service/internal/logger"
	"github.com/bank-account-service/internal/platform/messaging/producers"
	"github.com/bank-account-service/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("account_service")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Account Service",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"store_driver", cfg.Store.Driver,
		"transaction_log_driver", cfg.TransactionLog.Driver,
	)

	// Shutdown hooks run in reverse order of registration
	var closers []func(ctx context.Context)
	fail := func(msg string, err error) {
		log.Error(msg, "error", err)
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i](context.Background())
		}
		os.Exit(1)
	}

	// Transaction history lives in MongoDB for every configuration
	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		fail("Failed to initialize MongoDB", err)
	}
	closers = append(closers, func(ctx context.Context) {
		if err := mongoDB.Close(ctx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	})

	transactionRepo := mongo.NewTransactionRepository(log, mongoDB.Database())
	if err := transactionRepo.EnsureIndexes(appCtx); err != nil {
		fail("Failed to create transaction indexes", err)
	}

	// Initialize account store
	var accountRepo account.Repository
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
		if err != nil {
			fail("Failed to initialize PostgreSQL", err)
		}
		closers = append(closers, func(context.Context) { postgresDB.Close() })
		accountRepo = postgres.NewAccountRepository(log, postgresDB)
	case config.StoreDriverMemory:
		log.Warn("Using in-memory account store, accounts are lost on restart")
		accountRepo = memory.NewAccountRepository()
	}

	if cfg.Redis.Enabled {
		redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
		if err != nil {
			fail("Failed to initialize Redis", err)
		}
		closers = append(closers, func(context.Context) {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", "error", err)
			}
		})
		accountRepo = cache.NewAccountRepository(log.With("component", "account_cache"), accountRepo, redisClient, cfg.Redis.TTL)
	}

	// Initialize transaction log
	txLog, err := newTransactionLog(appCtx, log, cfg, transactionRepo)
	if err != nil {
		fail("Failed to initialize transaction log", err)
	}
	if producer, ok := txLog.(*producers.TransactionEventProducer); ok {
		closers = append(closers, func(context.Context) {
			if err := producer.Close(); err != nil {
				log.Error("Error closing Kafka producer", "error", err)
			}
		})
	}

	// Initialize services
	accountService := components.CreateAccountService(accountRepo, txLog, transactionRepo, log)

	// Initialize REST server
	server := account_service.NewServer(log, cfg, accountService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence: stop taking requests, then release backends
	log.Info("Starting graceful shutdown...")

	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i](shutdownCtx)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}

// newTransactionLog selects where deposit and withdraw records go: Kafka events for
// the audit recorder, or direct MongoDB writes
func newTransactionLog(ctx context.Context, log *slog.Logger, cfg *config.Config, repo *mongo.TransactionRepository) (transaction.Log, error) {
	switch cfg.TransactionLog.Driver {
	case config.TransactionLogDriverKafka:
		return producers.NewTransactionEventProducer(ctx, log.With("component", "transaction_producer"), &cfg.Kafka)
	case config.TransactionLogDriverMongo:
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported transaction log driver %q", cfg.TransactionLog.Driver)
	}
}
