package service

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/bank-account-service/internal/domain/transaction"
)

// WorkerPoolRecordingService runs recordings of a base RecordingService on a bounded worker pool
type WorkerPoolRecordingService struct {
	baseService RecordingService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolRecordingService(
	baseService RecordingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolRecordingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolRecordingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// Record submits the recording to the worker pool and waits for its result.
// Waiting stops early when ctx is cancelled; the worker still finishes its write.
func (s *WorkerPoolRecordingService) Record(ctx context.Context, tx *transaction.Transaction) error {
	// Buffered so the worker never blocks when the caller stopped waiting
	resultChan := make(chan error, 1)
	txCopy := *tx

	err := s.pool.Submit(func() {
		resultChan <- s.baseService.Record(ctx, &txCopy)
	})
	if err != nil {
		s.logger.Error("Failed to submit transaction to worker pool",
			"transaction_id", tx.ID.String(),
			"error", err,
		)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolRecordingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolRecordingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolRecordingService) Capacity() int {
	return s.pool.Cap()
}
