package components

import (
	"log/slog"

	"github.com/bank-account-service/internal/audit_recorder/service"
	"github.com/bank-account-service/internal/config"
	"github.com/bank-account-service/internal/domain/transaction"
)

// CreateRecordingService creates a RecordingService backed by txRepo, running on a
// worker pool when one can be created. The returned shutdown func releases the pool.
func CreateRecordingService(
	txRepo transaction.Repository,
	logger *slog.Logger,
	cfg *config.Config,
) (service.RecordingService, func()) {
	baseService := service.NewRecordingService(txRepo, logger.With("component", "recording_service"))

	workerPoolService, err := service.NewWorkerPoolRecordingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService, func() {}
	}

	logger.Info("Created worker pool recording service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService, workerPoolService.Shutdown
}
