package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bank-account-service/internal/account_service/service"
	"github.com/bank-account-service/internal/domain/account"
	"github.com/bank-account-service/internal/logger"
)

// FieldUpdaterImpl implements the FieldUpdater interface
type FieldUpdaterImpl struct {
	accountRepo account.Repository
	logger      *slog.Logger
	now         func() time.Time
}

// NewFieldUpdater creates a new FieldUpdaterImpl
func NewFieldUpdater(accountRepo account.Repository, logger *slog.Logger) service.FieldUpdater {
	return &FieldUpdaterImpl{
		accountRepo: accountRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Update applies the updates to a copy of existing, refreshes UpdatedAt and saves the copy.
// The caller must have fetched existing beforehand. Nothing is saved if any update is rejected.
func (u *FieldUpdaterImpl) Update(ctx context.Context, existing *account.Account, updates []account.FieldUpdate) (*account.Account, error) {
	log := logger.FromContext(ctx, u.logger)

	updated, err := account.Apply(*existing, updates)
	if err != nil {
		log.Warn("Rejected field update", "acc_id", existing.AccountID, "error", err)
		return nil, err
	}
	updated.Touch(u.now())

	saved, err := u.accountRepo.Save(ctx, &updated)
	if err != nil {
		if errors.Is(err, account.ErrConcurrentModification{}) {
			log.Warn("Concurrent modification on account update", "acc_id", existing.AccountID, "ver", existing.Version)
			return nil, err
		}
		log.Error("Failed to save account", "acc_id", existing.AccountID, "error", err)
		return nil, fmt.Errorf("failed to save account %s: %w", existing.AccountID, err)
	}
	log.Info("Account updated", "acc_id", saved.AccountID, "fields", len(updates), "ver", saved.Version)

	return saved, nil
}
