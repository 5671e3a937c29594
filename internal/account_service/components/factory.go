package components

import (
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/bank-account-service/internal/account_service/service"
	"github.com/bank-account-service/internal/domain/account"
	"github.com/bank-account-service/internal/domain/transaction"
)

// CreateAccountService creates a new AccountService with all its dependencies.
// txLog receives deposit and withdraw records; txRepo serves transaction history.
func CreateAccountService(
	accountRepo account.Repository,
	txLog transaction.Log,
	txRepo transaction.Repository,
	logger *slog.Logger,
) service.AccountService {
	fieldUpdater := NewFieldUpdater(accountRepo, logger.With("component", "field_updater"))

	return service.NewAccountService(
		accountRepo,
		fieldUpdater,
		txLog,
		txRepo,
		validator.New(),
		logger.With("component", "account_service"),
	)
}
