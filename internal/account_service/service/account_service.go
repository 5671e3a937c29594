package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/bank-account-service/internal/domain/account"
	"github.com/bank-account-service/internal/domain/transaction"
	"github.com/bank-account-service/internal/logger"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo  account.Repository
	fieldUpdater FieldUpdater
	txLog        transaction.Log
	txRepo       transaction.Repository
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	accountRepo account.Repository,
	fieldUpdater FieldUpdater,
	txLog transaction.Log,
	txRepo transaction.Repository,
	validate *validator.Validate,
	logger *slog.Logger,
) AccountService {
	return &AccountServiceImpl{
		accountRepo:  accountRepo,
		fieldUpdater: fieldUpdater,
		txLog:        txLog,
		txRepo:       txRepo,
		validate:     validate,
		logger:       logger,
	}
}

// GetInfo retrieves an account by its account ID
func (s *AccountServiceImpl) GetInfo(ctx context.Context, accountID string) (*account.Account, error) {
	if err := s.checkAccountID(accountID); err != nil {
		return nil, err
	}
	return s.findExisting(ctx, accountID)
}

// GetInfoByID retrieves an account by its internal ID
func (s *AccountServiceImpl) GetInfoByID(ctx context.Context, id int64) (*account.Account, error) {
	acc, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %d: %w", id, err)
	}
	if acc == nil {
		return nil, account.ErrAccountNotFound{ID: id}
	}
	return acc, nil
}

// Create persists a new account with the supplied fields, checking for duplicate account IDs
func (s *AccountServiceImpl) Create(ctx context.Context, req CreateAccountRequest) (*account.Account, error) {
	if err := s.checkAccountID(req.AccountID); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx, s.logger)

	existing, err := s.accountRepo.FindByAccountID(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", req.AccountID, err)
	}
	if existing != nil {
		return nil, account.ErrDuplicateAccount{AccountID: req.AccountID}
	}

	acc := account.New(req.AccountID, req.FirstName, req.LastName, req.Balance, req.MinimumBalance, req.Active)
	saved, err := s.accountRepo.Save(ctx, acc)
	if err != nil {
		if errors.Is(err, account.ErrDuplicateAccount{}) {
			return nil, err
		}
		log.Error("Failed to create account", "acc_id", req.AccountID, "error", err)
		return nil, fmt.Errorf("failed to create account %s: %w", req.AccountID, err)
	}

	log.Info("Account created", "acc_id", saved.AccountID, "id", saved.ID, "active", saved.Active)
	return saved, nil
}

// Delete removes an account by its account ID
func (s *AccountServiceImpl) Delete(ctx context.Context, accountID string) error {
	if err := s.checkAccountID(accountID); err != nil {
		return err
	}
	if err := s.accountRepo.DeleteByAccountID(ctx, accountID); err != nil {
		return fmt.Errorf("failed to delete account %s: %w", accountID, err)
	}
	logger.FromContext(ctx, s.logger).Info("Account deleted", "acc_id", accountID)
	return nil
}

// DeleteByID removes an account by its internal ID
func (s *AccountServiceImpl) DeleteByID(ctx context.Context, id int64) error {
	if err := s.accountRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete account %d: %w", id, err)
	}
	logger.FromContext(ctx, s.logger).Info("Account deleted", "id", id)
	return nil
}

// Activate marks an account active
func (s *AccountServiceImpl) Activate(ctx context.Context, accountID string) (*account.Account, error) {
	return s.setActive(ctx, accountID, true)
}

// Deactivate marks an account inactive
func (s *AccountServiceImpl) Deactivate(ctx context.Context, accountID string) (*account.Account, error) {
	return s.setActive(ctx, accountID, false)
}

func (s *AccountServiceImpl) setActive(ctx context.Context, accountID string, active bool) (*account.Account, error) {
	if err := s.checkAccountID(accountID); err != nil {
		return nil, err
	}
	acc, err := s.findExisting(ctx, accountID)
	if err != nil {
		return nil, err
	}

	value := "false"
	if active {
		value = "true"
	}
	return s.fieldUpdater.Update(ctx, acc, []account.FieldUpdate{{Field: account.FieldActive, Value: value}})
}

// Deposit adds amount to the balance of an active account
func (s *AccountServiceImpl) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*account.Account, error) {
	acc, err := s.prepareBalanceChange(ctx, accountID, amount)
	if err != nil {
		return nil, err
	}
	return s.changeBalance(ctx, acc, acc.Balance.Add(amount), amount, transaction.TypeDeposit)
}

// Withdraw subtracts amount from the balance of an active account as long as
// the balance stays at or above the minimum balance
func (s *AccountServiceImpl) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*account.Account, error) {
	acc, err := s.prepareBalanceChange(ctx, accountID, amount)
	if err != nil {
		return nil, err
	}
	if !acc.CanWithdraw(amount) {
		logger.FromContext(ctx, s.logger).Warn("Insufficient funds for withdrawal",
			"acc_id", accountID, "bal", acc.Balance, "min_bal", acc.MinimumBalance, "amt", amount)
		return nil, account.ErrInsufficientFunds
	}
	return s.changeBalance(ctx, acc, acc.Balance.Sub(amount), amount, transaction.TypeWithdraw)
}

// prepareBalanceChange runs the checks shared by deposit and withdraw. The amount
// is checked before the store is consulted.
func (s *AccountServiceImpl) prepareBalanceChange(ctx context.Context, accountID string, amount decimal.Decimal) (*account.Account, error) {
	if err := s.checkAccountID(accountID); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, account.ErrInvalidAmount
	}
	acc, err := s.findExisting(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !acc.Active {
		return nil, account.ErrInactiveAccount
	}
	return acc, nil
}

func (s *AccountServiceImpl) changeBalance(ctx context.Context, acc *account.Account, newBalance, amount decimal.Decimal, txType transaction.Type) (*account.Account, error) {
	updated, err := s.fieldUpdater.Update(ctx, acc, []account.FieldUpdate{{Field: account.FieldBalance, Value: newBalance.String()}})
	if err != nil {
		return nil, err
	}

	// The balance change stands even if the audit record is lost
	if err := s.txLog.Append(ctx, updated.ID, amount, txType); err != nil {
		logger.FromContext(ctx, s.logger).Error("Failed to append transaction record",
			"acc_id", updated.AccountID, "transaction_type", string(txType), "amount", amount, "error", err)
	}
	return updated, nil
}

// UpdateFields applies a field-update batch to an existing account
func (s *AccountServiceImpl) UpdateFields(ctx context.Context, accountID string, updates []account.FieldUpdate) (*account.Account, error) {
	if err := s.checkAccountID(accountID); err != nil {
		return nil, err
	}
	acc, err := s.findExisting(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.fieldUpdater.Update(ctx, acc, updates)
}

// ListTransactions retrieves a page of the account's transaction records.
// Returns records, total count, and any error
func (s *AccountServiceImpl) ListTransactions(ctx context.Context, accountID string, page, perPage int) ([]*transaction.Transaction, int64, error) {
	if err := s.checkAccountID(accountID); err != nil {
		return nil, 0, err
	}
	acc, err := s.findExisting(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	records, err := s.txRepo.ListByBankAccountID(ctx, acc.ID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.txRepo.CountByBankAccountID(ctx, acc.ID)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (s *AccountServiceImpl) checkAccountID(accountID string) error {
	if err := s.validate.Var(accountID, "required,email"); err != nil {
		return account.ErrInvalidAccountID
	}
	return nil
}

func (s *AccountServiceImpl) findExisting(ctx context.Context, accountID string) (*account.Account, error) {
	acc, err := s.accountRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	if acc == nil {
		return nil, account.ErrAccountNotFound{AccountID: accountID}
	}
	return acc, nil
}
