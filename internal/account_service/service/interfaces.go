package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bank-account-service/internal/domain/account"
	"github.com/bank-account-service/internal/domain/transaction"
)

// CreateAccountRequest carries the caller-supplied fields of a new account
type CreateAccountRequest struct {
	AccountID      string
	FirstName      string
	LastName       string
	Balance        decimal.Decimal
	MinimumBalance decimal.Decimal
	Active         bool
}

// AccountService defines the interface for bank account operations.
// Key-based operations return ErrInvalidAccountID for a malformed account ID.
type AccountService interface {
	// GetInfo returns ErrAccountNotFound if the account doesn't exist
	GetInfo(ctx context.Context, accountID string) (*account.Account, error)
	// GetInfoByID returns ErrAccountNotFound if the account doesn't exist
	GetInfoByID(ctx context.Context, id int64) (*account.Account, error)

	// Create returns ErrDuplicateAccount if the account ID is taken
	Create(ctx context.Context, req CreateAccountRequest) (*account.Account, error)

	// Delete and DeleteByID succeed when the account is already gone
	Delete(ctx context.Context, accountID string) error
	DeleteByID(ctx context.Context, id int64) error

	Activate(ctx context.Context, accountID string) (*account.Account, error)
	Deactivate(ctx context.Context, accountID string) (*account.Account, error)

	// Deposit and Withdraw return ErrInvalidAmount, ErrAccountNotFound,
	// ErrInactiveAccount and, for Withdraw, ErrInsufficientFunds
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*account.Account, error)
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*account.Account, error)

	// UpdateFields applies a field-update batch.
	// Returns UnauthorizedFieldError or ParseError without persisting anything.
	UpdateFields(ctx context.Context, accountID string, updates []account.FieldUpdate) (*account.Account, error)

	// ListTransactions returns a page of audit records, newest first, and the total count
	ListTransactions(ctx context.Context, accountID string, page, perPage int) ([]*transaction.Transaction, int64, error)
}

// FieldUpdater applies field updates to an existing account and persists the result
type FieldUpdater interface {
	Update(ctx context.Context, existing *account.Account, updates []account.FieldUpdate) (*account.Account, error)
}
