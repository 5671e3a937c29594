package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Log appends audit records for balance operations
type Log interface {
	Append(ctx context.Context, bankAccountID int64, amount decimal.Decimal, txType Type) error
}

// Repository manages transaction record persistence with pagination support
type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListByBankAccountID(ctx context.Context, bankAccountID int64, limit, offset int) ([]*Transaction, error)
	CountByBankAccountID(ctx context.Context, bankAccountID int64) (int64, error)
}

// ErrTransactionNotFound indicates missing transaction record
type ErrTransactionNotFound struct {
	ID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.ID.String()
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	// If the target ID is empty, consider it a match for any ErrTransactionNotFound
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}

// ErrDuplicateTransaction indicates transaction uniqueness violation
type ErrDuplicateTransaction struct {
	ID uuid.UUID
}

func (e ErrDuplicateTransaction) Error() string {
	return "duplicate transaction: " + e.ID.String()
}

// Is implements the errors.Is interface for ErrDuplicateTransaction
func (e ErrDuplicateTransaction) Is(target error) bool {
	t, ok := target.(ErrDuplicateTransaction)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}
