package account

import (
	"context"
	"strconv"
)

// Repository defines account persistence operations
type Repository interface {
	// FindByID returns nil, nil when no account has the given ID
	FindByID(ctx context.Context, id int64) (*Account, error)
	// FindByAccountID returns nil, nil when no account has the given account ID
	FindByAccountID(ctx context.Context, accountID string) (*Account, error)

	// Save inserts an account without an ID, or replaces an existing one using
	// optimistic locking on Version. It returns the record as persisted.
	// Inserting a duplicate AccountID fails with ErrDuplicateAccount.
	Save(ctx context.Context, account *Account) (*Account, error)

	DeleteByAccountID(ctx context.Context, accountID string) error
	DeleteByID(ctx context.Context, id int64) error
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID string
	ID        int64
}

func (e ErrAccountNotFound) Error() string {
	if e.AccountID == "" {
		return "bank account not found: " + strconv.FormatInt(e.ID, 10)
	}
	return "bank account not found: " + e.AccountID
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	// An empty target matches any ErrAccountNotFound
	if t.AccountID == "" && t.ID == 0 {
		return true
	}
	return e.AccountID == t.AccountID && e.ID == t.ID
}

// ErrDuplicateAccount indicates an account with the same account ID already exists
type ErrDuplicateAccount struct {
	AccountID string
}

func (e ErrDuplicateAccount) Error() string {
	return "bank account already exists: " + e.AccountID
}

// Is implements the errors.Is interface for ErrDuplicateAccount
func (e ErrDuplicateAccount) Is(target error) bool {
	t, ok := target.(ErrDuplicateAccount)
	if !ok {
		return false
	}
	return t.AccountID == "" || t.AccountID == e.AccountID
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	ID int64
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for bank account: " + strconv.FormatInt(e.ID, 10)
}

// Is implements the errors.Is interface for ErrConcurrentModification
func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	return t.ID == 0 || t.ID == e.ID
}
