package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInactiveAccount   = errors.New("bank account is inactive")
	ErrInvalidAmount     = errors.New("amount must not be negative")
	ErrInsufficientFunds = errors.New("insufficient funds for withdrawal")
	ErrInvalidAccountID  = errors.New("account id must be a valid email address")
)

// Account represents a bank account.
// ID is assigned by the store; AccountID is the caller-facing key.
type Account struct {
	ID             int64           `json:"id"`
	AccountID      string          `json:"account_id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Balance        decimal.Decimal `json:"balance"`
	MinimumBalance decimal.Decimal `json:"minimum_balance"`
	Active         bool            `json:"active"`
	Version        int             `json:"version"` // For optimistic locking
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// New creates a new, not yet persisted account. Each call returns a fresh value.
func New(accountID, firstName, lastName string, balance, minimumBalance decimal.Decimal, active bool) *Account {
	now := time.Now().UTC().Truncate(time.Microsecond)

	return &Account{
		AccountID:      accountID,
		FirstName:      firstName,
		LastName:       lastName,
		Balance:        balance,
		MinimumBalance: minimumBalance,
		Active:         active,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Touch refreshes UpdatedAt. The new value is always strictly after the previous one,
// even when the clock has not advanced past it at storage precision.
func (a *Account) Touch(now time.Time) {
	now = now.UTC().Truncate(time.Microsecond)
	if !now.After(a.UpdatedAt) {
		now = a.UpdatedAt.Add(time.Microsecond)
	}
	a.UpdatedAt = now
}

// CanWithdraw checks that the balance stays at or above the minimum balance after the withdrawal
func (a *Account) CanWithdraw(amount decimal.Decimal) bool {
	return a.Balance.Sub(amount).GreaterThanOrEqual(a.MinimumBalance)
}
