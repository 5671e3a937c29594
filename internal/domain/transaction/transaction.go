package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrNegativeAmount = errors.New("transaction amount must not be negative")
)

// Type defines possible balance operations
type Type string

const (
	TypeDeposit  Type = "DEPOSIT"
	TypeWithdraw Type = "WITHDRAW"
)

// Valid reports whether t is a known transaction type
func (t Type) Valid() bool {
	return t == TypeDeposit || t == TypeWithdraw
}

// Transaction is an immutable audit record of a deposit or withdrawal.
// BankAccountID references the account's internal ID.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	BankAccountID int64           `json:"bank_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          Type            `json:"type"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// New creates a transaction record with a fresh ID
func New(bankAccountID int64, amount decimal.Decimal, txType Type, correlationID string) *Transaction {
	return &Transaction{
		ID:            uuid.New(),
		BankAccountID: bankAccountID,
		Amount:        amount,
		Type:          txType,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
}

// Validate checks the record before it is stored
func (t *Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}
