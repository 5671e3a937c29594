package handler

import (
	"github.com/shopspring/decimal"
)

// CreateAccountRequest represents a request to create a new account.
// MinimumBalance defaults to zero and Active to false.
type CreateAccountRequest struct {
	AccountID      string           `json:"account_id" binding:"required"`
	FirstName      string           `json:"first_name" binding:"required"`
	LastName       string           `json:"last_name" binding:"required"`
	Balance        *decimal.Decimal `json:"balance" binding:"required"`
	MinimumBalance *decimal.Decimal `json:"minimum_balance"`
	Active         bool             `json:"active"`
}

// BalanceChangeRequest represents a deposit or withdrawal request
type BalanceChangeRequest struct {
	AccountID string           `json:"account_id" binding:"required"`
	Amount    *decimal.Decimal `json:"amount" binding:"required"`
}

// FieldUpdateRequest is one field/value pair of a field-update batch
type FieldUpdateRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// UpdateFieldsRequest represents an ordered field-update batch
type UpdateFieldsRequest struct {
	Updates []FieldUpdateRequest `json:"updates" binding:"required,min=1,dive"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID             int64  `json:"id"`
	AccountID      string `json:"account_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Balance        string `json:"balance"`
	MinimumBalance string `json:"minimum_balance"`
	Active         bool   `json:"active"`
	Version        int    `json:"version"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// TransactionResponse represents a transaction record in API responses
type TransactionResponse struct {
	ID            string `json:"id"`
	BankAccountID int64  `json:"bank_account_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	CorrelationID string `json:"correlation_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
