package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bank-account-service/internal/account_service/service"
	"github.com/bank-account-service/internal/domain/transaction"
	"github.com/bank-account-service/internal/logger"
)

// TransactionHandler serves the transaction history of accounts
type TransactionHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, accountService service.AccountService) *TransactionHandler {
	return &TransactionHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// ListByAccount retrieves paginated transaction history for an account, newest first
func (h *TransactionHandler) ListByAccount(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		logger.FromContext(c.Request.Context(), h.logger).Warn("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	records, total, err := h.accountService.ListTransactions(
		c.Request.Context(),
		c.Param("accountId"),
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	transactions := make([]TransactionResponse, 0, len(records))
	for _, record := range records {
		transactions = append(transactions, mapTransactionToResponse(record))
	}

	RespondWithPaginatedData(c, http.StatusOK, transactions, pagination.Page, pagination.PerPage, int(total))
}

// mapTransactionToResponse maps a transaction record to a transaction response DTO
func mapTransactionToResponse(tx *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID.String(),
		BankAccountID: tx.BankAccountID,
		Type:          string(tx.Type),
		Amount:        tx.Amount.String(),
		CorrelationID: tx.CorrelationID,
		CreatedAt:     tx.CreatedAt.Format(time.RFC3339Nano),
	}
}
