package handler

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/bank-account-service/internal/account_service/service"
	"github.com/bank-account-service/internal/domain/account"
	"github.com/bank-account-service/internal/logger"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Get retrieves an account by its account ID
func (h *AccountHandler) Get(c *gin.Context) {
	acc, err := h.accountService.GetInfo(c.Request.Context(), c.Param("accountId"))
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

// GetByID retrieves an account by its internal ID
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	acc, err := h.accountService.GetInfoByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

// Create handles creation of a new account
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.requestLogger(c).Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	minimumBalance := decimal.Zero
	if req.MinimumBalance != nil {
		minimumBalance = *req.MinimumBalance
	}

	acc, err := h.accountService.Create(c.Request.Context(), service.CreateAccountRequest{
		AccountID:      req.AccountID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Balance:        *req.Balance,
		MinimumBalance: minimumBalance,
		Active:         req.Active,
	})
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondCreated(c, mapAccountToResponse(acc))
}

// Delete removes an account by its account ID
func (h *AccountHandler) Delete(c *gin.Context) {
	if err := h.accountService.Delete(c.Request.Context(), c.Param("accountId")); err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}

// DeleteByID removes an account by its internal ID
func (h *AccountHandler) DeleteByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.accountService.DeleteByID(c.Request.Context(), id); err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}

// Activate marks an account active
func (h *AccountHandler) Activate(c *gin.Context) {
	acc, err := h.accountService.Activate(c.Request.Context(), c.Param("accountId"))
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

// Deactivate marks an account inactive
func (h *AccountHandler) Deactivate(c *gin.Context) {
	acc, err := h.accountService.Deactivate(c.Request.Context(), c.Param("accountId"))
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

// Deposit adds funds to an account
func (h *AccountHandler) Deposit(c *gin.Context) {
	var req BalanceChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.requestLogger(c).Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.Deposit(c.Request.Context(), req.AccountID, *req.Amount)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

// Withdraw takes funds from an account
func (h *AccountHandler) Withdraw(c *gin.Context) {
	var req BalanceChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.requestLogger(c).Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.Withdraw(c.Request.Context(), req.AccountID, *req.Amount)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

// UpdateFields applies a field-update batch. Field names are matched case-insensitively;
// unknown names are rejected like any other field outside the whitelist.
func (h *AccountHandler) UpdateFields(c *gin.Context) {
	var req UpdateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.requestLogger(c).Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updates := make([]account.FieldUpdate, 0, len(req.Updates))
	for _, u := range req.Updates {
		updates = append(updates, account.FieldUpdate{Field: account.ParseField(u.Field), Value: u.Value})
	}

	acc, err := h.accountService.UpdateFields(c.Request.Context(), c.Param("accountId"), updates)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

func (h *AccountHandler) parseID(c *gin.Context) (int64, bool) {
	idParam := c.Param("id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		h.requestLogger(c).Warn("Invalid account ID", "id", idParam)
		RespondBadRequest(c, "Invalid account ID")
		return 0, false
	}
	return id, true
}

func (h *AccountHandler) requestLogger(c *gin.Context) *slog.Logger {
	return logger.FromContext(c.Request.Context(), h.logger)
}

// mapAccountToResponse maps an account entity to an account response DTO
func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:             acc.ID,
		AccountID:      acc.AccountID,
		FirstName:      acc.FirstName,
		LastName:       acc.LastName,
		Balance:        acc.Balance.String(),
		MinimumBalance: acc.MinimumBalance.String(),
		Active:         acc.Active,
		Version:        acc.Version,
		CreatedAt:      acc.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:      acc.UpdatedAt.Format(time.RFC3339Nano),
	}
}
