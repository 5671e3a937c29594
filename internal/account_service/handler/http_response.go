package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bank-account-service/internal/account_service/middleware"
	"github.com/bank-account-service/internal/domain/account"
	"github.com/bank-account-service/internal/logger"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo represents metadata in a response
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
}

// NewResponse creates a new response with data
func NewResponse(data interface{}) *Response {
	return &Response{
		Data: data,
	}
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message string) *Response {
	return &Response{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewPaginatedResponse creates a new paginated response
func NewPaginatedResponse(data interface{}, page, perPage, totalItems int) *Response {
	totalPages := totalItems / perPage
	if totalItems%perPage > 0 {
		totalPages++
	}

	return &Response{
		Data: data,
		Meta: &MetaInfo{
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
			TotalItems: totalItems,
		},
	}
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	response := NewResponse(data)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	response := NewErrorResponse(code, message)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithPaginatedData sends a JSON response with paginated data
func RespondWithPaginatedData(c *gin.Context, statusCode int, data interface{}, page, perPage, totalItems int) {
	response := NewPaginatedResponse(data, page, perPage, totalItems)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondNoContent sends a 204 No Content response
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondBadRequest sends a 400 Bad Request response with an error
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondInternalError sends a 500 Internal Server Error response with an error
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

// RespondDomainError maps an account service error to its HTTP status and error code.
// Unrecognised errors are logged and answered with 500.
func RespondDomainError(c *gin.Context, log *slog.Logger, err error) {
	var (
		unauthorized account.UnauthorizedFieldError
		parseErr     account.ParseError
	)

	switch {
	case errors.Is(err, account.ErrAccountNotFound{}):
		RespondWithError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, account.ErrInvalidAccountID):
		RespondWithError(c, http.StatusBadRequest, "INVALID_ACCOUNT_ID", err.Error())
	case errors.Is(err, account.ErrInvalidAmount):
		RespondWithError(c, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, account.ErrInsufficientFunds):
		RespondWithError(c, http.StatusBadRequest, "INSUFFICIENT_FUNDS", err.Error())
	case errors.As(err, &parseErr):
		RespondWithError(c, http.StatusBadRequest, "INVALID_FIELD_VALUE", err.Error())
	case errors.As(err, &unauthorized):
		RespondWithError(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, account.ErrInactiveAccount):
		RespondWithError(c, http.StatusConflict, "ACCOUNT_INACTIVE", err.Error())
	case errors.Is(err, account.ErrConcurrentModification{}):
		RespondWithError(c, http.StatusConflict, "CONCURRENT_MODIFICATION", "The account was modified concurrently, retry the request")
	case errors.Is(err, account.ErrDuplicateAccount{}):
		RespondWithError(c, http.StatusConflict, "DUPLICATE_ACCOUNT", err.Error())
	default:
		logger.FromContext(c.Request.Context(), log).Error("Request failed", "path", c.FullPath(), "error", err)
		RespondInternalError(c)
	}
}
