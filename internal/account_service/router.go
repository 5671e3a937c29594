package account_service

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bank-account-service/internal/account_service/handler"
	"github.com/bank-account-service/internal/account_service/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	v1 := r.Group("/api/v1")
	{
		accounts := v1.Group("/bank-accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.POST("/deposit", accountHandler.Deposit)
			accounts.POST("/withdraw", accountHandler.Withdraw)
			accounts.GET("/:accountId", accountHandler.Get)
			accounts.PATCH("/:accountId", accountHandler.UpdateFields)
			accounts.DELETE("/:accountId", accountHandler.Delete)
			accounts.PUT("/:accountId/activate", accountHandler.Activate)
			accounts.PUT("/:accountId/deactivate", accountHandler.Deactivate)
			accounts.GET("/:accountId/transactions", transactionHandler.ListByAccount)
		}

		// Access by the store-assigned ID, for other services
		internal := v1.Group("/internal/bank-accounts")
		{
			internal.GET("/:id", accountHandler.GetByID)
			internal.DELETE("/:id", accountHandler.DeleteByID)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
