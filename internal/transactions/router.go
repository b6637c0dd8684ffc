package transactions

import (
	"github.com/gin-gonic/gin"
)

func SetupTransactionRoutes(rg *gin.RouterGroup, controller *Controller, auth ...gin.HandlerFunc) {
	mine := rg.Group("/me/transactions")
	mine.Use(auth...)
	{
		mine.GET("", controller.GetMyTransactions)                  // GET /api/v1/me/transactions?period=&payment_method=&search=
		mine.GET("/stats", controller.GetMyStats)                   // GET /api/v1/me/transactions/stats
		mine.GET("/:bookingId", controller.GetMyTransaction)        // GET /api/v1/me/transactions/:bookingId
		mine.GET("/:bookingId/receipt", controller.DownloadReceipt) // GET /api/v1/me/transactions/:bookingId/receipt
	}
}
