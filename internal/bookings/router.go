package bookings

import (
	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, auth ...gin.HandlerFunc) {
	checkouts := rg.Group("/checkouts")
	checkouts.Use(auth...)
	{
		checkouts.POST("", controller.StartCheckout)             // POST /api/v1/checkouts
		checkouts.GET("/:id", controller.GetCheckout)            // GET /api/v1/checkouts/:id
		checkouts.POST("/:id/review", controller.Review)         // POST /api/v1/checkouts/:id/review
		checkouts.POST("/:id/payment", controller.ChoosePayment) // POST /api/v1/checkouts/:id/payment
		checkouts.POST("/:id/confirm", controller.Confirm)       // POST /api/v1/checkouts/:id/confirm
		checkouts.POST("/:id/retry", controller.Retry)           // POST /api/v1/checkouts/:id/retry
	}

	mine := rg.Group("/me/tickets")
	mine.Use(auth...)
	{
		mine.POST("/:id/cancel", controller.CancelTicket) // POST /api/v1/me/tickets/:id/cancel
	}
}
