package tickets

import (
	"github.com/gin-gonic/gin"
)

func SetupTicketRoutes(rg *gin.RouterGroup, controller *Controller, auth, admin []gin.HandlerFunc) {
	mine := rg.Group("/me/tickets")
	mine.Use(auth...)
	{
		mine.GET("", controller.GetMyTickets)           // GET /api/v1/me/tickets?status=&category=
		mine.GET("/:bookingId", controller.GetMyTicket) // GET /api/v1/me/tickets/:bookingId
		mine.POST("/:id/use", controller.UseTicket)     // POST /api/v1/me/tickets/:id/use
	}

	adminTickets := rg.Group("/admin")
	adminTickets.Use(admin...)
	{
		adminTickets.DELETE("/tickets/:id", controller.PurgeTicket)         // DELETE /api/v1/admin/tickets/:id
		adminTickets.POST("/tickets/verify", controller.VerifyTicket)       // POST /api/v1/admin/tickets/verify
		adminTickets.GET("/events/:id/tickets", controller.GetEventTickets) // GET /api/v1/admin/events/:id/tickets
	}
}
