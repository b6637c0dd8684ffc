package seats

import (
	"github.com/gin-gonic/gin"
)

func SetupSeatRoutes(rg *gin.RouterGroup, controller *Controller, admin ...gin.HandlerFunc) {
	events := rg.Group("/events")
	{
		events.GET("/:id/availability", controller.GetEffectiveAvailability)         // GET /api/v1/events/:id/availability
		events.GET("/:id/availability/baseline", controller.GetBaselineAvailability) // GET /api/v1/events/:id/availability/baseline
	}

	adminEvents := rg.Group("/admin/events")
	adminEvents.Use(admin...)
	{
		adminEvents.DELETE("/:id/overlay", controller.ResetOverlay) // DELETE /api/v1/admin/events/:id/overlay
	}

	adminAvailability := rg.Group("/admin/availability")
	adminAvailability.Use(admin...)
	{
		adminAvailability.GET("/stats", controller.GetOverlayStats) // GET /api/v1/admin/availability/stats
	}
}
