package events

import (
	"github.com/gin-gonic/gin"
)

func SetupEventRoutes(router *gin.RouterGroup, controller Controller, admin ...gin.HandlerFunc) {
	// Public routes - anyone can browse the catalog
	publicEvents := router.Group("/events")
	{
		publicEvents.GET("", controller.GetAllEvents) // GET /api/v1/events?category=
		publicEvents.GET("/:id", controller.GetEvent) // GET /api/v1/events/:id
	}

	adminEvents := router.Group("/admin/events")
	adminEvents.Use(admin...)
	{
		adminEvents.POST("", controller.SaveEvent) // POST /api/v1/admin/events
	}
}
