package venues

import (
	"github.com/gin-gonic/gin"
)

func SetupVenueRoutes(rg *gin.RouterGroup, controller *Controller, auth ...gin.HandlerFunc) {
	layouts := rg.Group("/admin/venues/layouts")
	layouts.Use(auth...)
	{
		layouts.POST("/preview", controller.PreviewLayout) // POST /api/v1/admin/venues/layouts/preview
	}
}
