package selection

import (
	"github.com/gin-gonic/gin"
)

func SetupSelectionRoutes(rg *gin.RouterGroup, controller *Controller) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", controller.StartSession)                        // POST /api/v1/sessions
		sessions.GET("/:id", controller.GetSession)                       // GET /api/v1/sessions/:id
		sessions.GET("/:id/seatmap", controller.GetSeatMap)               // GET /api/v1/sessions/:id/seatmap
		sessions.POST("/:id/seats/:seatId/toggle", controller.ToggleSeat) // POST /api/v1/sessions/:id/seats/:seatId/toggle
		sessions.DELETE("/:id", controller.ClearSession)                  // DELETE /api/v1/sessions/:id
	}
}
