package venues

import (
	"net/http"

	"showtime/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// PreviewLayout godoc
// @Summary     Expand a layout into seat ids
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /admin/venues/layouts/preview [post]
func (c *Controller) PreviewLayout(ctx *gin.Context) {
	var req LayoutPreviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	preview, err := c.service.Preview(req.Layout)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, "Invalid layout", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Layout resolved successfully", preview, nil)
}
