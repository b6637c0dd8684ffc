package selection

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

// StartSession godoc
// @Summary     Start a selection session
// @Tags        selection
// @Accept      json
// @Produce     json
// @Param       body body selection.StartSessionRequest true "body"
// @Success     201 {object} response.StandardApiResponse "Created"
// @Failure     404 {object} response.StandardApiResponse "Unknown event"
// @Router      /sessions [post]
func (c *Controller) StartSession(ctx *gin.Context) {
	var req StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	session, err := c.service.Start(ctx.Request.Context(), req.EventID)
	if err != nil {
		response.RespondError(ctx, "Failed to start selection", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Selection started", session, nil)
}

// GetSession godoc
// @Summary     Current selection
// @Tags        selection
// @Produce     json
// @Param       id path string true "id"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Failure     404 {object} response.StandardApiResponse "Unknown or expired session"
// @Router      /sessions/{id} [get]
func (c *Controller) GetSession(ctx *gin.Context) {
	session, err := c.service.Current(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, "Failed to get selection", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Selection retrieved successfully", session, nil)
}

// GetSeatMap godoc
// @Summary     Seat map merged with the selection
// @Tags        selection
// @Produce     json
// @Param       id path string true "id"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /sessions/{id}/seatmap [get]
func (c *Controller) GetSeatMap(ctx *gin.Context) {
	seatMap, err := c.service.SeatMap(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, "Failed to build seat map", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat map retrieved successfully", seatMap, nil)
}

// ToggleSeat godoc
// @Summary     Select or deselect a seat
// @Tags        selection
// @Produce     json
// @Param       id path string true "id"
// @Param       seatId path string true "seatId"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Failure     400 {object} response.StandardApiResponse "Unknown seat"
// @Failure     409 {object} response.StandardApiResponse "Seat not available"
// @Router      /sessions/{id}/seats/{seatId}/toggle [post]
func (c *Controller) ToggleSeat(ctx *gin.Context) {
	session, err := c.service.Toggle(ctx.Request.Context(), ctx.Param("id"), ctx.Param("seatId"))
	if err != nil {
		response.RespondError(ctx, "Failed to toggle seat", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Selection updated", session, nil)
}

// ClearSession godoc
// @Summary     Clear a selection
// @Tags        selection
// @Produce     json
// @Param       id path string true "id"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /sessions/{id} [delete]
func (c *Controller) ClearSession(ctx *gin.Context) {
	if err := c.service.Clear(ctx.Request.Context(), ctx.Param("id")); err != nil {
		response.RespondError(ctx, "Failed to clear selection", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Selection cleared", nil, nil)
}
