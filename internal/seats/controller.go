package seats

import (
	"net/http"
	"strconv"

	"showtime/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

//  AVAILABILITY

// GetEffectiveAvailability godoc
// @Summary     Effective seat availability
// @Tags        availability
// @Produce     json
// @Param       id path int true "id"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Failure     404 {object} response.StandardApiResponse "Unknown event"
// @Router      /events/{id}/availability [get]
func (c *Controller) GetEffectiveAvailability(ctx *gin.Context) {
	eventID, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	record, err := c.service.GetEffective(ctx.Request.Context(), eventID)
	if err != nil {
		response.RespondError(ctx, "Failed to get seat availability", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat availability retrieved successfully", NewAvailabilityResponse(record), nil)
}

// GetBaselineAvailability godoc
// @Summary     Shipped baseline availability
// @Tags        availability
// @Produce     json
// @Param       id path int true "id"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /events/{id}/availability/baseline [get]
func (c *Controller) GetBaselineAvailability(ctx *gin.Context) {
	eventID, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	record, err := c.service.GetBaseline(ctx.Request.Context(), eventID)
	if err != nil {
		response.RespondError(ctx, "Failed to get baseline availability", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Baseline availability retrieved successfully", NewAvailabilityResponse(record), nil)
}

//  ADMIN

// ResetOverlay godoc
// @Summary     Reset an event's availability overlay
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "id"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /admin/events/{id}/overlay [delete]
func (c *Controller) ResetOverlay(ctx *gin.Context) {
	eventID, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	if err := c.service.ResetOverlay(ctx.Request.Context(), eventID); err != nil {
		response.RespondError(ctx, "Failed to reset seat overlay", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat overlay reset successfully", nil, nil)
}

// GetOverlayStats godoc
// @Summary     Overlay statistics
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /admin/availability/stats [get]
func (c *Controller) GetOverlayStats(ctx *gin.Context) {
	stats, err := c.service.Stats(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, "Failed to get overlay statistics", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Overlay statistics retrieved successfully", stats, nil)
}

func eventIDParam(ctx *gin.Context) (int, bool) {
	eventID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || eventID <= 0 {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid event ID format", nil, "event id must be a positive integer")
		return 0, false
	}
	return eventID, true
}
