package tickets

import (
	"net/http"
	"strconv"

	"showtime/internal/shared/apperrors"
	"showtime/internal/shared/middleware"
	"showtime/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

//  USER

// GetMyTickets godoc
// @Summary     My tickets, newest first
// @Tags        tickets
// @Produce     json
// @Security    BearerAuth
// @Param       status query string false "status"
// @Param       category query string false "category"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /me/tickets [get]
func (c *Controller) GetMyTickets(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var (
		tickets []Ticket
		err     error
	)
	switch {
	case ctx.Query("status") != "":
		tickets, err = c.service.FindByStatus(ctx.Request.Context(), userID, Status(ctx.Query("status")))
	case ctx.Query("category") != "":
		tickets, err = c.service.FindByCategory(ctx.Request.Context(), userID, ctx.Query("category"))
	default:
		tickets, err = c.service.FindByUser(ctx.Request.Context(), userID)
	}
	if err != nil {
		response.RespondError(ctx, "Failed to get tickets", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Tickets retrieved successfully", tickets, nil)
}

// GetMyTicket godoc
// @Summary     One of my tickets by booking id
// @Tags        tickets
// @Produce     json
// @Security    BearerAuth
// @Param       bookingId path string true "bookingId"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /me/tickets/{bookingId} [get]
func (c *Controller) GetMyTicket(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	bookingID := ctx.Param("bookingId")
	ticket, err := c.service.FindByBookingID(ctx.Request.Context(), bookingID)
	if err == nil && ticket.UserID != userID {
		err = apperrors.NotFound("booking", bookingID)
	}
	if err != nil {
		response.RespondError(ctx, "Failed to get ticket", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket retrieved successfully", ticket, nil)
}

// UseTicket godoc
// @Summary     Mark a ticket used
// @Tags        tickets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "id"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /me/tickets/{id}/use [post]
func (c *Controller) UseTicket(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	ticketID := ctx.Param("id")
	ticket, err := c.service.Get(ctx.Request.Context(), ticketID)
	if err == nil && ticket.UserID != userID {
		err = apperrors.NotFound("ticket", ticketID)
	}
	if err == nil {
		ticket, err = c.service.SetStatus(ctx.Request.Context(), ticketID, StatusUsed)
	}
	if err != nil {
		response.RespondError(ctx, "Failed to use ticket", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket marked as used", ticket, nil)
}

//  ADMIN

// PurgeTicket godoc
// @Summary     Delete a ticket
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "id"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /admin/tickets/{id} [delete]
func (c *Controller) PurgeTicket(ctx *gin.Context) {
	if err := c.service.Purge(ctx.Request.Context(), ctx.Param("id")); err != nil {
		response.RespondError(ctx, "Failed to delete ticket", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket deleted successfully", nil, nil)
}

// VerifyTicket godoc
// @Summary     Verify a ticket QR payload
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body tickets.VerifyTicketRequest true "body"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /admin/tickets/verify [post]
func (c *Controller) VerifyTicket(ctx *gin.Context) {
	var req VerifyTicketRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	ticket, err := c.service.Verify(ctx.Request.Context(), req.QRCode)
	if err != nil {
		response.RespondError(ctx, "Failed to verify ticket", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket verified", ticket, nil)
}

// GetEventTickets godoc
// @Summary     Tickets issued for an event
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "id"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /admin/events/{id}/tickets [get]
func (c *Controller) GetEventTickets(ctx *gin.Context) {
	eventID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || eventID <= 0 {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid event ID format", nil, "event id must be a positive integer")
		return
	}

	tickets, err := c.service.FindByEvent(ctx.Request.Context(), eventID)
	if err != nil {
		response.RespondError(ctx, "Failed to get event tickets", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Event tickets retrieved successfully", tickets, nil)
}

func requireUser(ctx *gin.Context) (string, bool) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return "", false
	}
	return userID, true
}
