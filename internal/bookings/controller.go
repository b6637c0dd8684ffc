package bookings

import (
	"net/http"

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

// StartCheckout godoc
// @Summary     Start a checkout from a session
// @Tags        checkouts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body bookings.StartCheckoutRequest true "body"
// @Success     201 {object} response.StandardApiResponse "Created"
// @Router      /checkouts [post]
func (c *Controller) StartCheckout(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req StartCheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	checkout, err := c.service.StartCheckout(ctx.Request.Context(), userID, req.SessionID)
	if err != nil {
		response.RespondError(ctx, "Failed to start checkout", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Checkout started", checkout, nil)
}

// GetCheckout godoc
// @Summary     Checkout state
// @Tags        checkouts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "id"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /checkouts/{id} [get]
func (c *Controller) GetCheckout(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	checkout, err := c.service.Get(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, "Failed to get checkout", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Checkout retrieved successfully", checkout, nil)
}

// Review godoc
// @Summary     Snapshot and price the selection
// @Tags        checkouts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "id"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Failure     400 {object} response.StandardApiResponse "Empty selection"
// @Failure     422 {object} response.StandardApiResponse "Invalid transition"
// @Router      /checkouts/{id}/review [post]
func (c *Controller) Review(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	checkout, err := c.service.Review(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, "Failed to review checkout", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Checkout ready for payment", checkout, nil)
}

// ChoosePayment godoc
// @Summary     Choose the payment method
// @Tags        checkouts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "id"
// @Param       body body bookings.ChoosePaymentRequest true "body"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Failure     400 {object} response.StandardApiResponse "Unsupported method"
// @Failure     422 {object} response.StandardApiResponse "Invalid transition"
// @Router      /checkouts/{id}/payment [post]
func (c *Controller) ChoosePayment(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req ChoosePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	checkout, err := c.service.ChoosePayment(ctx.Request.Context(), userID, ctx.Param("id"), req.PaymentMethod)
	if err != nil {
		response.RespondError(ctx, "Failed to choose payment method", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment method selected", checkout, nil)
}

// Confirm godoc
// @Summary     Pay and commit the booking
// @Tags        checkouts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "id"
// @Success     201 {object} response.StandardApiResponse "Committed"
// @Failure     402 {object} response.StandardApiResponse "Payment declined"
// @Failure     409 {object} response.StandardApiResponse "Seats already booked"
// @Failure     422 {object} response.StandardApiResponse "Invalid transition"
// @Router      /checkouts/{id}/confirm [post]
func (c *Controller) Confirm(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	checkout, err := c.service.Confirm(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		if checkout == nil {
			response.RespondError(ctx, "Failed to confirm booking", err)
			return
		}
		// The attempt ran; hand back its state alongside the reason
		failure := CheckoutFailure{
			Error:            err.Error(),
			State:            checkout.State,
			FailureReason:    checkout.FailureReason,
			ConflictingSeats: checkout.ConflictingSeats,
		}
		response.RespondJSON(ctx, "error", apperrors.HTTPStatus(err), "Booking was not completed", checkout, failure)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking confirmed", checkout, nil)
}

// Retry godoc
// @Summary     Start a new checkout from a failed one
// @Tags        checkouts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "id"
// @Success     201 {object} response.StandardApiResponse "Created"
// @Failure     422 {object} response.StandardApiResponse "Checkout has not failed"
// @Router      /checkouts/{id}/retry [post]
func (c *Controller) Retry(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	checkout, err := c.service.Retry(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, "Failed to retry checkout", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Checkout restarted", checkout, nil)
}

// CancelTicket godoc
// @Summary     Cancel a ticket and release its seats
// @Tags        tickets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "id"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /me/tickets/{id}/cancel [post]
func (c *Controller) CancelTicket(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	ticket, err := c.service.Cancel(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, "Failed to cancel ticket", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket cancelled successfully", ticket, nil)
}

func requireUser(ctx *gin.Context) (string, bool) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return "", false
	}
	return userID, true
}
