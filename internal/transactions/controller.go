package transactions

import (
	"fmt"
	"net/http"

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

// GetMyTransactions godoc
// @Summary     My transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       period query string false "period"
// @Param       payment_method query string false "payment_method"
// @Param       search query string false "search"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /me/transactions [get]
func (c *Controller) GetMyTransactions(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var filters Filters
	if err := ctx.ShouldBindQuery(&filters); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	txs, err := c.service.ListForUser(ctx.Request.Context(), userID, filters)
	if err != nil {
		response.RespondError(ctx, "Failed to get transactions", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Transactions retrieved successfully", txs, nil)
}

// GetMyStats godoc
// @Summary     Spending statistics
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /me/transactions/stats [get]
func (c *Controller) GetMyStats(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	stats, err := c.service.StatsForUser(ctx.Request.Context(), userID)
	if err != nil {
		response.RespondError(ctx, "Failed to get transaction statistics", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Transaction statistics retrieved successfully", stats, nil)
}

// GetMyTransaction godoc
// @Summary     One transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       bookingId path string true "bookingId"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /me/transactions/{bookingId} [get]
func (c *Controller) GetMyTransaction(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	tx, err := c.service.Get(ctx.Request.Context(), userID, ctx.Param("bookingId"))
	if err != nil {
		response.RespondError(ctx, "Failed to get transaction", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Transaction retrieved successfully", tx, nil)
}

// DownloadReceipt answers with the plain-text receipt as an attachment.
// @Summary     Plain text receipt
// @Tags        transactions
// @Produce     plain
// @Security    BearerAuth
// @Param       bookingId path string true "bookingId"
// @Success     200 {string} string "OK"
// @Router      /me/transactions/{bookingId}/receipt [get]
func (c *Controller) DownloadReceipt(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	bookingID := ctx.Param("bookingId")
	receipt, err := c.service.Receipt(ctx.Request.Context(), userID, bookingID)
	if err != nil {
		response.RespondError(ctx, "Failed to generate receipt", err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt-%s.txt"`, bookingID))
	ctx.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(receipt))
}

func currentUser(ctx *gin.Context) (string, bool) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return "", false
	}
	return userID, true
}
