package response

import (
	"errors"
	"net/http"

	"showtime/internal/shared/apperrors"
	"showtime/pkg/logger"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError answers with the status code mapped from err. Seat conflicts carry
// the offending seat ids so the client can adjust its selection. Server-side
// failures are logged with the request's logger.
func RespondError(c *gin.Context, message string, err error) {
	code := apperrors.HTTPStatus(err)
	if code >= http.StatusInternalServerError && c.Request != nil {
		logger.FromGin(c).LogHTTPError(c, err, code)
	}

	var details interface{} = err.Error()
	var conflict *apperrors.SeatConflictError
	if errors.As(err, &conflict) {
		details = gin.H{"error": err.Error(), "seat_ids": conflict.SeatIDs}
	}

	RespondJSON(c, "error", code, message, nil, details)
}
