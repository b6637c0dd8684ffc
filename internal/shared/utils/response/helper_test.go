package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"showtime/internal/shared/apperrors"
	"showtime/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorIncludesConflictingSeats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	err := fmt.Errorf("confirm: %w", &apperrors.SeatConflictError{EventID: 1, SeatIDs: []string{"B2"}})
	RespondError(c, "Booking failed", err)

	assert.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Status     string `json:"status"`
		StatusCode int    `json:"status_code"`
		Errors     struct {
			SeatIDs []string `json:"seat_ids"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, http.StatusConflict, body.StatusCode)
	assert.Equal(t, []string{"B2"}, body.Errors.SeatIDs)
}

func TestRespondErrorNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondError(c, "Ticket lookup failed", apperrors.NotFound("ticket", "BC1"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ticket BC1 not found")
}

func TestRespondErrorLogsServerFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/checkouts/ck1/confirm", nil)
	c.Set(logger.ContextKey, logger.NewWithWriter(&buf).WithRequestID("req-1"))

	RespondError(c, "Booking failed", errors.New("redis: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	out := buf.String()
	assert.Contains(t, out, `"msg":"HTTP Error"`)
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"status":500`)
	assert.Contains(t, out, "connection refused")
}

func TestRespondErrorDoesNotLogClientErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/me/tickets/BC1", nil)
	c.Set(logger.ContextKey, logger.NewWithWriter(&buf))

	RespondError(c, "Ticket lookup failed", apperrors.NotFound("ticket", "BC1"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, buf.String())
}
