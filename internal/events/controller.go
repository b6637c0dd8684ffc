package events

import (
	"net/http"
	"strconv"

	"showtime/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	GetEvent(c *gin.Context)
	GetAllEvents(c *gin.Context)
	SaveEvent(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// GetEvent godoc
// @Summary     Get an event with its validated layout
// @Tags        events
// @Produce     json
// @Param       id path int true "id"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Failure     404 {object} response.StandardApiResponse "Unknown event"
// @Router      /events/{id} [get]
func (ctrl *controller) GetEvent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID format", nil, err.Error())
		return
	}

	event, err := ctrl.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, "Failed to get event", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event retrieved successfully", event, nil)
}

// GetAllEvents godoc
// @Summary     List the event catalog
// @Tags        events
// @Produce     json
// @Param       category query string false "category"
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /events [get]
func (ctrl *controller) GetAllEvents(c *gin.Context) {
	events, err := ctrl.service.ListEvents(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.RespondError(c, "Failed to get events", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Events retrieved successfully", events, nil)
}

// SaveEvent godoc
// @Summary     Create or replace an event
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} response.StandardApiResponse "OK"
// @Router      /admin/events [post]
func (ctrl *controller) SaveEvent(c *gin.Context) {
	var event Event
	if err := c.ShouldBindJSON(&event); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := ctrl.service.SaveEvent(c.Request.Context(), &event); err != nil {
		response.RespondJSON(c, "error", http.StatusUnprocessableEntity, "Failed to save event", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Event saved successfully", event, nil)
}
