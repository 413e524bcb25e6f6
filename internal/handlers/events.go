package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"schedcal/internal/models"
)

func (h HandlerSet) ListEvents(c *gin.Context) {
	events, err := h.events.ListAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to fetch events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Events retrieved successfully",
		"events":  events,
		"count":   len(events),
	})
}

func (h HandlerSet) ListEventsByRange(c *gin.Context) {
	start, okStart := parseRangeBound(c.Param("start"))
	end, okEnd := parseRangeBound(c.Param("end"))
	if !okStart || !okEnd {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date range"})
		return
	}

	events, err := h.events.ListByRange(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err, "Failed to fetch events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Events retrieved successfully",
		"events":  events,
		"count":   len(events),
		"dateRange": gin.H{
			"start": c.Param("start"),
			"end":   c.Param("end"),
		},
	})
}

func (h HandlerSet) GetEvent(c *gin.Context) {
	id, ok := pathID(c, "Invalid event ID")
	if !ok {
		return
	}

	event, err := h.events.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to fetch event")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event retrieved successfully",
		"event":   event,
	})
}

type createEventRequest struct {
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description"`
	Resource    string    `json:"resource"`
	UserID      *int      `json:"user_id"`
}

func (h HandlerSet) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, start_time, and end_time are required"})
		return
	}

	event, err := h.events.Create(c.Request.Context(), models.Event{
		Title:       req.Title,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
		Resource:    req.Resource,
		UserID:      req.UserID,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create event")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Event created successfully",
		"event":   event,
	})
}

type updateEventRequest struct {
	Title       *string    `json:"title"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Description *string    `json:"description"`
	Resource    *string    `json:"resource"`
	UserID      *int       `json:"user_id"`
}

func (h HandlerSet) UpdateEvent(c *gin.Context) {
	id, ok := pathID(c, "Invalid event ID")
	if !ok {
		return
	}

	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
		return
	}

	event, err := h.events.Update(c.Request.Context(), id, models.EventPatch{
		Title:       req.Title,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
		Resource:    req.Resource,
		UserID:      req.UserID,
	})
	if err != nil {
		h.respondError(c, err, "Failed to update event")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event updated successfully",
		"event":   event,
	})
}

func (h HandlerSet) DeleteEvent(c *gin.Context) {
	id, ok := pathID(c, "Invalid event ID")
	if !ok {
		return
	}

	event, err := h.events.Delete(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to delete event")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event deleted successfully",
		"event":   event,
	})
}

// parseRangeBound accepts the RFC 3339 timestamps the client sends and bare
// dates typed by hand.
func parseRangeBound(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
