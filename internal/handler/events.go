package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campuslink/internal/events"
)

type createEventRequest struct {
	Title                string    `json:"title" binding:"required"`
	Description          string    `json:"description"`
	EventType            string    `json:"event_type" binding:"required"`
	StartDate            time.Time `json:"start_date" binding:"required"`
	EndDate              time.Time `json:"end_date" binding:"required"`
	Location             string    `json:"location"`
	Capacity             *int      `json:"capacity"`
	RegistrationRequired bool      `json:"registration_required"`
}

// CreateEvent publishes a new campus event organized by the caller.
func (h *Handler) CreateEvent(c *gin.Context) {
	organizerID, _, ok := identity(c)
	if !ok {
		return
	}
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	evt, err := h.events.Create(c.Request.Context(), events.CreateParams{
		Title:                req.Title,
		Description:          req.Description,
		EventType:            req.EventType,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		Location:             req.Location,
		Capacity:             req.Capacity,
		RegistrationRequired: req.RegistrationRequired,
		OrganizerID:          organizerID,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, evt)
}

// ListEvents returns all events ordered by start date.
func (h *Handler) ListEvents(c *gin.Context) {
	list, err := h.events.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": list})
}

// RegisterForEvent signs the caller up for an event.
func (h *Handler) RegisterForEvent(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	reg, err := h.events.Register(c.Request.Context(), c.Param("id"), userID)
	switch {
	case errors.Is(err, events.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
	case errors.Is(err, events.ErrNoRegistration):
		c.JSON(http.StatusBadRequest, gin.H{"error": "event does not take registrations"})
	case errors.Is(err, events.ErrRegistrationClosed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "registration is closed"})
	case errors.Is(err, events.ErrEventFull):
		c.JSON(http.StatusConflict, gin.H{"error": "event is full"})
	case errors.Is(err, events.ErrAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": "already registered"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusCreated, reg)
	}
}

// MyRegistrations lists the caller's event registrations.
func (h *Handler) MyRegistrations(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	regs, err := h.events.MyRegistrations(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": regs})
}
