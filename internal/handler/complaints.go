package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campuslink/internal/complaints"
)

type fileComplaintRequest struct {
	Subject     string `json:"subject" binding:"required"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Priority    string `json:"priority"`
}

// FileComplaint opens a new complaint for the caller.
func (h *Handler) FileComplaint(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	var req fileComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmp, err := h.complaints.File(c.Request.Context(), userID, req.Subject, req.Description, req.Category, req.Priority)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cmp)
}

// MyComplaints lists the caller's complaints, newest first.
func (h *Handler) MyComplaints(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	list, err := h.complaints.Mine(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": list})
}

// ListAllComplaints returns every complaint, for admins and wardens.
func (h *Handler) ListAllComplaints(c *gin.Context) {
	list, err := h.complaints.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": list})
}

type transitionComplaintRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"resolution_notes"`
}

// TransitionComplaint moves a complaint through its status workflow.
func (h *Handler) TransitionComplaint(c *gin.Context) {
	actorID, _, ok := identity(c)
	if !ok {
		return
	}
	var req transitionComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmp, err := h.complaints.Transition(c.Request.Context(), c.Param("id"), req.Status, req.Notes, actorID)
	switch {
	case errors.Is(err, complaints.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "complaint not found"})
	case errors.Is(err, complaints.ErrBadTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "transition not allowed from current status"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, cmp)
	}
}
