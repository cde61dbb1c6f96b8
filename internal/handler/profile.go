package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campuslink/internal/profile"
)

// MyProfile returns the caller's profile.
func (h *Handler) MyProfile(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	prof, err := h.profiles.Get(c.Request.Context(), userID)
	if errors.Is(err, profile.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prof)
}

type updateProfileRequest struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	Year       *int   `json:"year"`
	HostelID   string `json:"hostel_id"`
	RoomNumber string `json:"room_number"`
	StudentID  string `json:"student_id"`
}

// UpdateProfile patches the caller's own profile fields.
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prof, err := h.profiles.Update(c.Request.Context(), userID, profile.UpdateParams{
		FullName:   req.FullName,
		Phone:      req.Phone,
		Department: req.Department,
		Year:       req.Year,
		HostelID:   req.HostelID,
		RoomNumber: req.RoomNumber,
		StudentID:  req.StudentID,
	})
	if errors.Is(err, profile.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prof)
}

// ListStudents returns every student profile, for staff.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.profiles.Students(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

type studentUpdateRequest struct {
	StudentID   string `json:"student_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	UpdateType  string `json:"update_type"`
	Priority    string `json:"priority"`
}

// FileStudentUpdate records a staff note about a student.
func (h *Handler) FileStudentUpdate(c *gin.Context) {
	staffID, _, ok := identity(c)
	if !ok {
		return
	}
	var req studentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	upd, err := h.profiles.FileStudentUpdate(c.Request.Context(), profile.StudentUpdate{
		StudentID:   req.StudentID,
		StaffID:     staffID,
		Title:       req.Title,
		Description: req.Description,
		UpdateType:  req.UpdateType,
		Priority:    req.Priority,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, upd)
}

// ListStudentUpdates returns recent staff notes across students.
func (h *Handler) ListStudentUpdates(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	updates, err := h.profiles.StudentUpdates(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updates": updates})
}

// MyNotifications lists the caller's notification feed.
func (h *Handler) MyNotifications(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	feed, err := h.profiles.Notifications(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": feed})
}

// MarkNotificationRead marks one of the caller's notifications as read.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	err := h.profiles.MarkRead(c.Request.Context(), c.Param("id"), userID)
	if errors.Is(err, profile.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}
