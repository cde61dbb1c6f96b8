package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campuslink/internal/hostel"
)

// ListHostels returns all hostels.
func (h *Handler) ListHostels(c *gin.Context) {
	list, err := h.hostels.ListHostels(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hostels": list})
}

// ListRooms returns one hostel's rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.hostels.RoomsByHostel(c.Request.Context(), c.Param("id"))
	if errors.Is(err, hostel.ErrHostelNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "hostel not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}
