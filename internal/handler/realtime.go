package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"campuslink/internal/realtime"
)

// Stream serves one table's change feed over server-sent events. The
// subscription lives exactly as long as the request: it is released when the
// client disconnects.
func (h *Handler) Stream(c *gin.Context) {
	table := c.Param("table")
	switch table {
	case realtime.TableAttendance, realtime.TableEvents, realtime.TableComplaints:
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown stream"})
		return
	}

	ch, release := h.broker.Subscribe(c.Request.Context(), table)
	defer release()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case evt, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("change", evt)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
