package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campuslink/internal/attendance"
)

type issueCodeRequest struct {
	Subject         string `json:"class_subject" binding:"required"`
	ClassType       string `json:"class_type" binding:"required"`
	TimeSlot        string `json:"time_slot" binding:"required"`
	Location        string `json:"location"`
	DurationMinutes int    `json:"duration_minutes"`
}

// IssueCode generates a new attendance code for the calling teacher.
func (h *Handler) IssueCode(c *gin.Context) {
	teacherID, _, ok := identity(c)
	if !ok {
		return
	}
	var req issueCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	classType, ok := attendance.ParseClassType(req.ClassType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown class type"})
		return
	}
	duration := time.Duration(req.DurationMinutes) * time.Minute
	if req.DurationMinutes == 0 {
		duration = h.cfg.CodeDuration
	}

	code, err := h.attendance.Issue(c.Request.Context(), attendance.IssueParams{
		Subject:   req.Subject,
		ClassType: classType,
		TimeSlot:  req.TimeSlot,
		Location:  req.Location,
		Duration:  duration,
		TeacherID: teacherID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, code)
}

// DeactivateCode turns a code off; only its issuer may.
func (h *Handler) DeactivateCode(c *gin.Context) {
	teacherID, _, ok := identity(c)
	if !ok {
		return
	}
	err := h.attendance.Deactivate(c.Request.Context(), c.Param("id"), teacherID)
	switch {
	case errors.Is(err, attendance.ErrCodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "code not found"})
	case errors.Is(err, attendance.ErrNotIssuer):
		c.JSON(http.StatusForbidden, gin.H{"error": "code belongs to another teacher"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
	}
}

// ListTodayCodes returns every code issued today, for staff dashboards.
func (h *Handler) ListTodayCodes(c *gin.Context) {
	codes, err := h.attendance.TodayCodes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"codes": codes})
}

// ListActiveCodes returns today's still-redeemable codes.
func (h *Handler) ListActiveCodes(c *gin.Context) {
	codes, err := h.attendance.ActiveCodesNow(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"codes": codes})
}

// CodeQR renders a code's token as a QR PNG for display screens.
func (h *Handler) CodeQR(c *gin.Context) {
	teacherID, role, ok := identity(c)
	if !ok {
		return
	}
	if !role.CanIssueCodes() {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}
	code, err := h.attendance.CodeForTeacher(c.Request.Context(), c.Param("id"), teacherID)
	if errors.Is(err, attendance.ErrCodeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "code not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	size := 256
	if v := c.Query("size"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			size = parsed
		}
	}
	png, err := attendance.RenderPNG(code.Code, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

type redeemRequest struct {
	Code string `json:"code" binding:"required"`
}

// Redeem runs the self-service redemption workflow for the calling student.
func (h *Handler) Redeem(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide the code shown on screen"})
		return
	}

	rec, err := h.attendance.Redeem(c.Request.Context(), userID, req.Code)
	switch {
	case errors.Is(err, attendance.ErrCodeNotFound),
		errors.Is(err, attendance.ErrCodeInactive),
		errors.Is(err, attendance.ErrCodeExpired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "code is invalid, expired, or not found"})
	case errors.Is(err, attendance.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "attendance already marked for this class"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark attendance, please try again"})
	default:
		c.JSON(http.StatusCreated, rec)
	}
}

type manualMarkRequest struct {
	CodeID    string `json:"code_id" binding:"required"`
	StudentID string `json:"student_id" binding:"required"`
	Status    string `json:"status" binding:"required"`
}

// MarkManual records attendance on a student's behalf.
func (h *Handler) MarkManual(c *gin.Context) {
	staffID, _, ok := identity(c)
	if !ok {
		return
	}
	var req manualMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, ok := attendance.ParseStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	rec, err := h.attendance.MarkManual(c.Request.Context(), req.CodeID, req.StudentID, status, staffID)
	switch {
	case errors.Is(err, attendance.ErrCodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "code not found"})
	case errors.Is(err, attendance.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "attendance already marked for this class"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusCreated, rec)
	}
}

// ListTodayAttendance returns today's full ledger, for staff.
func (h *Handler) ListTodayAttendance(c *gin.Context) {
	records, err := h.attendance.TodayRecords(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// MyAttendance returns the caller's entries for today.
func (h *Handler) MyAttendance(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	records, err := h.attendance.UserToday(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
