package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campuslink/internal/library"
)

// SearchBooks searches the catalog; an empty q lists everything.
func (h *Handler) SearchBooks(c *gin.Context) {
	books, err := h.library.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

type borrowRequest struct {
	BookID string `json:"book_id" binding:"required"`
}

// BorrowBook checks a copy out to the caller.
func (h *Handler) BorrowBook(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	var req borrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	loan, err := h.library.Borrow(c.Request.Context(), req.BookID, userID)
	switch {
	case errors.Is(err, library.ErrBookNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
	case errors.Is(err, library.ErrNoCopies):
		c.JSON(http.StatusConflict, gin.H{"error": "no copies available"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusCreated, loan)
	}
}

// ReturnBook closes one of the caller's loans, computing any fine.
func (h *Handler) ReturnBook(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	loan, err := h.library.Return(c.Request.Context(), c.Param("id"), userID)
	switch {
	case errors.Is(err, library.ErrLoanNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "loan not found"})
	case errors.Is(err, library.ErrNotBorrowed):
		c.JSON(http.StatusConflict, gin.H{"error": "loan already returned"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, loan)
	}
}

// MyLoans lists the caller's loans, active first.
func (h *Handler) MyLoans(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	loans, err := h.library.MyLoans(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans})
}

// PayFine settles the fine on one of the caller's loans.
func (h *Handler) PayFine(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	err := h.library.PayFine(c.Request.Context(), c.Param("id"), userID)
	switch {
	case errors.Is(err, library.ErrLoanNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "loan not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "paid"})
	}
}
