package library

import (
	"errors"
	"time"
)

// Book is one catalog entry.
type Book struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	ISBN            string  `json:"isbn,omitempty"`
	Category        string  `json:"category"`
	TotalCopies     int     `json:"total_copies"`
	AvailableCopies int     `json:"available_copies"`
	Rating          float64 `json:"rating"`
}

// Loan ties a borrowed copy to a user. DaysLeft is derived at read time and
// goes negative once the loan is overdue.
type Loan struct {
	ID         string     `json:"id"`
	BookID     string     `json:"book_id"`
	UserID     string     `json:"user_id"`
	Title      string     `json:"title,omitempty"`
	Author     string     `json:"author,omitempty"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueDate    time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	FineAmount int        `json:"fine_amount"`
	FinePaid   bool       `json:"fine_paid"`
	DaysLeft   int        `json:"days_left"`
}

var (
	ErrBookNotFound = errors.New("book not found")
	ErrLoanNotFound = errors.New("loan not found")
	ErrNoCopies     = errors.New("no copies available")
	ErrNotBorrowed  = errors.New("loan already returned")
)
