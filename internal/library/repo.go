package library

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists the catalog and loans in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SearchBooks returns catalog entries matching the query against title,
// author or category. An empty query lists everything.
func (r *Repository) SearchBooks(ctx context.Context, query string) ([]Book, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, author, COALESCE(isbn, ''), category, total_copies, available_copies, rating
		FROM books
		WHERE $1 = '' OR title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%'
		ORDER BY title
	`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Category,
			&b.TotalCopies, &b.AvailableCopies, &b.Rating); err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

// ClaimCopy decrements a book's available copies if any remain.
func (r *Repository) ClaimCopy(ctx context.Context, bookID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE books SET available_copies = available_copies - 1
		WHERE id = $1 AND available_copies > 0
	`, bookID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, bookID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrBookNotFound
		}
		return ErrNoCopies
	}
	return nil
}

// ReleaseCopy returns a claimed copy to the shelf.
func (r *Repository) ReleaseCopy(ctx context.Context, bookID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE books SET available_copies = LEAST(available_copies + 1, total_copies)
		WHERE id = $1
	`, bookID)
	return err
}

// InsertLoan writes a new loan row.
func (r *Repository) InsertLoan(ctx context.Context, loan Loan) (Loan, error) {
	if loan.ID == "" {
		loan.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO book_loans (id, book_id, user_id, borrowed_at, due_date)
		VALUES ($1,$2,$3,$4,$5)
	`, loan.ID, loan.BookID, loan.UserID, loan.BorrowedAt, loan.DueDate)
	if err != nil {
		return Loan{}, err
	}
	return loan, nil
}

// LoanByID fetches one loan.
func (r *Repository) LoanByID(ctx context.Context, id string) (Loan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT l.id, l.book_id, l.user_id, b.title, b.author, l.borrowed_at, l.due_date,
		       l.returned_at, l.fine_amount, l.fine_paid
		FROM book_loans l JOIN books b ON b.id = l.book_id
		WHERE l.id = $1
	`, id)
	var loan Loan
	err := row.Scan(&loan.ID, &loan.BookID, &loan.UserID, &loan.Title, &loan.Author,
		&loan.BorrowedAt, &loan.DueDate, &loan.ReturnedAt, &loan.FineAmount, &loan.FinePaid)
	if errors.Is(err, sql.ErrNoRows) {
		return Loan{}, ErrLoanNotFound
	}
	if err != nil {
		return Loan{}, err
	}
	return loan, nil
}

// UserLoans returns a user's loans with book details, active first.
func (r *Repository) UserLoans(ctx context.Context, userID string) ([]Loan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.book_id, l.user_id, b.title, b.author, l.borrowed_at, l.due_date,
		       l.returned_at, l.fine_amount, l.fine_paid
		FROM book_loans l JOIN books b ON b.id = l.book_id
		WHERE l.user_id = $1
		ORDER BY l.returned_at NULLS FIRST, l.due_date
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Loan
	for rows.Next() {
		var loan Loan
		if err := rows.Scan(&loan.ID, &loan.BookID, &loan.UserID, &loan.Title, &loan.Author,
			&loan.BorrowedAt, &loan.DueDate, &loan.ReturnedAt, &loan.FineAmount, &loan.FinePaid); err != nil {
			return nil, err
		}
		res = append(res, loan)
	}
	return res, rows.Err()
}

// CloseLoan stamps the return and the final fine.
func (r *Repository) CloseLoan(ctx context.Context, id string, returnedAt time.Time, fine int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE book_loans SET returned_at = $2, fine_amount = $3 WHERE id = $1
	`, id, returnedAt, fine)
	return err
}

// MarkFinePaid settles an accrued fine.
func (r *Repository) MarkFinePaid(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE book_loans SET fine_paid = TRUE WHERE id = $1
	`, id)
	return err
}
