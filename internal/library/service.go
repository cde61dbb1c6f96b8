package library

import (
	"context"
	"errors"
	"time"
)

// Store is the persistence surface the service needs.
type Store interface {
	SearchBooks(ctx context.Context, query string) ([]Book, error)
	ClaimCopy(ctx context.Context, bookID string) error
	ReleaseCopy(ctx context.Context, bookID string) error
	InsertLoan(ctx context.Context, loan Loan) (Loan, error)
	LoanByID(ctx context.Context, id string) (Loan, error)
	UserLoans(ctx context.Context, userID string) ([]Loan, error)
	CloseLoan(ctx context.Context, id string, returnedAt time.Time, fine int) error
	MarkFinePaid(ctx context.Context, id string) error
}

// Service runs catalog browsing and the loan lifecycle with a flat per-day
// overdue fine.
type Service struct {
	store      Store
	loanPeriod time.Duration
	finePerDay int
	now        func() time.Time
}

// NewService creates a service.
func NewService(store Store, loanPeriodDays, finePerDay int) *Service {
	if loanPeriodDays <= 0 {
		loanPeriodDays = 14
	}
	return &Service{
		store:      store,
		loanPeriod: time.Duration(loanPeriodDays) * 24 * time.Hour,
		finePerDay: finePerDay,
		now:        time.Now,
	}
}

// Search browses the catalog.
func (s *Service) Search(ctx context.Context, query string) ([]Book, error) {
	return s.store.SearchBooks(ctx, query)
}

// Borrow claims a copy and opens a loan due one loan period from now.
func (s *Service) Borrow(ctx context.Context, bookID, userID string) (Loan, error) {
	if bookID == "" || userID == "" {
		return Loan{}, errors.New("book and user required")
	}
	if err := s.store.ClaimCopy(ctx, bookID); err != nil {
		return Loan{}, err
	}
	now := s.now().UTC()
	loan, err := s.store.InsertLoan(ctx, Loan{
		BookID:     bookID,
		UserID:     userID,
		BorrowedAt: now,
		DueDate:    now.Add(s.loanPeriod),
	})
	if err != nil {
		// The claimed copy must not leak when the loan row fails.
		_ = s.store.ReleaseCopy(ctx, bookID)
		return Loan{}, err
	}
	loan.DaysLeft = s.daysLeft(loan.DueDate)
	return loan, nil
}

// Return closes a loan, restores the copy and freezes the final fine.
func (s *Service) Return(ctx context.Context, loanID, userID string) (Loan, error) {
	loan, err := s.store.LoanByID(ctx, loanID)
	if err != nil {
		return Loan{}, err
	}
	if loan.UserID != userID {
		return Loan{}, ErrLoanNotFound
	}
	if loan.ReturnedAt != nil {
		return Loan{}, ErrNotBorrowed
	}
	now := s.now().UTC()
	fine := s.fineFor(loan.DueDate, now)
	if err := s.store.CloseLoan(ctx, loanID, now, fine); err != nil {
		return Loan{}, err
	}
	if err := s.store.ReleaseCopy(ctx, loan.BookID); err != nil {
		return Loan{}, err
	}
	loan.ReturnedAt = &now
	loan.FineAmount = fine
	return loan, nil
}

// MyLoans lists the user's loans with days-left and accrued fines filled in.
func (s *Service) MyLoans(ctx context.Context, userID string) ([]Loan, error) {
	loans, err := s.store.UserLoans(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range loans {
		if loans[i].ReturnedAt == nil {
			loans[i].DaysLeft = s.daysLeft(loans[i].DueDate)
			loans[i].FineAmount = s.fineFor(loans[i].DueDate, now)
		}
	}
	return loans, nil
}

// PayFine settles the fine on the caller's own loan.
func (s *Service) PayFine(ctx context.Context, loanID, userID string) error {
	loan, err := s.store.LoanByID(ctx, loanID)
	if err != nil {
		return err
	}
	if loan.UserID != userID {
		return ErrLoanNotFound
	}
	return s.store.MarkFinePaid(ctx, loanID)
}

func (s *Service) daysLeft(due time.Time) int {
	return int(due.Sub(s.now()).Hours() / 24)
}

// fineFor charges the flat rate per started overdue day.
func (s *Service) fineFor(due, now time.Time) int {
	if !now.After(due) {
		return 0
	}
	days := int(now.Sub(due).Hours()/24) + 1
	return days * s.finePerDay
}
