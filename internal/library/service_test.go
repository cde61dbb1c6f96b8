package library

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	books  map[string]Book
	loans  map[string]Loan
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{books: make(map[string]Book), loans: make(map[string]Loan)}
}

func (f *fakeStore) addBook(id string, copies int) {
	f.books[id] = Book{ID: id, Title: "Clean Code", Author: "Robert C. Martin",
		Category: "engineering", TotalCopies: copies, AvailableCopies: copies}
}

func (f *fakeStore) SearchBooks(_ context.Context, _ string) ([]Book, error) {
	var res []Book
	for _, b := range f.books {
		res = append(res, b)
	}
	return res, nil
}

func (f *fakeStore) ClaimCopy(_ context.Context, bookID string) error {
	b, ok := f.books[bookID]
	if !ok {
		return ErrBookNotFound
	}
	if b.AvailableCopies == 0 {
		return ErrNoCopies
	}
	b.AvailableCopies--
	f.books[bookID] = b
	return nil
}

func (f *fakeStore) ReleaseCopy(_ context.Context, bookID string) error {
	b, ok := f.books[bookID]
	if !ok {
		return ErrBookNotFound
	}
	if b.AvailableCopies < b.TotalCopies {
		b.AvailableCopies++
	}
	f.books[bookID] = b
	return nil
}

func (f *fakeStore) InsertLoan(_ context.Context, loan Loan) (Loan, error) {
	f.nextID++
	loan.ID = "loan-" + strconv.Itoa(f.nextID)
	f.loans[loan.ID] = loan
	return loan, nil
}

func (f *fakeStore) LoanByID(_ context.Context, id string) (Loan, error) {
	if l, ok := f.loans[id]; ok {
		return l, nil
	}
	return Loan{}, ErrLoanNotFound
}

func (f *fakeStore) UserLoans(_ context.Context, userID string) ([]Loan, error) {
	var res []Loan
	for _, l := range f.loans {
		if l.UserID == userID {
			res = append(res, l)
		}
	}
	return res, nil
}

func (f *fakeStore) CloseLoan(_ context.Context, id string, returnedAt time.Time, fine int) error {
	l, ok := f.loans[id]
	if !ok {
		return ErrLoanNotFound
	}
	l.ReturnedAt = &returnedAt
	l.FineAmount = fine
	f.loans[id] = l
	return nil
}

func (f *fakeStore) MarkFinePaid(_ context.Context, id string) error {
	l, ok := f.loans[id]
	if !ok {
		return ErrLoanNotFound
	}
	l.FinePaid = true
	f.loans[id] = l
	return nil
}

func newTestService(at time.Time) (*Service, *fakeStore) {
	store := newFakeStore()
	svc := NewService(store, 14, 10)
	svc.now = func() time.Time { return at }
	return svc, store
}

func TestBorrowOpensLoanAndClaimsCopy(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, store := newTestService(at)
	store.addBook("book-1", 2)

	loan, err := svc.Borrow(context.Background(), "book-1", "student-1")
	require.NoError(t, err)
	assert.True(t, loan.DueDate.Equal(at.Add(14*24*time.Hour)))
	assert.Equal(t, 14, loan.DaysLeft)
	assert.Equal(t, 1, store.books["book-1"].AvailableCopies)
}

func TestBorrowLastCopyThenNone(t *testing.T) {
	svc, store := newTestService(time.Now())
	store.addBook("book-1", 1)

	_, err := svc.Borrow(context.Background(), "book-1", "student-1")
	require.NoError(t, err)

	_, err = svc.Borrow(context.Background(), "book-1", "student-2")
	assert.ErrorIs(t, err, ErrNoCopies)
}

func TestBorrowUnknownBook(t *testing.T) {
	svc, _ := newTestService(time.Now())

	_, err := svc.Borrow(context.Background(), "missing", "student-1")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestReturnOnTimeHasNoFine(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, store := newTestService(at)
	store.addBook("book-1", 1)

	loan, err := svc.Borrow(context.Background(), "book-1", "student-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return at.Add(10 * 24 * time.Hour) }
	returned, err := svc.Return(context.Background(), loan.ID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 0, returned.FineAmount)
	assert.Equal(t, 1, store.books["book-1"].AvailableCopies)
}

func TestReturnOverdueChargesPerStartedDay(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, store := newTestService(at)
	store.addBook("book-1", 1)

	loan, err := svc.Borrow(context.Background(), "book-1", "student-1")
	require.NoError(t, err)

	// Two full days plus an hour past due: three started days at 10 each.
	svc.now = func() time.Time { return loan.DueDate.Add(49 * time.Hour) }
	returned, err := svc.Return(context.Background(), loan.ID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 30, returned.FineAmount)

	require.NoError(t, svc.PayFine(context.Background(), loan.ID, "student-1"))
	assert.True(t, store.loans[loan.ID].FinePaid)
}

func TestReturnTwiceRejected(t *testing.T) {
	svc, store := newTestService(time.Now())
	store.addBook("book-1", 1)

	loan, err := svc.Borrow(context.Background(), "book-1", "student-1")
	require.NoError(t, err)

	_, err = svc.Return(context.Background(), loan.ID, "student-1")
	require.NoError(t, err)

	_, err = svc.Return(context.Background(), loan.ID, "student-1")
	assert.ErrorIs(t, err, ErrNotBorrowed)
}

func TestReturnSomeoneElsesLoanLooksMissing(t *testing.T) {
	svc, store := newTestService(time.Now())
	store.addBook("book-1", 1)

	loan, err := svc.Borrow(context.Background(), "book-1", "student-1")
	require.NoError(t, err)

	_, err = svc.Return(context.Background(), loan.ID, "student-2")
	assert.ErrorIs(t, err, ErrLoanNotFound)
}

func TestMyLoansAccruesFineOnActiveOverdues(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, store := newTestService(at)
	store.addBook("book-1", 1)

	loan, err := svc.Borrow(context.Background(), "book-1", "student-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return loan.DueDate.Add(time.Hour) }
	loans, err := svc.MyLoans(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, 10, loans[0].FineAmount)
	assert.LessOrEqual(t, loans[0].DaysLeft, 0)
}
