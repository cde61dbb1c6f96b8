package attendance

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"campuslink/internal/realtime"
)

// fakeStore keeps codes and records in maps and enforces the same session-key
// uniqueness the Postgres index does.
type fakeStore struct {
	mu      sync.Mutex
	codes   map[string]Code
	records map[string]Record
	nextID  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{codes: make(map[string]Code), records: make(map[string]Record)}
}

func sessionKey(userID, date, timeSlot, subject string) string {
	return userID + "|" + date + "|" + timeSlot + "|" + subject
}

func (f *fakeStore) InsertCode(_ context.Context, code Code) (Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	code.ID = "code-" + strconv.Itoa(f.nextID)
	code.CreatedAt = time.Now()
	f.codes[code.ID] = code
	return code, nil
}

func (f *fakeStore) CodeByToken(_ context.Context, token string) (Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.codes {
		if c.Code == token {
			return c, nil
		}
	}
	return Code{}, ErrCodeNotFound
}

func (f *fakeStore) CodeByID(_ context.Context, id string) (Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.codes[id]; ok {
		return c, nil
	}
	return Code{}, ErrCodeNotFound
}

func (f *fakeStore) DeactivateCode(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.codes[id]
	if !ok {
		return ErrCodeNotFound
	}
	c.IsActive = false
	f.codes[id] = c
	return nil
}

func (f *fakeStore) CodesByDate(_ context.Context, date string) ([]Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []Code
	for _, c := range f.codes {
		if c.Date == date {
			res = append(res, c)
		}
	}
	return res, nil
}

func (f *fakeStore) ActiveCodes(_ context.Context, date string, now time.Time) ([]Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []Code
	for _, c := range f.codes {
		if c.Date == date && c.IsActive && c.ExpiresAt.After(now) {
			res = append(res, c)
		}
	}
	return res, nil
}

func (f *fakeStore) HasRecord(_ context.Context, userID, date, timeSlot, subject string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[sessionKey(userID, date, timeSlot, subject)]
	return ok, nil
}

func (f *fakeStore) InsertRecord(_ context.Context, rec Record) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := sessionKey(rec.UserID, rec.Date, rec.TimeSlot, rec.Subject)
	if _, ok := f.records[key]; ok {
		return Record{}, ErrDuplicate
	}
	f.nextID++
	rec.ID = "rec-" + strconv.Itoa(f.nextID)
	f.records[key] = rec
	return rec, nil
}

func (f *fakeStore) RecordsByDate(_ context.Context, date string) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []Record
	for _, r := range f.records {
		if r.Date == date {
			res = append(res, r)
		}
	}
	return res, nil
}

func (f *fakeStore) UserRecords(_ context.Context, userID, date string) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []Record
	for _, r := range f.records {
		if r.UserID == userID && r.Date == date {
			res = append(res, r)
		}
	}
	return res, nil
}

func (f *fakeStore) recordCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func newTestService(t *testing.T, at time.Time) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	svc := NewService(store, nil, nil)
	svc.now = func() time.Time { return at }
	return svc, store
}

func issueTestCode(t *testing.T, svc *Service, teacherID string) Code {
	t.Helper()
	code, err := svc.Issue(context.Background(), IssueParams{
		Subject:   "Data Structures",
		ClassType: ClassLecture,
		TimeSlot:  "09:00-10:00",
		Location:  "Room 204",
		Duration:  time.Hour,
		TeacherID: teacherID,
	})
	if err != nil {
		t.Fatalf("issue code: %v", err)
	}
	return code
}

func TestIssueSetsLifetimeAndDate(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, at)

	code := issueTestCode(t, svc, "teacher-1")

	if code.Date != "2026-03-02" {
		t.Errorf("expected date 2026-03-02, got %s", code.Date)
	}
	if !code.ExpiresAt.Equal(at.Add(time.Hour)) {
		t.Errorf("expected expiry %v, got %v", at.Add(time.Hour), code.ExpiresAt)
	}
	if !code.IsActive {
		t.Error("freshly issued code should be active")
	}
	if len(code.Code) != 16 {
		t.Errorf("expected 16-char token, got %q", code.Code)
	}
}

func TestRedeemHappyPath(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	svc, store := newTestService(t, at)
	code := issueTestCode(t, svc, "teacher-1")

	rec, err := svc.Redeem(context.Background(), "student-1", code.Code)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if rec.Status != StatusPresent {
		t.Errorf("expected present, got %s", rec.Status)
	}
	if rec.MarkedBy != "teacher-1" {
		t.Errorf("expected marked_by teacher-1, got %s", rec.MarkedBy)
	}
	if rec.CodeID != code.ID {
		t.Errorf("expected code id %s, got %s", code.ID, rec.CodeID)
	}
	if store.recordCount() != 1 {
		t.Errorf("expected 1 record, got %d", store.recordCount())
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	svc, _ := newTestService(t, time.Now())

	_, err := svc.Redeem(context.Background(), "student-1", "NOSUCHTOKEN00000")
	if !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound, got %v", err)
	}
}

// A deactivated code is rejected as inactive even when it would also have
// been expired; the inactive gate runs first.
func TestRedeemDeactivatedBeforeExpiryCheck(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, at)
	code := issueTestCode(t, svc, "teacher-1")

	if err := svc.Deactivate(context.Background(), code.ID, "teacher-1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// Well past expiry too.
	svc.now = func() time.Time { return at.Add(2 * time.Hour) }
	_, err := svc.Redeem(context.Background(), "student-1", code.Code)
	if !errors.Is(err, ErrCodeInactive) {
		t.Fatalf("expected ErrCodeInactive, got %v", err)
	}
}

func TestRedeemExpired(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, at)
	code := issueTestCode(t, svc, "teacher-1")

	svc.now = func() time.Time { return at.Add(61 * time.Minute) }
	_, err := svc.Redeem(context.Background(), "student-1", code.Code)
	if !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}

	// One second before the boundary it still goes through.
	svc.now = func() time.Time { return at.Add(time.Hour - time.Second) }
	if _, err := svc.Redeem(context.Background(), "student-1", code.Code); err != nil {
		t.Fatalf("redeem just before expiry: %v", err)
	}
}

func TestRedeemTwiceSameSession(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	svc, store := newTestService(t, at)
	code := issueTestCode(t, svc, "teacher-1")

	if _, err := svc.Redeem(context.Background(), "student-1", code.Code); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	_, err := svc.Redeem(context.Background(), "student-1", code.Code)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if store.recordCount() != 1 {
		t.Errorf("expected exactly 1 record, got %d", store.recordCount())
	}
}

// Two codes for the same subject and slot on the same day still collapse to
// one ledger entry per student.
func TestRedeemSameSessionDifferentCodes(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	svc, store := newTestService(t, at)
	first := issueTestCode(t, svc, "teacher-1")
	second := issueTestCode(t, svc, "teacher-1")

	if _, err := svc.Redeem(context.Background(), "student-1", first.Code); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	_, err := svc.Redeem(context.Background(), "student-1", second.Code)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for second code, got %v", err)
	}
	if store.recordCount() != 1 {
		t.Errorf("expected 1 record, got %d", store.recordCount())
	}
}

func TestRedeemConcurrentSingleWinner(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	svc, store := newTestService(t, at)
	code := issueTestCode(t, svc, "teacher-1")

	const attempts = 32
	var wg sync.WaitGroup
	errCh := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Redeem(context.Background(), "student-1", code.Code)
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	var committed, duplicate int
	for err := range errCh {
		switch {
		case err == nil:
			committed++
		case errors.Is(err, ErrDuplicate):
			duplicate++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if committed != 1 {
		t.Errorf("expected exactly 1 winner, got %d", committed)
	}
	if duplicate != attempts-1 {
		t.Errorf("expected %d duplicates, got %d", attempts-1, duplicate)
	}
	if store.recordCount() != 1 {
		t.Errorf("expected 1 record, got %d", store.recordCount())
	}
}

func TestDeactivateOnlyByIssuer(t *testing.T) {
	svc, _ := newTestService(t, time.Now())
	code := issueTestCode(t, svc, "teacher-1")

	err := svc.Deactivate(context.Background(), code.ID, "teacher-2")
	if !errors.Is(err, ErrNotIssuer) {
		t.Fatalf("expected ErrNotIssuer, got %v", err)
	}

	// Deactivating twice is a no-op success.
	if err := svc.Deactivate(context.Background(), code.ID, "teacher-1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := svc.Deactivate(context.Background(), code.ID, "teacher-1"); err != nil {
		t.Fatalf("second deactivate: %v", err)
	}
}

func TestActiveCodesExcludeDeadOnes(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, at)
	live := issueTestCode(t, svc, "teacher-1")
	dead := issueTestCode(t, svc, "teacher-1")

	if err := svc.Deactivate(context.Background(), dead.ID, "teacher-1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	codes, err := svc.ActiveCodesNow(context.Background())
	if err != nil {
		t.Fatalf("active codes: %v", err)
	}
	if len(codes) != 1 || codes[0].ID != live.ID {
		t.Fatalf("expected only %s active, got %+v", live.ID, codes)
	}
}

func TestMarkManualRecordsStaffAsMarker(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	svc, _ := newTestService(t, at)
	code := issueTestCode(t, svc, "teacher-1")

	rec, err := svc.MarkManual(context.Background(), code.ID, "student-1", StatusAbsent, "staff-9")
	if err != nil {
		t.Fatalf("manual mark: %v", err)
	}
	if rec.Status != StatusAbsent {
		t.Errorf("expected absent, got %s", rec.Status)
	}
	if rec.MarkedBy != "staff-9" {
		t.Errorf("expected marked_by staff-9, got %s", rec.MarkedBy)
	}
}

// A committed redemption publishes exactly one change event carrying the new
// record, in commit order.
func TestRedeemPublishesOneEventPerCommit(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	store := newFakeStore()
	broker := realtime.NewMemoryBroker()
	svc := NewService(store, broker, nil)
	svc.now = func() time.Time { return at }

	ctx := context.Background()
	ch, release := broker.Subscribe(ctx, realtime.TableAttendance)
	defer release()

	code := issueTestCode(t, svc, "teacher-1")
	first, err := svc.Redeem(ctx, "student-1", code.Code)
	if err != nil {
		t.Fatalf("redeem student-1: %v", err)
	}
	if _, err := svc.Redeem(ctx, "student-1", code.Code); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	second, err := svc.Redeem(ctx, "student-2", code.Code)
	if err != nil {
		t.Fatalf("redeem student-2: %v", err)
	}

	for i, want := range []Record{first, second} {
		select {
		case evt := <-ch:
			if evt.ID != want.ID {
				t.Errorf("event %d: expected record %s, got %s", i, want.ID, evt.ID)
			}
			if evt.Action != realtime.ActionInsert {
				t.Errorf("event %d: expected insert action, got %s", i, evt.Action)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %d never arrived", i)
		}
	}

	select {
	case evt := <-ch:
		t.Fatalf("unexpected extra event %+v", evt)
	default:
	}
}
