package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"campuslink/internal/queue"
	"campuslink/internal/realtime"
)

// Store is the persistence surface the service needs. *Repository implements
// it against Postgres; tests substitute an in-memory fake.
type Store interface {
	InsertCode(ctx context.Context, code Code) (Code, error)
	CodeByToken(ctx context.Context, token string) (Code, error)
	CodeByID(ctx context.Context, id string) (Code, error)
	DeactivateCode(ctx context.Context, id string) error
	CodesByDate(ctx context.Context, date string) ([]Code, error)
	ActiveCodes(ctx context.Context, date string, now time.Time) ([]Code, error)
	HasRecord(ctx context.Context, userID, date, timeSlot, subject string) (bool, error)
	InsertRecord(ctx context.Context, rec Record) (Record, error)
	RecordsByDate(ctx context.Context, date string) ([]Record, error)
	UserRecords(ctx context.Context, userID, date string) ([]Record, error)
}

// Service runs the code lifecycle and the redemption workflow:
// validate -> duplicate-check -> record -> notify.
type Service struct {
	store  Store
	broker realtime.Broker
	q      queue.Queue
	locks  keyedMutex
	now    func() time.Time
}

// NewService creates a service. broker and q may be nil; notification is then
// skipped.
func NewService(store Store, broker realtime.Broker, q queue.Queue) *Service {
	return &Service{store: store, broker: broker, q: q, now: time.Now}
}

// Issue creates a time-boxed code for a class session.
func (s *Service) Issue(ctx context.Context, p IssueParams) (Code, error) {
	if p.Subject == "" || p.TimeSlot == "" || p.TeacherID == "" {
		return Code{}, errors.New("subject, time slot and teacher required")
	}
	if p.Duration <= 0 {
		return Code{}, errors.New("duration must be positive")
	}
	token, err := NewToken()
	if err != nil {
		return Code{}, err
	}
	now := s.now()
	return s.store.InsertCode(ctx, Code{
		Code:      token,
		Subject:   p.Subject,
		ClassType: p.ClassType,
		TimeSlot:  p.TimeSlot,
		Location:  p.Location,
		Date:      DateOf(now),
		ExpiresAt: now.Add(p.Duration).UTC(),
		IsActive:  true,
		TeacherID: p.TeacherID,
	})
}

// Deactivate turns a code off. Only the issuing teacher may do it, and
// deactivating twice is a no-op success.
func (s *Service) Deactivate(ctx context.Context, codeID, teacherID string) error {
	code, err := s.store.CodeByID(ctx, codeID)
	if err != nil {
		return err
	}
	if code.TeacherID != teacherID {
		return ErrNotIssuer
	}
	if !code.IsActive {
		return nil
	}
	return s.store.DeactivateCode(ctx, codeID)
}

// Validate checks a submitted token against the code's own state. Active and
// unexpired are independent gates; both must pass.
func (s *Service) Validate(ctx context.Context, token string, now time.Time) (Code, error) {
	code, err := s.store.CodeByToken(ctx, token)
	if err != nil {
		return Code{}, err
	}
	if !code.IsActive {
		return Code{}, ErrCodeInactive
	}
	if now.After(code.ExpiresAt) {
		return Code{}, ErrCodeExpired
	}
	return code, nil
}

// Redeem runs the full self-service workflow for one submitted token. Every
// failure is terminal for the attempt; the caller resubmits to retry.
func (s *Service) Redeem(ctx context.Context, userID, token string) (Record, error) {
	if userID == "" || token == "" {
		return Record{}, errors.New("user and code required")
	}
	now := s.now()

	code, err := s.Validate(ctx, token, now)
	if err != nil {
		redemptions.WithLabelValues(validationOutcome(err)).Inc()
		return Record{}, err
	}

	// Serialize attempts on the same session key so two in-flight
	// submissions cannot both pass the duplicate check. The unique index
	// behind InsertRecord covers multi-instance deployments.
	key := userID + "|" + code.Date + "|" + code.TimeSlot + "|" + code.Subject
	unlock := s.locks.lock(key)
	defer unlock()

	exists, err := s.store.HasRecord(ctx, userID, code.Date, code.TimeSlot, code.Subject)
	if err != nil {
		redemptions.WithLabelValues(outcomeFailed).Inc()
		return Record{}, err
	}
	if exists {
		redemptions.WithLabelValues(outcomeDuplicate).Inc()
		return Record{}, ErrDuplicate
	}

	rec, err := s.store.InsertRecord(ctx, Record{
		UserID:    userID,
		Date:      code.Date,
		TimeSlot:  code.TimeSlot,
		Subject:   code.Subject,
		ClassType: code.ClassType,
		Status:    StatusPresent,
		Location:  code.Location,
		MarkedAt:  now.UTC(),
		MarkedBy:  code.TeacherID,
		CodeID:    code.ID,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			redemptions.WithLabelValues(outcomeDuplicate).Inc()
		} else {
			redemptions.WithLabelValues(outcomeFailed).Inc()
		}
		return Record{}, err
	}

	redemptions.WithLabelValues(outcomeCommitted).Inc()
	s.notify(ctx, rec)
	return rec, nil
}

// MarkManual records attendance on a student's behalf, set by staff from a
// code's session details. Status may be present or absent.
func (s *Service) MarkManual(ctx context.Context, codeID, studentID string, status Status, staffID string) (Record, error) {
	if studentID == "" || staffID == "" {
		return Record{}, errors.New("student and staff required")
	}
	code, err := s.store.CodeByID(ctx, codeID)
	if err != nil {
		return Record{}, err
	}
	rec, err := s.store.InsertRecord(ctx, Record{
		UserID:    studentID,
		Date:      code.Date,
		TimeSlot:  code.TimeSlot,
		Subject:   code.Subject,
		ClassType: code.ClassType,
		Status:    status,
		Location:  code.Location,
		MarkedAt:  s.now().UTC(),
		MarkedBy:  staffID,
		CodeID:    code.ID,
	})
	if err != nil {
		return Record{}, err
	}
	s.notify(ctx, rec)
	return rec, nil
}

// CodeForTeacher fetches a code by id, hiding codes issued by other teachers.
func (s *Service) CodeForTeacher(ctx context.Context, codeID, teacherID string) (Code, error) {
	code, err := s.store.CodeByID(ctx, codeID)
	if err != nil {
		return Code{}, err
	}
	if code.TeacherID != teacherID {
		return Code{}, ErrCodeNotFound
	}
	return code, nil
}

// TodayCodes lists every code issued today, for staff dashboards.
func (s *Service) TodayCodes(ctx context.Context) ([]Code, error) {
	return s.store.CodesByDate(ctx, DateOf(s.now()))
}

// ActiveCodesNow lists today's still-redeemable codes, for students.
func (s *Service) ActiveCodesNow(ctx context.Context) ([]Code, error) {
	now := s.now()
	return s.store.ActiveCodes(ctx, DateOf(now), now)
}

// TodayRecords lists today's full ledger, for staff.
func (s *Service) TodayRecords(ctx context.Context) ([]Record, error) {
	return s.store.RecordsByDate(ctx, DateOf(s.now()))
}

// UserToday lists one user's entries for today.
func (s *Service) UserToday(ctx context.Context, userID string) ([]Record, error) {
	return s.store.UserRecords(ctx, userID, DateOf(s.now()))
}

// notify fans a committed ledger entry out to the change broker and the
// notification queue. Failures are logged, never surfaced: the record is
// already committed.
func (s *Service) notify(ctx context.Context, rec Record) {
	payload, err := json.Marshal(rec)
	if err != nil {
		log.Printf("attendance: marshal record %s for notify: %v", rec.ID, err)
		return
	}
	if s.broker != nil {
		if err := s.broker.Publish(ctx, realtime.Event{
			Table:   realtime.TableAttendance,
			Action:  realtime.ActionInsert,
			ID:      rec.ID,
			Payload: payload,
			At:      rec.MarkedAt,
		}); err != nil {
			log.Printf("attendance: publish change event for %s: %v", rec.ID, err)
		}
	}
	if s.q != nil {
		if err := s.q.Publish(ctx, queue.Message{Type: "attendance", Body: payload}); err != nil {
			log.Printf("attendance: queue publish for %s: %v", rec.ID, err)
		}
	}
}

func validationOutcome(err error) string {
	switch {
	case errors.Is(err, ErrCodeNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrCodeInactive):
		return outcomeInactive
	case errors.Is(err, ErrCodeExpired):
		return outcomeExpired
	}
	return outcomeFailed
}

// keyedMutex serializes work per string key. Entries are refcounted and
// removed once the last holder releases.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedLock{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
