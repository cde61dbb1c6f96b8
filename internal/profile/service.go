package profile

import (
	"context"
	"errors"
	"log"
	"time"
)

// Store is the persistence surface the service needs.
type Store interface {
	ByUserID(ctx context.Context, userID string) (Profile, error)
	ByID(ctx context.Context, id string) (Profile, error)
	ByEmail(ctx context.Context, email string) (Profile, error)
	Update(ctx context.Context, userID string, p UpdateParams, at time.Time) error
	ListStudents(ctx context.Context) ([]Profile, error)
	InsertStudentUpdate(ctx context.Context, u StudentUpdate) (StudentUpdate, error)
	ListStudentUpdates(ctx context.Context, limit int) ([]StudentUpdate, error)
	InsertNotification(ctx context.Context, n Notification) (Notification, error)
	ListNotifications(ctx context.Context, userID string, limit int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
}

// Service manages profiles, staff student-updates and the notification feed.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Get returns the profile owned by an identity.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	return s.store.ByUserID(ctx, userID)
}

// GetByID returns a profile by row id.
func (s *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	return s.store.ByID(ctx, id)
}

// GetByEmail returns a profile by email, for login.
func (s *Service) GetByEmail(ctx context.Context, email string) (Profile, error) {
	return s.store.ByEmail(ctx, email)
}

// Update writes the caller's own mutable fields and returns the fresh profile.
func (s *Service) Update(ctx context.Context, userID string, p UpdateParams) (Profile, error) {
	if p.FullName == "" {
		return Profile{}, errors.New("full name required")
	}
	if err := s.store.Update(ctx, userID, p, s.now().UTC()); err != nil {
		return Profile{}, err
	}
	return s.store.ByUserID(ctx, userID)
}

// Students lists all student profiles.
func (s *Service) Students(ctx context.Context) ([]Profile, error) {
	return s.store.ListStudents(ctx)
}

// FileStudentUpdate records a staff note about a student and drops a
// notification into the student's feed. Urgent notes surface as warnings.
func (s *Service) FileStudentUpdate(ctx context.Context, u StudentUpdate) (StudentUpdate, error) {
	if u.StudentID == "" || u.StaffID == "" || u.Title == "" {
		return StudentUpdate{}, errors.New("student, staff and title required")
	}
	if u.UpdateType == "" {
		u.UpdateType = "general"
	}
	if u.Priority == "" {
		u.Priority = "normal"
	}
	created, err := s.store.InsertStudentUpdate(ctx, u)
	if err != nil {
		return StudentUpdate{}, err
	}

	kind := "info"
	if u.Priority == "urgent" {
		kind = "warning"
	}
	// The update itself is committed; the feed entry is best-effort.
	if _, err := s.store.InsertNotification(ctx, Notification{
		UserID:   u.StudentID,
		Title:    "New " + u.UpdateType + " update",
		Message:  u.Title,
		Type:     kind,
		Category: "general",
	}); err != nil {
		log.Printf("profile: notification for student update %s: %v", created.ID, err)
	}
	return created, nil
}

// StudentUpdates lists recent staff notes.
func (s *Service) StudentUpdates(ctx context.Context, limit int) ([]StudentUpdate, error) {
	return s.store.ListStudentUpdates(ctx, limit)
}

// Notify appends one notification row.
func (s *Service) Notify(ctx context.Context, n Notification) (Notification, error) {
	if n.UserID == "" || n.Title == "" {
		return Notification{}, errors.New("user and title required")
	}
	if n.Type == "" {
		n.Type = "info"
	}
	if n.Category == "" {
		n.Category = "general"
	}
	return s.store.InsertNotification(ctx, n)
}

// Notifications lists the caller's feed.
func (s *Service) Notifications(ctx context.Context, userID string, limit int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit)
}

// MarkRead flips one of the caller's notifications to read.
func (s *Service) MarkRead(ctx context.Context, id, userID string) error {
	return s.store.MarkNotificationRead(ctx, id, userID)
}
