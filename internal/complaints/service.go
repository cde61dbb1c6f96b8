package complaints

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"campuslink/internal/realtime"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, c Complaint) (Complaint, error)
	ByID(ctx context.Context, id string) (Complaint, error)
	ListAll(ctx context.Context) ([]Complaint, error)
	ListByUser(ctx context.Context, userID string) ([]Complaint, error)
	UpdateStatus(ctx context.Context, id, status, notes, assignedTo string, resolvedAt *time.Time, at time.Time) error
}

// Service runs the complaint ticket lifecycle.
type Service struct {
	store  Store
	broker realtime.Broker
	now    func() time.Time
}

// NewService creates a service. broker may be nil.
func NewService(store Store, broker realtime.Broker) *Service {
	return &Service{store: store, broker: broker, now: time.Now}
}

// File submits a new complaint with status pending.
func (s *Service) File(ctx context.Context, userID, subject, description, category, priority string) (Complaint, error) {
	if userID == "" || subject == "" || description == "" {
		return Complaint{}, errors.New("user, subject and description required")
	}
	if !validCategory[category] {
		return Complaint{}, errors.New("unknown complaint category")
	}
	if priority == "" {
		priority = "medium"
	}
	if !validPriority[priority] {
		return Complaint{}, errors.New("unknown complaint priority")
	}
	c, err := s.store.Insert(ctx, Complaint{
		UserID:      userID,
		Subject:     subject,
		Description: description,
		Category:    category,
		Priority:    priority,
		Status:      StatusPending,
	})
	if err != nil {
		return Complaint{}, err
	}
	s.publish(ctx, realtime.ActionInsert, c)
	return c, nil
}

// Mine lists the caller's own complaints.
func (s *Service) Mine(ctx context.Context, userID string) ([]Complaint, error) {
	return s.store.ListByUser(ctx, userID)
}

// All lists every complaint; the handler gates this on role.
func (s *Service) All(ctx context.Context) ([]Complaint, error) {
	return s.store.ListAll(ctx)
}

// Transition moves a complaint to a new status. Resolving or rejecting stamps
// resolved_at; closed tickets cannot move again.
func (s *Service) Transition(ctx context.Context, id, status, notes, actorID string) (Complaint, error) {
	c, err := s.store.ByID(ctx, id)
	if err != nil {
		return Complaint{}, err
	}
	if !canTransition(c.Status, status) {
		return Complaint{}, ErrBadTransition
	}
	now := s.now().UTC()
	var resolvedAt *time.Time
	if status == StatusResolved || status == StatusRejected {
		resolvedAt = &now
	}
	if err := s.store.UpdateStatus(ctx, id, status, notes, actorID, resolvedAt, now); err != nil {
		return Complaint{}, err
	}
	updated, err := s.store.ByID(ctx, id)
	if err != nil {
		return Complaint{}, err
	}
	s.publish(ctx, realtime.ActionUpdate, updated)
	return updated, nil
}

func (s *Service) publish(ctx context.Context, action string, c Complaint) {
	if s.broker == nil {
		return
	}
	payload, err := json.Marshal(c)
	if err != nil {
		log.Printf("complaints: marshal complaint %s: %v", c.ID, err)
		return
	}
	if err := s.broker.Publish(ctx, realtime.Event{
		Table:   realtime.TableComplaints,
		Action:  action,
		ID:      c.ID,
		Payload: payload,
		At:      s.now().UTC(),
	}); err != nil {
		log.Printf("complaints: publish change event for %s: %v", c.ID, err)
	}
}
