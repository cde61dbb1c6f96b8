package events

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
	Insert(ctx context.Context, evt Event) (Event, error)
	List(ctx context.Context) ([]Event, error)
	ByID(ctx context.Context, id string) (Event, error)
	InsertRegistration(ctx context.Context, reg Registration) (Registration, error)
	IncrementRegistered(ctx context.Context, eventID string, at time.Time) error
	UserRegistrations(ctx context.Context, userID string) ([]Registration, error)
}

// CreateParams describes a new event.
type CreateParams struct {
	Title                string
	Description          string
	EventType            string
	StartDate            time.Time
	EndDate              time.Time
	Location             string
	Capacity             *int
	RegistrationRequired bool
	OrganizerID          string
}

// Service orchestrates event creation and registration.
type Service struct {
	store  Store
	broker realtime.Broker
	now    func() time.Time
}

// NewService creates a service. broker may be nil.
func NewService(store Store, broker realtime.Broker) *Service {
	return &Service{store: store, broker: broker, now: time.Now}
}

// Create adds an event with status "upcoming". When registration is required
// the deadline defaults to the event start.
func (s *Service) Create(ctx context.Context, p CreateParams) (Event, error) {
	if p.Title == "" || p.EventType == "" || p.OrganizerID == "" {
		return Event{}, errors.New("title, type and organizer required")
	}
	if p.EndDate.Before(p.StartDate) {
		return Event{}, errors.New("end date before start date")
	}
	evt := Event{
		Title:                p.Title,
		Description:          p.Description,
		EventType:            p.EventType,
		StartDate:            p.StartDate,
		EndDate:              p.EndDate,
		Location:             p.Location,
		Capacity:             p.Capacity,
		RegistrationRequired: p.RegistrationRequired,
		OrganizerID:          p.OrganizerID,
		Status:               "upcoming",
	}
	if p.RegistrationRequired {
		deadline := p.StartDate
		evt.RegistrationDeadline = &deadline
	}
	created, err := s.store.Insert(ctx, evt)
	if err != nil {
		return Event{}, err
	}
	s.publish(ctx, realtime.ActionInsert, created)
	return created, nil
}

// List returns all events ordered by start date.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.store.List(ctx)
}

// MyRegistrations returns the user's registrations with events embedded.
func (s *Service) MyRegistrations(ctx context.Context, userID string) ([]Registration, error) {
	return s.store.UserRegistrations(ctx, userID)
}

// Register signs a user up for an event, enforcing the deadline, capacity and
// one-registration-per-user rules.
func (s *Service) Register(ctx context.Context, eventID, userID string) (Registration, error) {
	evt, err := s.store.ByID(ctx, eventID)
	if err != nil {
		return Registration{}, err
	}
	if !evt.RegistrationRequired {
		return Registration{}, ErrNoRegistration
	}
	now := s.now()
	if evt.RegistrationDeadline != nil && now.After(*evt.RegistrationDeadline) {
		return Registration{}, ErrRegistrationClosed
	}
	if evt.Capacity != nil && evt.RegisteredCount >= *evt.Capacity {
		return Registration{}, ErrEventFull
	}

	reg, err := s.store.InsertRegistration(ctx, Registration{
		EventID:          eventID,
		UserID:           userID,
		AttendanceStatus: "registered",
	})
	if err != nil {
		return Registration{}, err
	}
	if err := s.store.IncrementRegistered(ctx, eventID, now.UTC()); err != nil {
		log.Printf("events: increment registered_count for %s: %v", eventID, err)
	}
	evt.RegisteredCount++
	s.publish(ctx, realtime.ActionUpdate, evt)
	return reg, nil
}

func (s *Service) publish(ctx context.Context, action string, evt Event) {
	if s.broker == nil {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		log.Printf("events: marshal event %s: %v", evt.ID, err)
		return
	}
	if err := s.broker.Publish(ctx, realtime.Event{
		Table:   realtime.TableEvents,
		Action:  action,
		ID:      evt.ID,
		Payload: payload,
		At:      s.now().UTC(),
	}); err != nil {
		log.Printf("events: publish change event for %s: %v", evt.ID, err)
	}
}
