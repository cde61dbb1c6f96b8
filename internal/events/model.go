package events

import (
	"errors"
	"time"
)

// Event is a campus event open for browsing and, optionally, registration.
type Event struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description,omitempty"`
	EventType            string     `json:"event_type"`
	StartDate            time.Time  `json:"start_date"`
	EndDate              time.Time  `json:"end_date"`
	Location             string     `json:"location,omitempty"`
	Capacity             *int       `json:"capacity,omitempty"`
	RegisteredCount      int        `json:"registered_count"`
	RegistrationRequired bool       `json:"registration_required"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	OrganizerID          string     `json:"organizer_id"`
	Status               string     `json:"status"`
	BannerURL            string     `json:"banner_url,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Registration ties a user to an event. Event is embedded for the
// one-level relation fetch the "my registrations" listing needs.
type Registration struct {
	ID               string    `json:"id"`
	EventID          string    `json:"event_id"`
	UserID           string    `json:"user_id"`
	AttendanceStatus string    `json:"attendance_status"`
	RegistrationDate time.Time `json:"registration_date"`
	Event            *Event    `json:"event,omitempty"`
}

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrRegistrationClosed = errors.New("registration deadline has passed")
	ErrEventFull          = errors.New("event is at capacity")
	ErrAlreadyRegistered  = errors.New("already registered for this event")
	ErrNoRegistration     = errors.New("event does not take registrations")
)
