package complaints

import (
	"errors"
	"time"
)

// Complaint statuses form a small ticket lifecycle.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusRejected   = "rejected"
)

// Complaint is a ticket filed by a campus user.
type Complaint struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Subject         string     `json:"subject"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	AssignedTo      string     `json:"assigned_to,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

var (
	ErrNotFound      = errors.New("complaint not found")
	ErrBadTransition = errors.New("invalid complaint status transition")
)

var validCategory = map[string]bool{
	"academic": true, "hostel": true, "mess": true, "infrastructure": true, "other": true,
}

var validPriority = map[string]bool{
	"low": true, "medium": true, "high": true,
}

// allowedTransitions: pending may start progress or be closed outright;
// in_progress closes to resolved or rejected. Closed tickets stay closed.
var allowedTransitions = map[string]map[string]bool{
	StatusPending:    {StatusInProgress: true, StatusResolved: true, StatusRejected: true},
	StatusInProgress: {StatusResolved: true, StatusRejected: true},
}

func canTransition(from, to string) bool {
	return allowedTransitions[from][to]
}
