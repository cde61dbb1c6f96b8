package profile

import (
	"errors"
	"time"

	"campuslink/internal/auth"
)

// Profile is one campus account's record.
type Profile struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Role       auth.Role `json:"role"`
	StudentID  string    `json:"student_id,omitempty"`
	Department string    `json:"department,omitempty"`
	Year       *int      `json:"year,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	HostelID   string    `json:"hostel_id,omitempty"`
	RoomNumber string    `json:"room_number,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UpdateParams are the fields an account may change on its own profile.
type UpdateParams struct {
	FullName   string
	Phone      string
	Department string
	Year       *int
	HostelID   string
	RoomNumber string
	StudentID  string
}

// StudentUpdate is a staff note about a student (academic, disciplinary,
// achievement and so on).
type StudentUpdate struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	StaffID     string    `json:"staff_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UpdateType  string    `json:"update_type"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	StudentName string    `json:"student_name,omitempty"`
	StaffName   string    `json:"staff_name,omitempty"`
}

// Notification is one row in a user's notification feed.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrNotFound reports a profile lookup miss.
var ErrNotFound = errors.New("profile not found")
