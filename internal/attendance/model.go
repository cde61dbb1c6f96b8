package attendance

import "time"

// ClassType is the kind of session a code covers.
type ClassType string

const (
	ClassLecture   ClassType = "lecture"
	ClassPractical ClassType = "practical"
	ClassTutorial  ClassType = "tutorial"
	ClassSeminar   ClassType = "seminar"
)

// ParseClassType validates a class type string.
func ParseClassType(s string) (ClassType, bool) {
	switch ClassType(s) {
	case ClassLecture, ClassPractical, ClassTutorial, ClassSeminar:
		return ClassType(s), true
	}
	return "", false
}

// Status of a ledger entry.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPresent, StatusAbsent, StatusLate:
		return Status(s), true
	}
	return "", false
}

// Code is a time-boxed attendance code issued by staff for one class session.
type Code struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Subject   string    `json:"class_subject"`
	ClassType ClassType `json:"class_type"`
	TimeSlot  string    `json:"time_slot"`
	Location  string    `json:"location,omitempty"`
	Date      string    `json:"date"`
	ExpiresAt time.Time `json:"expires_at"`
	IsActive  bool      `json:"is_active"`
	TeacherID string    `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is one ledger entry: a user marked for one class session.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	TimeSlot  string    `json:"time_slot"`
	Subject   string    `json:"class_subject"`
	ClassType ClassType `json:"class_type"`
	Status    Status    `json:"status"`
	Location  string    `json:"location,omitempty"`
	MarkedAt  time.Time `json:"marked_at"`
	MarkedBy  string    `json:"marked_by,omitempty"`
	CodeID    string    `json:"qr_code_id,omitempty"`
}

// IssueParams describes a code to issue.
type IssueParams struct {
	Subject   string
	ClassType ClassType
	TimeSlot  string
	Location  string
	Duration  time.Duration
	TeacherID string
}

// DateOf formats t as the calendar date the ledger keys on.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}
