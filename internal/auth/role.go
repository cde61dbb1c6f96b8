package auth

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RoleStudent Role = "student"
	RoleWarden  Role = "warden"
)

// ParseRole maps a stored role string onto the enumeration.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleStaff, RoleStudent, RoleWarden:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// CanIssueCodes reports whether the role may generate and deactivate attendance codes.
func (r Role) CanIssueCodes() bool {
	switch r {
	case RoleAdmin, RoleStaff:
		return true
	case RoleStudent, RoleWarden:
		return false
	}
	return false
}

// CanViewAllComplaints reports whether the role sees every complaint, not just its own.
func (r Role) CanViewAllComplaints() bool {
	switch r {
	case RoleAdmin, RoleWarden:
		return true
	case RoleStaff, RoleStudent:
		return false
	}
	return false
}

// CanManageEvents reports whether the role may create events.
func (r Role) CanManageEvents() bool {
	switch r {
	case RoleAdmin, RoleStaff:
		return true
	case RoleStudent, RoleWarden:
		return false
	}
	return false
}

// CanManageStudents reports whether the role may list students and file student updates.
func (r Role) CanManageStudents() bool {
	switch r {
	case RoleAdmin, RoleStaff:
		return true
	case RoleStudent, RoleWarden:
		return false
	}
	return false
}
