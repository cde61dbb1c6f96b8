package attendance

import "errors"

// Validation and redemption failures. Each is terminal for the attempt; the
// caller distinguishes them when building the rejection message.
var (
	ErrCodeNotFound = errors.New("attendance code not found")
	ErrCodeInactive = errors.New("attendance code deactivated")
	ErrCodeExpired  = errors.New("attendance code expired")
	ErrDuplicate    = errors.New("attendance already marked for this session")
	ErrNotIssuer    = errors.New("code belongs to another teacher")
)
