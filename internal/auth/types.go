package auth

import "errors"

// Role is an authorisation tier.
type Role string

const (
	// RoleViewer may read camera properties, history and live changes.
	RoleViewer Role = "viewer"

	// RoleAdmin may also change camera properties.
	RoleAdmin Role = "admin"
)

// IsValidRole reports whether r is a known role.
func IsValidRole(r Role) bool {
	return r == RoleViewer || r == RoleAdmin
}

// User is an account allowed to log in.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrDuplicateUser      = errors.New("duplicate username")
	ErrInvalidHash        = errors.New("invalid password hash")
)
