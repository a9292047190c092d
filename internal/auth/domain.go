package auth

import "time"

// User is the authenticated identity resolved from credentials or a token.
// It carries the role and permission set needed for access decisions.
type User struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	RoleID       int64           `json:"role_id"`
	RoleName     string          `json:"role_name"`
	Permissions  map[string]bool `json:"-"`
	IsActive     bool            `json:"is_active"`
	LastLogin    *time.Time      `json:"last_login,omitempty"`
}

// IsAdmin reports whether the user holds the reserved super-role.
func (u User) IsAdmin() bool {
	return u.RoleName == "admin"
}
