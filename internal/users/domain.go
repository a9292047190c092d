package users

import "time"

// Status is the account lifecycle state. Soft delete and suspension are
// distinct states rather than one overloaded boolean.
type Status string

const (
	StatusActive      Status = "active"
	StatusSuspended   Status = "suspended"
	StatusDeactivated Status = "deactivated"
)

// User represents a user account for management.
type User struct {
	ID             int64
	Username       string
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	Phone          string
	RoleID         int64
	RoleName       string
	Status         Status
	MFAEnabled     bool
	MFASecret      string
	MFABackupCodes []string
	LastLogin      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive reports whether the account may authenticate.
func (u User) IsActive() bool {
	return u.Status == StatusActive
}

// IsAdmin reports whether the account holds the reserved super-role.
func (u User) IsAdmin() bool {
	return u.RoleName == "admin"
}

// ListFilters selects users for paged listings.
type ListFilters struct {
	IncludeInactive bool
	RoleID          int64
	Search          string
	Page            int
	PerPage         int
}

// Statistics summarises user accounts.
type Statistics struct {
	TotalUsers       int            `json:"total_users"`
	ActiveUsers      int            `json:"active_users"`
	InactiveUsers    int            `json:"inactive_users"`
	RoleDistribution map[string]int `json:"role_distribution"`
}
