package roles

import "time"

// AdminRoleName is the reserved super-role. It short-circuits every
// permission check.
const AdminRoleName = "admin"

// Role groups users under a named permission set.
type Role struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Permissions map[string]bool `json:"permissions"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HasPermission reports whether the permission flag is granted.
func (r Role) HasPermission(name string) bool {
	return r.Permissions[name]
}

// MissingPermissions returns the subset of required permissions the role
// does not grant.
func (r Role) MissingPermissions(required []string) []string {
	var missing []string
	for _, p := range required {
		if !r.Permissions[p] {
			missing = append(missing, p)
		}
	}
	return missing
}
