package domain

import "time"

// Well-known role names. Roles are plain records; these constants only name
// the ones the seeder guarantees to exist.
const (
	RoleAdmin     = "Admin"
	RoleManager   = "Manager"
	RoleDeveloper = "Developer"
)

// Role is a named capability assigned to users.
type Role struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
