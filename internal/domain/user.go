package domain

import "time"

// User is the domain model for accounts that authenticate against the service.
// RoleName is resolved by joining the roles table and is what ends up inside
// issued tokens; RoleID is the stored reference.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	RoleID       string
	RoleName     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
