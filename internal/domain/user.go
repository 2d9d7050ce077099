package domain

import "time"

// User is an account in the copropriété directory. Accounts are created at
// signup with role pending and are never hard-deleted; administrators flip
// the active flag instead.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	BuildingID   *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
