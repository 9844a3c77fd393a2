package auth

import (
	"time"

	"github.com/google/uuid"
)

// Account represents an authenticated user account as stored in the profile
// table. Role is the raw stored string; it is validated through rbac.ParseRole
// at the resolution boundary, never trusted as-is.
type Account struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Role         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
