package users

import (
	"time"

	"github.com/google/uuid"
)

// User is an operator account as exposed to administrators. Password hashes
// never leave the repository layer.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserRequest is the payload for provisioning an account.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required"`
}

// UpdateUserRequest carries partial edits to an account.
type UpdateUserRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Role *string `json:"role,omitempty"`
}

// ListFilters narrows user listings.
type ListFilters struct {
	Search     string
	OnlyActive bool
	Page       int
	PerPage    int
}
