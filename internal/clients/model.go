package clients

import (
	"time"

	"github.com/google/uuid"
)

// Client is a desk client on whose behalf orders are placed.
type Client struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document"`
	Email     string    `json:"email"`
	Account   string    `json:"account"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateClientRequest is the payload for registering a client.
type CreateClientRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Document string `json:"document" validate:"required,max=40"`
	Email    string `json:"email" validate:"omitempty,email"`
	Account  string `json:"account" validate:"required,max=40"`
}

// UpdateClientRequest carries partial updates.
type UpdateClientRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Account *string `json:"account,omitempty" validate:"omitempty,max=40"`
}

// ListFilters narrows client listings.
type ListFilters struct {
	Search     string
	OnlyActive bool
	Page       int
	PerPage    int
}
