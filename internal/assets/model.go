package assets

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies a tradeable asset.
type Type string

const (
	TypeAccion Type = "accion"
	TypeBono   Type = "bono"
	TypeFondo  Type = "fondo"
	TypeMoneda Type = "moneda"
	TypeOtro   Type = "otro"
)

// Valid reports whether the asset type is recognized.
func (t Type) Valid() bool {
	switch t {
	case TypeAccion, TypeBono, TypeFondo, TypeMoneda, TypeOtro:
		return true
	}
	return false
}

// Asset is an instrument the desk can place orders against.
type Asset struct {
	ID        uuid.UUID `json:"id"`
	Ticker    string    `json:"ticker"`
	Name      string    `json:"name"`
	Type      Type      `json:"type"`
	Currency  string    `json:"currency"`
	Market    string    `json:"market"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateAssetRequest is the payload for registering an asset.
type CreateAssetRequest struct {
	Ticker   string `json:"ticker" validate:"required,max=20"`
	Name     string `json:"name" validate:"required,max=200"`
	Type     string `json:"type" validate:"required,oneof=accion bono fondo moneda otro"`
	Currency string `json:"currency" validate:"required,len=3"`
	Market   string `json:"market" validate:"omitempty,max=40"`
}

// UpdateAssetRequest carries partial updates.
type UpdateAssetRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Currency *string `json:"currency,omitempty" validate:"omitempty,len=3"`
	Market   *string `json:"market,omitempty" validate:"omitempty,max=40"`
}

// ListFilters narrows asset listings.
type ListFilters struct {
	Search     string
	Type       Type
	OnlyActive bool
	Page       int
	PerPage    int
}
