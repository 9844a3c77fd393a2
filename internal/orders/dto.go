package orders

import "github.com/google/uuid"

// CreateOrderRequest is the payload for placing an order.
type CreateOrderRequest struct {
	ClientID uuid.UUID          `json:"client_id" validate:"required"`
	Notes    string             `json:"notes" validate:"max=2000"`
	Items    []CreateItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateItemRequest is one asset line of a new order.
type CreateItemRequest struct {
	AssetID    uuid.UUID `json:"asset_id" validate:"required"`
	Side       string    `json:"side" validate:"required,oneof=compra venta"`
	Quantity   float64   `json:"quantity" validate:"required,gt=0"`
	LimitPrice *float64  `json:"limit_price,omitempty" validate:"omitempty,gt=0"`
}

// UpdateOrderRequest carries edits to a pending order.
type UpdateOrderRequest struct {
	Notes *string              `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Items *[]CreateItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

// ListFilters narrows order listings.
type ListFilters struct {
	ClientID *uuid.UUID
	Status   Status
	Page     int
	PerPage  int
}
