package orders

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an order. The wire values match the
// desk's historical vocabulary.
type Status string

const (
	StatusPendiente  Status = "pendiente"
	StatusEnProceso  Status = "en_proceso"
	StatusCompletada Status = "completada"
	StatusCancelada  Status = "cancelada"
	StatusRechazada  Status = "rechazada"
)

// Valid reports whether the status is part of the workflow.
func (s Status) Valid() bool {
	switch s {
	case StatusPendiente, StatusEnProceso, StatusCompletada, StatusCancelada, StatusRechazada:
		return true
	}
	return false
}

// transitions encodes the allowed workflow edges. A pending order can be
// taken by the trading desk or cancelled; an order in process either fills
// or is rejected. Completed, cancelled and rejected are terminal.
var transitions = map[Status][]Status{
	StatusPendiente: {StatusEnProceso, StatusCancelada},
	StatusEnProceso: {StatusCompletada, StatusRechazada},
}

// CanTransition reports whether the workflow allows moving from one status
// to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Side distinguishes buys from sells.
type Side string

const (
	SideCompra Side = "compra"
	SideVenta  Side = "venta"
)

// Valid reports whether the side is recognized.
func (s Side) Valid() bool {
	return s == SideCompra || s == SideVenta
}

// Order is a client instruction to trade one or more assets.
type Order struct {
	ID           uuid.UUID  `json:"id"`
	ClientID     uuid.UUID  `json:"client_id"`
	Notes        string     `json:"notes,omitempty"`
	Status       Status     `json:"status"`
	CreatedBy    uuid.UUID  `json:"created_by"`
	ExecutedBy   *uuid.UUID `json:"executed_by,omitempty"`
	ExecutedAt   *time.Time `json:"executed_at,omitempty"`
	RejectReason *string    `json:"reject_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Items        []Item     `json:"items,omitempty"`
}

// Item is one asset line inside an order.
type Item struct {
	ID            uuid.UUID  `json:"id"`
	OrderID       uuid.UUID  `json:"order_id"`
	AssetID       uuid.UUID  `json:"asset_id"`
	Side          Side       `json:"side"`
	Quantity      float64    `json:"quantity"`
	LimitPrice    *float64   `json:"limit_price,omitempty"`
	ExecutedPrice *float64   `json:"executed_price,omitempty"`
}

// OrderWithClient decorates an order with its client name for listings.
type OrderWithClient struct {
	Order
	ClientName string `json:"client_name"`
}
