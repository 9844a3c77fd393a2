package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mesa-ops/mesa/internal/platform/httpx"
)

// Service implements the order lifecycle on top of a repository.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs an order service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns orders matching the filters together with the total count.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]OrderWithClient, int, error) {
	return s.repo.List(ctx, filters)
}

// Get returns one order with its items.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	return s.repo.Get(ctx, id)
}

// Create places a new order in pendiente on behalf of createdBy.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest, createdBy uuid.UUID) (Order, error) {
	order := Order{
		ID:        uuid.New(),
		ClientID:  req.ClientID,
		Notes:     req.Notes,
		Status:    StatusPendiente,
		CreatedBy: createdBy,
		Items:     buildItems(req.Items),
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return Order{}, fmt.Errorf("orders: create: %w", err)
	}
	s.logger.Info("order created", "order_id", order.ID, "client_id", order.ClientID, "items", len(order.Items))
	return order, nil
}

// Update edits a pending order. Orders that already entered the trading
// queue are immutable and the edit is rejected with a conflict.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateOrderRequest) (Order, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if current.Status != StatusPendiente {
		return Order{}, httpx.ErrConflict
	}
	if req.Notes != nil {
		current.Notes = *req.Notes
	}
	if req.Items != nil {
		current.Items = buildItems(*req.Items)
		for i := range current.Items {
			current.Items[i].OrderID = current.ID
		}
	} else {
		current.Items = nil
	}
	if err := s.repo.UpdatePending(ctx, current); err != nil {
		return Order{}, err
	}
	return s.repo.Get(ctx, id)
}

// Cancel moves a pending order to cancelada.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, by uuid.UUID) error {
	if err := s.repo.Transition(ctx, id, StatusPendiente, StatusCancelada, by, nil); err != nil {
		return err
	}
	s.logger.Info("order cancelled", "order_id", id, "by", by)
	return nil
}

// Delete removes a pending order and its items. Non-pending orders are an
// audit record and cannot be deleted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("order deleted", "order_id", id)
	return nil
}

func buildItems(reqs []CreateItemRequest) []Item {
	items := make([]Item, 0, len(reqs))
	for _, it := range reqs {
		items = append(items, Item{
			ID:         uuid.New(),
			AssetID:    it.AssetID,
			Side:       Side(it.Side),
			Quantity:   it.Quantity,
			LimitPrice: it.LimitPrice,
		})
	}
	return items
}
