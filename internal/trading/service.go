package trading

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mesa-ops/mesa/internal/orders"
	"github.com/mesa-ops/mesa/internal/platform/httpx"
)

// Service drives the execution side of the order workflow. The desk pulls
// pending orders, takes them into en_proceso, and either fills or rejects
// them.
type Service struct {
	repo   orders.Repository
	logger *slog.Logger
}

// NewService constructs a trading service over the orders repository.
func NewService(repo orders.Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Queue lists orders awaiting execution, oldest first by repository order.
func (s *Service) Queue(ctx context.Context, page, perPage int) ([]orders.OrderWithClient, int, error) {
	return s.repo.List(ctx, orders.ListFilters{
		Status:  orders.StatusPendiente,
		Page:    page,
		PerPage: perPage,
	})
}

// InFlight lists orders currently being worked by the desk.
func (s *Service) InFlight(ctx context.Context, page, perPage int) ([]orders.OrderWithClient, int, error) {
	return s.repo.List(ctx, orders.ListFilters{
		Status:  orders.StatusEnProceso,
		Page:    page,
		PerPage: perPage,
	})
}

// Take claims a pending order for execution. A second Take on the same
// order loses the race and gets a conflict.
func (s *Service) Take(ctx context.Context, orderID, by uuid.UUID) error {
	if err := s.repo.Transition(ctx, orderID, orders.StatusPendiente, orders.StatusEnProceso, by, nil); err != nil {
		return err
	}
	s.logger.Info("order taken", "order_id", orderID, "trader", by)
	return nil
}

// Fill records executed prices for the order's items and completes it.
// Every item must receive a price.
func (s *Service) Fill(ctx context.Context, orderID, by uuid.UUID, prices map[uuid.UUID]float64) error {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != orders.StatusEnProceso {
		return httpx.ErrConflict
	}
	for _, it := range order.Items {
		if _, ok := prices[it.ID]; !ok {
			return httpx.ErrValidation
		}
	}
	if err := s.repo.FillItems(ctx, orderID, prices); err != nil {
		return err
	}
	if err := s.repo.Transition(ctx, orderID, orders.StatusEnProceso, orders.StatusCompletada, by, nil); err != nil {
		return err
	}
	s.logger.Info("order filled", "order_id", orderID, "trader", by, "items", len(prices))
	return nil
}

// Reject returns an in-process order to the client with a reason.
func (s *Service) Reject(ctx context.Context, orderID, by uuid.UUID, reason string) error {
	if err := s.repo.Transition(ctx, orderID, orders.StatusEnProceso, orders.StatusRechazada, by, &reason); err != nil {
		return err
	}
	s.logger.Info("order rejected", "order_id", orderID, "trader", by, "reason", reason)
	return nil
}
