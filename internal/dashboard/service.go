package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Stats is the aggregate snapshot shown on the landing page.
type Stats struct {
	OrdersByStatus map[string]int `json:"orders_by_status"`
	ActiveClients  int            `json:"active_clients"`
	ActiveAssets   int            `json:"active_assets"`
	RecentOrders   []RecentOrder  `json:"recent_orders"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// RecentOrder is a trimmed order row for the activity feed.
type RecentOrder struct {
	ID         uuid.UUID `json:"id"`
	ClientName string    `json:"client_name"`
	Status     string    `json:"status"`
	Items      int       `json:"items"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository provides the individual aggregate queries.
type Repository interface {
	OrderCountsByStatus(ctx context.Context) (map[string]int, error)
	ActiveClientCount(ctx context.Context) (int, error)
	ActiveAssetCount(ctx context.Context) (int, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error)
}

// Service assembles dashboard statistics.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a dashboard service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

const recentOrderLimit = 10

// Stats gathers the four aggregates concurrently. One slow query should
// not serialize the whole page.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.repo.OrderCountsByStatus(ctx)
		if err != nil {
			return err
		}
		stats.OrdersByStatus = counts
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.ActiveClientCount(ctx)
		if err != nil {
			return err
		}
		stats.ActiveClients = n
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.ActiveAssetCount(ctx)
		if err != nil {
			return err
		}
		stats.ActiveAssets = n
		return nil
	})
	g.Go(func() error {
		recent, err := s.repo.RecentOrders(ctx, recentOrderLimit)
		if err != nil {
			return err
		}
		stats.RecentOrders = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	if stats.RecentOrders == nil {
		stats.RecentOrders = []RecentOrder{}
	}
	stats.GeneratedAt = time.Now().UTC()
	return stats, nil
}
