package assets

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mesa-ops/mesa/internal/platform/httpx"
)

// ImportEnqueuer queues a deferred asset import. Implemented by the jobs
// client; kept as an interface so the service stays queue-agnostic.
type ImportEnqueuer interface {
	EnqueueAssetImport(ctx context.Context, filename string, data []byte) (string, error)
}

// Service handles asset business logic.
type Service struct {
	repo     Repository
	enqueuer ImportEnqueuer
}

// NewService builds a Service instance. enqueuer may be nil when import is
// not wired (worker-side construction).
func NewService(repo Repository, enqueuer ImportEnqueuer) *Service {
	return &Service{repo: repo, enqueuer: enqueuer}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Asset, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Asset, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateAssetRequest) (Asset, error) {
	a := Asset{
		ID:       uuid.New(),
		Ticker:   strings.ToUpper(strings.TrimSpace(req.Ticker)),
		Name:     strings.TrimSpace(req.Name),
		Type:     Type(req.Type),
		Currency: strings.ToUpper(strings.TrimSpace(req.Currency)),
		Market:   strings.TrimSpace(req.Market),
		IsActive: true,
	}
	if !a.Type.Valid() {
		return Asset{}, fmt.Errorf("%w: unknown asset type %q", httpx.ErrValidation, req.Type)
	}
	return s.repo.Create(ctx, a)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateAssetRequest) (Asset, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Asset{}, err
	}
	if req.Name != nil {
		current.Name = strings.TrimSpace(*req.Name)
	}
	if req.Currency != nil {
		current.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
	}
	if req.Market != nil {
		current.Market = strings.TrimSpace(*req.Market)
	}
	if current.Name == "" {
		return Asset{}, fmt.Errorf("%w: name cannot be emptied", httpx.ErrValidation)
	}
	if err := s.repo.Update(ctx, current); err != nil {
		return Asset{}, err
	}
	return current, nil
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, false)
}

func (s *Service) Activate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, true)
}

// EnqueueImport hands a CSV file to the background importer and returns the
// queued task ID.
func (s *Service) EnqueueImport(ctx context.Context, filename string, data []byte) (string, error) {
	if s.enqueuer == nil {
		return "", fmt.Errorf("asset import queue not configured")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty import file", httpx.ErrValidation)
	}
	return s.enqueuer.EnqueueAssetImport(ctx, filename, data)
}
