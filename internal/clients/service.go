package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mesa-ops/mesa/internal/platform/httpx"
)

// ImportEnqueuer queues a deferred client import. Implemented by the jobs
// client.
type ImportEnqueuer interface {
	EnqueueClientImport(ctx context.Context, filename string, data []byte) (string, error)
}

// Service handles client business logic.
type Service struct {
	repo     Repository
	enqueuer ImportEnqueuer
}

// NewService builds a Service instance.
func NewService(repo Repository, enqueuer ImportEnqueuer) *Service {
	return &Service{repo: repo, enqueuer: enqueuer}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Client, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateClientRequest) (Client, error) {
	c := Client{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(req.Name),
		Document: strings.TrimSpace(req.Document),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Account:  strings.TrimSpace(req.Account),
		IsActive: true,
	}
	if c.Name == "" || c.Document == "" {
		return Client{}, fmt.Errorf("%w: name and document are required", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateClientRequest) (Client, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Client{}, err
	}
	if req.Name != nil {
		current.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		current.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Account != nil {
		current.Account = strings.TrimSpace(*req.Account)
	}
	if current.Name == "" {
		return Client{}, fmt.Errorf("%w: name cannot be emptied", httpx.ErrValidation)
	}
	if err := s.repo.Update(ctx, current); err != nil {
		return Client{}, err
	}
	return current, nil
}

// Deactivate hides a client from new order flows without losing history.
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
		return "", fmt.Errorf("client import queue not configured")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty import file", httpx.ErrValidation)
	}
	return s.enqueuer.EnqueueClientImport(ctx, filename, data)
}
