package users

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesa-ops/mesa/internal/platform/httpx"
	"github.com/mesa-ops/mesa/internal/rbac"
)

// RoleInvalidator drops a user's cached role so permission changes take
// effect on the next request instead of after the cache TTL.
type RoleInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// Service implements operator account management.
type Service struct {
	repo        Repository
	invalidator RoleInvalidator
	logger      *slog.Logger
}

// NewService constructs a user management service.
func NewService(repo Repository, invalidator RoleInvalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, invalidator: invalidator, logger: logger}
}

// List returns accounts matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	return s.repo.List(ctx, filters)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create provisions a new account. The role string must parse to a known
// role; legacy aliases are accepted and stored in canonical form.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (User, error) {
	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		return User{}, httpx.ErrValidation
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user := User{
		ID:       uuid.New(),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Name:     req.Name,
		Role:     string(role),
		IsActive: true,
	}
	if err := s.repo.Create(ctx, user, string(hash)); err != nil {
		return User{}, err
	}
	s.logger.Info("user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Update edits name and role. A role change invalidates the cached role so
// the new permissions apply on the user's next request.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	roleChanged := false
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		role, err := rbac.ParseRole(*req.Role)
		if err != nil {
			return User{}, httpx.ErrValidation
		}
		roleChanged = user.Role != string(role)
		user.Role = string(role)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	if roleChanged {
		s.invalidator.Invalidate(ctx, id)
		s.logger.Info("user role changed", "user_id", id, "role", user.Role)
	}
	return user, nil
}

// SetPassword replaces the account password.
func (s *Service) SetPassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.SetPassword(ctx, id, string(hash))
}

// Deactivate disables an account and drops its cached role.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.invalidator.Invalidate(ctx, id)
	s.logger.Info("user deactivated", "user_id", id)
	return nil
}

// Activate re-enables an account.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return err
	}
	s.invalidator.Invalidate(ctx, id)
	return nil
}
