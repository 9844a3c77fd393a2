package users

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesa-ops/mesa/internal/platform/httpx"
)

type mockRepo struct {
	users     map[uuid.UUID]User
	passwords map[uuid.UUID]string
	byEmail   map[string]uuid.UUID
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		users:     make(map[uuid.UUID]User),
		passwords: make(map[uuid.UUID]string),
		byEmail:   make(map[string]uuid.UUID),
	}
}

func (m *mockRepo) List(ctx context.Context, f ListFilters) ([]User, int, error) {
	var out []User
	for _, u := range m.users {
		if f.OnlyActive && !u.IsActive {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *mockRepo) Get(ctx context.Context, id uuid.UUID) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, httpx.ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) Create(ctx context.Context, user User, hash string) error {
	if _, taken := m.byEmail[user.Email]; taken {
		return httpx.ErrDuplicate
	}
	m.users[user.ID] = user
	m.passwords[user.ID] = hash
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *mockRepo) Update(ctx context.Context, user User) error {
	if _, ok := m.users[user.ID]; !ok {
		return httpx.ErrNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return httpx.ErrNotFound
	}
	u.IsActive = active
	m.users[id] = u
	return nil
}

func (m *mockRepo) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	if _, ok := m.users[id]; !ok {
		return httpx.ErrNotFound
	}
	m.passwords[id] = hash
	return nil
}

type mockInvalidator struct {
	calls []uuid.UUID
}

func (m *mockInvalidator) Invalidate(ctx context.Context, userID uuid.UUID) {
	m.calls = append(m.calls, userID)
}

func newTestService(repo Repository, inv RoleInvalidator) *Service {
	return NewService(repo, inv, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateCanonicalizesRole(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockInvalidator{})

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "Ana.Gomez@Mesa.example  ",
		Name:     "Ana Gómez",
		Password: "correct horse",
		Role:     "Trader",
	})
	require.NoError(t, err)

	assert.Equal(t, "ana.gomez@mesa.example", user.Email)
	assert.Equal(t, "operador", user.Role, "legacy alias stored canonically")
	assert.True(t, user.IsActive)

	hash := repo.passwords[user.ID]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse")))
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockInvalidator{})

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "x@mesa.example",
		Name:     "X",
		Password: "12345678",
		Role:     "superuser",
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockInvalidator{})

	req := CreateUserRequest{Email: "dup@mesa.example", Name: "Uno", Password: "12345678", Role: "comercial"}
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	req.Name = "Dos"
	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestUpdateRoleInvalidatesCache(t *testing.T) {
	repo := newMockRepo()
	inv := &mockInvalidator{}
	svc := newTestService(repo, inv)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "op@mesa.example", Name: "Op", Password: "12345678", Role: "operador",
	})
	require.NoError(t, err)

	role := "controlador"
	updated, err := svc.Update(context.Background(), user.ID, UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "controlador", updated.Role)
	assert.Equal(t, []uuid.UUID{user.ID}, inv.calls)
}

func TestUpdateSameRoleSkipsInvalidation(t *testing.T) {
	repo := newMockRepo()
	inv := &mockInvalidator{}
	svc := newTestService(repo, inv)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "op@mesa.example", Name: "Op", Password: "12345678", Role: "operador",
	})
	require.NoError(t, err)

	name := "Nuevo Nombre"
	role := "operador"
	updated, err := svc.Update(context.Background(), user.ID, UpdateUserRequest{Name: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Empty(t, inv.calls)
}

func TestUpdateRejectsUnknownRole(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockInvalidator{})

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "op@mesa.example", Name: "Op", Password: "12345678", Role: "operador",
	})
	require.NoError(t, err)

	bad := "root"
	_, err = svc.Update(context.Background(), user.ID, UpdateUserRequest{Role: &bad})
	assert.ErrorIs(t, err, httpx.ErrValidation)
	got, _ := repo.Get(context.Background(), user.ID)
	assert.Equal(t, "operador", got.Role)
}

func TestDeactivateInvalidatesCache(t *testing.T) {
	repo := newMockRepo()
	inv := &mockInvalidator{}
	svc := newTestService(repo, inv)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "op@mesa.example", Name: "Op", Password: "12345678", Role: "admin",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), user.ID))
	got, _ := repo.Get(context.Background(), user.ID)
	assert.False(t, got.IsActive)
	assert.Equal(t, []uuid.UUID{user.ID}, inv.calls)
}

func TestSetPasswordRehashes(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockInvalidator{})

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "op@mesa.example", Name: "Op", Password: "old password", Role: "comercial",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetPassword(context.Background(), user.ID, "new password"))
	hash := repo.passwords[user.ID]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("new password")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("old password")))
}
