package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesa-ops/mesa/internal/auth"
	"github.com/mesa-ops/mesa/internal/shared"
)

type stubRepo struct {
	account *auth.Account
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	if s.account == nil {
		return nil, shared.ErrNotFound
	}
	return s.account, nil
}

func (s *stubRepo) RoleByID(ctx context.Context, id uuid.UUID) (string, error) {
	if s.account == nil || s.account.ID != id {
		return "", shared.ErrNotFound
	}
	return s.account.Role, nil
}

func (s *stubRepo) RoleByEmail(ctx context.Context, email string) (string, error) {
	if s.account == nil {
		return "", shared.ErrNotFound
	}
	return s.account.Role, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID uuid.UUID, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func newHandler(t *testing.T, repo *stubRepo) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	resolver := auth.NewResolver(repo, client, time.Minute, nil)
	handler := auth.NewHandler(discardLogger(), auth.NewService(repo), resolver, sessions, csrf)
	return handler, sessions
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doLogin(t *testing.T, handler *auth.Handler, sessions *shared.SessionManager, body string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessions.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	mux := chi.NewRouter()
	handler.MountRoutes(mux)
	rooted := chi.NewRouter()
	rooted.Mount("/auth", mux)
	rooted.ServeHTTP(res, req)
	if err := sessions.Commit(ctx, res, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return res, sess
}

func TestLoginSuccess(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correcthorse"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	account := &auth.Account{
		ID:           uuid.New(),
		Email:        "desk@mesa.local",
		Name:         "Desk User",
		Role:         "comercial",
		PasswordHash: string(hashed),
		IsActive:     true,
	}
	handler, sessions := newHandler(t, &stubRepo{account: account})

	res, sess := doLogin(t, handler, sessions, `{"email":"desk@mesa.local","password":"correcthorse"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var payload struct {
		User struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.User.Role != "comercial" {
		t.Fatalf("expected role comercial, got %q", payload.User.Role)
	}
	if payload.CSRFToken == "" {
		t.Fatal("expected a csrf token")
	}
	if sess.User() != account.ID.String() {
		t.Fatalf("session user not set, got %q", sess.User())
	}
	if sess.Email() != account.Email {
		t.Fatalf("session email not set, got %q", sess.Email())
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correcthorse"), bcrypt.DefaultCost)
	account := &auth.Account{
		ID:           uuid.New(),
		Email:        "desk@mesa.local",
		Role:         "comercial",
		PasswordHash: string(hashed),
		IsActive:     true,
	}
	handler, sessions := newHandler(t, &stubRepo{account: account})

	res, sess := doLogin(t, handler, sessions, `{"email":"desk@mesa.local","password":"wrongpassword"}`)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if sess.User() != "" {
		t.Fatal("failed login must not attach a user to the session")
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correcthorse"), bcrypt.DefaultCost)
	account := &auth.Account{
		ID:           uuid.New(),
		Email:        "desk@mesa.local",
		Role:         "comercial",
		PasswordHash: string(hashed),
		IsActive:     false,
	}
	handler, sessions := newHandler(t, &stubRepo{account: account})

	res, _ := doLogin(t, handler, sessions, `{"email":"desk@mesa.local","password":"correcthorse"}`)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive account, got %d", res.Code)
	}
}

func TestLoginValidation(t *testing.T) {
	handler, sessions := newHandler(t, &stubRepo{})

	res, _ := doLogin(t, handler, sessions, `{"email":"not-an-email","password":"short"}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}
