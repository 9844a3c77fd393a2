package authgate_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mesa-ops/mesa/internal/auth"
	"github.com/mesa-ops/mesa/internal/authgate"
	"github.com/mesa-ops/mesa/internal/rbac"
	"github.com/mesa-ops/mesa/internal/shared"
)

type stubProfiles struct {
	byID    map[uuid.UUID]string
	byEmail map[string]string
	err     error
}

func (s *stubProfiles) RoleByID(ctx context.Context, id uuid.UUID) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	role, ok := s.byID[id]
	if !ok {
		return "", shared.ErrNotFound
	}
	return role, nil
}

func (s *stubProfiles) RoleByEmail(ctx context.Context, email string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	role, ok := s.byEmail[email]
	if !ok {
		return "", shared.ErrNotFound
	}
	return role, nil
}

type fixture struct {
	gate     *authgate.Gate
	sessions *shared.SessionManager
}

func newFixture(t *testing.T, store *stubProfiles) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return fixture{
		gate: &authgate.Gate{
			Resolver:   auth.NewResolver(store, client, time.Minute, nil),
			Routes:     rbac.DefaultRouteMap(),
			LoginPath:  "/auth/login",
			DeniedPath: "/access-denied",
		},
		sessions: shared.NewSessionManager(client, "test_session", "secret", time.Hour, false),
	}
}

// request builds a browser-style request, optionally carrying an
// authenticated session for the given user.
func (f fixture) request(t *testing.T, path string, userID *uuid.UUID, email string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	sess, err := f.sessions.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if userID != nil {
		sess.SetUser(userID.String(), email)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func serve(gate *authgate.Gate, req *http.Request) (*httptest.ResponseRecorder, *shared.Identity) {
	var captured *shared.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := shared.IdentityFromContext(r.Context()); ok {
			captured = &id
		}
		w.WriteHeader(http.StatusOK)
	})
	res := httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(res, req)
	return res, captured
}

func TestAnonymousProtectedRouteRedirectsToLogin(t *testing.T) {
	f := newFixture(t, &stubProfiles{})

	res, _ := serve(f.gate, f.request(t, "/dashboard", nil, ""))
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	loc, err := url.Parse(res.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Path != "/auth/login" {
		t.Fatalf("expected login redirect, got %q", loc.Path)
	}
	if got := loc.Query().Get(authgate.RedirectedFromParam); got != "/dashboard" {
		t.Fatalf("expected redirectedFrom=/dashboard, got %q", got)
	}
}

func TestAnonymousJSONClientGets401(t *testing.T) {
	f := newFixture(t, &stubProfiles{})

	req := f.request(t, "/dashboard", nil, "")
	req.Header.Set("Accept", "application/json")
	res, _ := serve(f.gate, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestComercialDeniedOnAdmin(t *testing.T) {
	id := uuid.New()
	f := newFixture(t, &stubProfiles{byID: map[uuid.UUID]string{id: "comercial"}})

	res, _ := serve(f.gate, f.request(t, "/admin", &id, "c@mesa.local"))
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/access-denied" {
		t.Fatalf("expected access-denied redirect, got %q", loc)
	}
}

func TestAdminAuthorizedOnAdmin(t *testing.T) {
	id := uuid.New()
	f := newFixture(t, &stubProfiles{byID: map[uuid.UUID]string{id: "admin"}})

	res, identity := serve(f.gate, f.request(t, "/admin", &id, "a@mesa.local"))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if identity == nil {
		t.Fatal("authorized request must carry an identity in context")
	}
	if identity.Role != rbac.RoleAdmin {
		t.Fatalf("expected admin identity, got %q", identity.Role)
	}
	if identity.UserID != id {
		t.Fatalf("identity user mismatch: %s", identity.UserID)
	}
}

func TestEmailFallbackAuthorizesTrader(t *testing.T) {
	id := uuid.New()
	f := newFixture(t, &stubProfiles{
		byID:    map[uuid.UUID]string{},
		byEmail: map[string]string{"trader@mesa.local": "trader"},
	})

	res, identity := serve(f.gate, f.request(t, "/trading", &id, "trader@mesa.local"))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 via email fallback, got %d", res.Code)
	}
	if identity == nil || identity.Role != rbac.RoleOperador {
		t.Fatalf("expected operador identity, got %+v", identity)
	}
}

func TestResolverFailureFailsClosed(t *testing.T) {
	id := uuid.New()
	f := newFixture(t, &stubProfiles{err: errors.New("identity provider unreachable")})

	res, _ := serve(f.gate, f.request(t, "/dashboard", &id, "x@mesa.local"))
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	loc, _ := url.Parse(res.Header().Get("Location"))
	if loc.Path != "/auth/login" {
		t.Fatalf("lookup failure must land on login for retry, got %q", loc.Path)
	}
}

func TestUnmappedRouteIsOpenByDefault(t *testing.T) {
	f := newFixture(t, &stubProfiles{})

	res, _ := serve(f.gate, f.request(t, "/public-info", nil, ""))
	if res.Code != http.StatusOK {
		t.Fatalf("unmapped route should render, got %d", res.Code)
	}
}

func TestRequireMappedClosesUnmappedRoutes(t *testing.T) {
	f := newFixture(t, &stubProfiles{})
	f.gate.RequireMapped = true

	res, _ := serve(f.gate, f.request(t, "/public-info", nil, ""))
	if res.Code != http.StatusSeeOther {
		t.Fatalf("RequireMapped should close unmapped routes, got %d", res.Code)
	}
}

func TestUnknownProfileRoleHasNoPermissions(t *testing.T) {
	id := uuid.New()
	f := newFixture(t, &stubProfiles{byID: map[uuid.UUID]string{id: "superuser"}})

	// Mapped route: denied, not unauthenticated; the session itself is fine.
	res, _ := serve(f.gate, f.request(t, "/dashboard", &id, "s@mesa.local"))
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/access-denied" {
		t.Fatalf("expected access-denied, got %q", loc)
	}

	// Requirement-free route stays reachable.
	res, _ = serve(f.gate, f.request(t, "/public-info", &id, "s@mesa.local"))
	if res.Code != http.StatusOK {
		t.Fatalf("requirement-free route should render, got %d", res.Code)
	}
}

func TestDecisionIsRecomputedPerRequest(t *testing.T) {
	id := uuid.New()
	store := &stubProfiles{byID: map[uuid.UUID]string{id: "admin"}}
	f := newFixture(t, store)
	f.gate.Resolver = auth.NewResolver(store, nil, time.Minute, nil)

	res, _ := serve(f.gate, f.request(t, "/admin", &id, "a@mesa.local"))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	// Role change takes effect on the next navigation; no decision is carried
	// over from the previous one.
	store.byID[id] = "controlador"
	res, _ = serve(f.gate, f.request(t, "/admin", &id, "a@mesa.local"))
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 after role change, got %d", res.Code)
	}
}
