package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func staticIdentity(role Role, ok bool) IdentityLookup {
	return func(*http.Request) (Role, bool) {
		return role, ok
	}
}

func runGuard(t *testing.T, guard func(http.Handler) http.Handler) int {
	t.Helper()
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	res := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	guard(next).ServeHTTP(res, req)
	if res.Code == http.StatusOK && !called {
		t.Fatal("200 without reaching the handler")
	}
	return res.Code
}

func TestRequireAnyAllowsMatchingRole(t *testing.T) {
	m := Middleware{Identity: staticIdentity(RoleOperador, true)}
	if code := runGuard(t, m.RequireAny(PermExecuteOrder)); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyDeniesMissingPermission(t *testing.T) {
	m := Middleware{Identity: staticIdentity(RoleControlador, true)}
	if code := runGuard(t, m.RequireAny(PermExecuteOrder)); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyDeniesWithoutIdentity(t *testing.T) {
	m := Middleware{Identity: staticIdentity("", false)}
	if code := runGuard(t, m.RequireAny(PermViewOrder)); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyDeniesUnrecognizedRole(t *testing.T) {
	m := Middleware{Identity: staticIdentity(Role("ghost"), true)}
	if code := runGuard(t, m.RequireAny(PermViewOrder)); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAllChecksEveryPermission(t *testing.T) {
	m := Middleware{Identity: staticIdentity(RoleOperador, true)}
	if code := runGuard(t, m.RequireAll(PermViewTrading, PermExecuteOrder)); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := runGuard(t, m.RequireAll(PermViewTrading, PermManageUsers)); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestEmptyGuardIsNoRequirement(t *testing.T) {
	m := Middleware{Identity: staticIdentity("", false)}
	if code := runGuard(t, m.RequireAny()); code != http.StatusOK {
		t.Fatalf("RequireAny() must pass through, got %d", code)
	}
	if code := runGuard(t, m.RequireAll()); code != http.StatusOK {
		t.Fatalf("RequireAll() must pass through, got %d", code)
	}
}
