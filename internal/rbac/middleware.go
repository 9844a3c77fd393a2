package rbac

import (
	"log/slog"
	"net/http"
)

// IdentityLookup reports the role for the current request, if the
// authorization gate resolved one. Defined here so the middleware does not
// depend on where the gate stores its result.
type IdentityLookup func(r *http.Request) (Role, bool)

// Middleware wires fine-grained authorization helpers for HTTP handlers. The
// page gate decides whether a navigation may happen at all; these guards sit
// on individual operations underneath it.
type Middleware struct {
	Identity IdentityLookup
	Logger   *slog.Logger
}

// RequireAny ensures the current role holds at least one of the listed
// permissions. With no permissions listed the guard is a no-op: an empty
// requirement is no requirement.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			role, ok := m.currentRole(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if HasAnyPermission(role, perms...) {
				next.ServeHTTP(w, r)
				return
			}
			m.logDenied(r, role, perms)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireAll ensures the current role holds every listed permission.
func (m Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			role, ok := m.currentRole(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if HasAllPermissions(role, perms...) {
				next.ServeHTTP(w, r)
				return
			}
			m.logDenied(r, role, perms)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

func (m Middleware) currentRole(r *http.Request) (Role, bool) {
	if m.Identity == nil {
		return "", false
	}
	role, ok := m.Identity(r)
	if !ok || !role.Valid() {
		return "", false
	}
	return role, true
}

func (m Middleware) logDenied(r *http.Request, role Role, perms []Permission) {
	if m.Logger == nil {
		return
	}
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = p.String()
	}
	m.Logger.Warn("permission denied",
		slog.String("path", r.URL.Path),
		slog.String("role", role.String()),
		slog.Any("required", names),
	)
}
