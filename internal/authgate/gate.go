// Package authgate is the page-level authorization gate. For every protected
// navigation it runs one decision cycle: resolve the session to an identity
// and role, look up what the target path requires, and either let the request
// through or turn it away. Decisions are recomputed per request; nothing is
// trusted across navigations.
package authgate

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/mesa-ops/mesa/internal/auth"
	"github.com/mesa-ops/mesa/internal/platform/httpx"
	"github.com/mesa-ops/mesa/internal/rbac"
	"github.com/mesa-ops/mesa/internal/shared"
)

// State is the outcome of a single authorization cycle.
type State int

const (
	// StateAuthorized lets the navigation render.
	StateAuthorized State = iota
	// StateUnauthenticated sends the visitor to the login entry point. Also
	// covers resolution failures: an indeterminate check never grants access,
	// and login is the retry path.
	StateUnauthenticated
	// StateDenied means the session is valid but the role does not satisfy
	// the route requirement.
	StateDenied
)

func (s State) label() string {
	switch s {
	case StateAuthorized:
		return "authorized"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "denied"
	}
}

// Decision is the ephemeral result handed to the routing host.
type Decision struct {
	State          State
	Role           rbac.Role
	RedirectTarget string
}

// RedirectedFromParam carries the originally requested path through the login
// redirect so the client can return after authenticating.
const RedirectedFromParam = "redirectedFrom"

// Gate composes the session resolver, route map, and permission evaluator.
type Gate struct {
	Resolver *auth.Resolver
	Routes   *rbac.RouteMap
	Logger   *slog.Logger

	// LoginPath receives unauthenticated visitors; DeniedPath receives
	// authenticated visitors whose role fails the requirement.
	LoginPath  string
	DeniedPath string

	// RequireMapped closes the default fail-open policy for unmapped routes:
	// when set, a path with no registered requirement is only reachable by an
	// authenticated user.
	RequireMapped bool

	// Observe, when set, receives the outcome label of every decision.
	Observe func(outcome string)
}

// Decide runs one authorization cycle for the given request. It is pure with
// respect to the response: callers apply the decision.
func (g *Gate) Decide(r *http.Request) Decision {
	path := r.URL.Path
	req := g.Routes.Resolve(path)

	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		if req.Empty() && !g.RequireMapped {
			return Decision{State: StateAuthorized}
		}
		return Decision{State: StateUnauthenticated, RedirectTarget: g.loginRedirect(path)}
	}

	userID, err := uuid.Parse(sess.User())
	if err != nil {
		// A session that references a malformed user ID is unusable.
		return Decision{State: StateUnauthenticated, RedirectTarget: g.loginRedirect(path)}
	}

	role, err := g.Resolver.Resolve(r.Context(), userID, sess.Email())
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrUnknownRole):
		// Profile exists but its role is not in the static table: no
		// permissions, so only requirement-free routes remain reachable.
		role = ""
	default:
		if g.Logger != nil {
			g.Logger.Error("role resolution failed, treating as unauthenticated",
				slog.String("path", path),
				slog.Any("error", err))
		}
		return Decision{State: StateUnauthenticated, RedirectTarget: g.loginRedirect(path)}
	}

	if !req.Satisfied(role) {
		if g.Logger != nil {
			g.Logger.Warn("navigation denied",
				slog.String("path", path),
				slog.String("role", role.String()))
		}
		return Decision{State: StateDenied, Role: role, RedirectTarget: g.DeniedPath}
	}
	return Decision{State: StateAuthorized, Role: role}
}

// Middleware applies gate decisions to the request pipeline. Authorized
// requests proceed with the resolved identity in context; everything else is
// redirected (browsers) or answered with a problem document (API clients).
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := g.Decide(r)
		if g.Observe != nil {
			g.Observe(decision.State.label())
		}
		switch decision.State {
		case StateAuthorized:
			if decision.Role.Valid() {
				sess := shared.SessionFromContext(r.Context())
				identity := shared.Identity{Role: decision.Role}
				if sess != nil {
					if id, err := uuid.Parse(sess.User()); err == nil {
						identity.UserID = id
					}
					identity.Email = sess.Email()
				}
				r = r.WithContext(shared.ContextWithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		case StateUnauthenticated:
			if wantsJSON(r) {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			http.Redirect(w, r, decision.RedirectTarget, http.StatusSeeOther)
		case StateDenied:
			if wantsJSON(r) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "role does not allow access to this resource")
				return
			}
			http.Redirect(w, r, decision.RedirectTarget, http.StatusSeeOther)
		}
	})
}

// IdentityLookup adapts the gate's context identity for the rbac middleware.
func IdentityLookup(r *http.Request) (rbac.Role, bool) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		return "", false
	}
	return identity.Role, true
}

func (g *Gate) loginRedirect(from string) string {
	login := g.LoginPath
	if login == "" {
		login = "/auth/login"
	}
	return login + "?" + RedirectedFromParam + "=" + url.QueryEscape(from)
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
