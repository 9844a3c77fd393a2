package shared

import (
	"context"

	"github.com/google/uuid"

	"github.com/mesa-ops/mesa/internal/rbac"
)

// Identity is the resolved actor for the current request: who the session
// belongs to and which role governs their permissions. It lives for one
// request only; nothing caches it across navigations.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   rbac.Role
}

type sessionContextKey struct{}

type identityContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithIdentity stores the resolved identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the resolved identity, if the authorization
// gate has run for this request.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
