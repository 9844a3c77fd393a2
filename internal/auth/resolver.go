package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/mesa-ops/mesa/internal/rbac"
	"github.com/mesa-ops/mesa/internal/shared"
)

// ErrUnknownRole marks a profile whose stored role string is not part of the
// recognized set. The account exists, so this is not an authentication
// failure; callers must treat it as a role with no permissions.
var ErrUnknownRole = errors.New("auth: profile role not recognized")

// ProfileStore is the read-only slice of the profile table the resolver needs.
type ProfileStore interface {
	RoleByID(ctx context.Context, id uuid.UUID) (string, error)
	RoleByEmail(ctx context.Context, email string) (string, error)
}

// Resolver turns a session's user ID into a validated role. Lookups go by ID
// first and fall back to the session e-mail when the ID row is missing.
// Resolved roles are cached in Redis for a short TTL, and concurrent
// resolutions for the same user are collapsed into one lookup, so the several
// components of a page render share a single round-trip.
//
// Every failure resolves to "no role": there is no privileged default.
type Resolver struct {
	store  ProfileStore
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewResolver constructs a Resolver. cache may be nil, which disables the TTL
// cache but keeps singleflight deduplication.
func NewResolver(store ProfileStore, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Resolver{store: store, cache: cache, ttl: ttl, logger: logger}
}

// Resolve returns the validated role for the given user ID. email may be
// empty; when present it enables the fallback lookup. Returns ErrUnknownRole
// for profiles carrying an unrecognized role string, shared.ErrNotFound when
// no profile row can be found at all.
func (rv *Resolver) Resolve(ctx context.Context, userID uuid.UUID, email string) (rbac.Role, error) {
	if rv.cache != nil {
		if cached, err := rv.cache.Get(ctx, rv.cacheKey(userID)).Result(); err == nil {
			if role, perr := rbac.ParseRole(cached); perr == nil {
				return role, nil
			}
			// Stale or corrupt entry, fall through to a real lookup.
			rv.cache.Del(ctx, rv.cacheKey(userID))
		}
	}

	result := rv.group.DoChan(userID.String(), func() (any, error) {
		return rv.lookup(context.WithoutCancel(ctx), userID, email)
	})

	select {
	case <-ctx.Done():
		// The navigation that asked for this resolution is gone; the shared
		// lookup keeps running for whoever else is waiting on it.
		return "", ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(rbac.Role), nil
	}
}

// Invalidate drops the cached role for a user, for example after an admin
// changes their role.
func (rv *Resolver) Invalidate(ctx context.Context, userID uuid.UUID) {
	if rv.cache == nil {
		return
	}
	rv.cache.Del(ctx, rv.cacheKey(userID))
}

func (rv *Resolver) lookup(ctx context.Context, userID uuid.UUID, email string) (rbac.Role, error) {
	raw, err := rv.store.RoleByID(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) && email != "" {
		if rv.logger != nil {
			rv.logger.Warn("profile lookup by id missed, retrying by email",
				slog.String("user_id", userID.String()))
		}
		raw, err = rv.store.RoleByEmail(ctx, email)
	}
	if err != nil {
		return "", fmt.Errorf("auth: resolve role: %w", err)
	}

	role, err := rbac.ParseRole(raw)
	if err != nil {
		if rv.logger != nil {
			rv.logger.Error("profile carries unrecognized role",
				slog.String("user_id", userID.String()),
				slog.String("role", raw))
		}
		return "", ErrUnknownRole
	}

	if rv.cache != nil {
		if err := rv.cache.Set(ctx, rv.cacheKey(userID), role.String(), rv.ttl).Err(); err != nil && rv.logger != nil {
			rv.logger.Warn("role cache write", slog.Any("error", err))
		}
	}
	return role, nil
}

func (rv *Resolver) cacheKey(userID uuid.UUID) string {
	return "role:" + userID.String()
}
