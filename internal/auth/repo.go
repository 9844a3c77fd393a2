package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesa-ops/mesa/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	RoleByID(ctx context.Context, id uuid.UUID) (string, error)
	RoleByEmail(ctx context.Context, email string) (string, error)
	CreateSession(ctx context.Context, id string, userID uuid.UUID, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches an account by e-mail, case-insensitively.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	const query = `
		SELECT id, email, nombre, rol, password_hash, activo, created_at, updated_at
		FROM usuarios
		WHERE lower(email) = lower($1)`
	var acc Account
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&acc.ID, &acc.Email, &acc.Name, &acc.Role, &acc.PasswordHash,
		&acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// RoleByID looks up the stored role string for an active account ID.
func (r *PGRepository) RoleByID(ctx context.Context, id uuid.UUID) (string, error) {
	const query = `SELECT rol FROM usuarios WHERE id = $1 AND activo`
	var role string
	if err := r.pool.QueryRow(ctx, query, id).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return role, nil
}

// RoleByEmail is the resilience fallback for profiles whose ID drifted from
// the identity record. Reads only, like RoleByID.
func (r *PGRepository) RoleByEmail(ctx context.Context, email string) (string, error) {
	const query = `SELECT rol FROM usuarios WHERE lower(email) = lower($1) AND activo`
	var role string
	if err := r.pool.QueryRow(ctx, query, email).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return role, nil
}

// CreateSession persists a login session row for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID uuid.UUID, expiresAt time.Time, ip, ua string) error {
	const query = `
		INSERT INTO sesiones (id, user_id, created_at, expires_at, ip, ua)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`
	_, err := r.pool.Exec(ctx, query, id, userID, time.Now().UTC(), expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session audit row.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sesiones WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
