package clients

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesa-ops/mesa/internal/platform/httpx"
)

// Repository defines persistence operations for clients.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Client, int, error)
	Get(ctx context.Context, id uuid.UUID) (Client, error)
	Create(ctx context.Context, c Client) (Client, error)
	Update(ctx context.Context, c Client) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Upsert(ctx context.Context, c Client) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const clientColumns = `id, nombre, documento, email, cuenta, activo, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Client, int, error) {
	query := `SELECT ` + clientColumns + ` FROM clientes WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM clientes WHERE 1=1`
	args := []any{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		cond := ` AND (nombre ILIKE $` + strconv.Itoa(len(args)) + ` OR documento ILIKE $` + strconv.Itoa(len(args)) + `)`
		query += cond
		countQuery += cond
	}
	if filters.OnlyActive {
		query += ` AND activo`
		countQuery += ` AND activo`
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query += ` ORDER BY nombre LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Document, &c.Email, &c.Account, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Client, error) {
	var c Client
	err := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clientes WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Document, &c.Email, &c.Account, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, httpx.ErrNotFound
		}
		return Client{}, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, c Client) (Client, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clientes (id, nombre, documento, email, cuenta, activo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Document, c.Email, c.Account, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Client{}, httpx.ErrDuplicate
		}
		return Client{}, err
	}
	return c, nil
}

func (r *repository) Update(ctx context.Context, c Client) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE clientes
		SET nombre = $2, email = $3, cuenta = $4, updated_at = $5
		WHERE id = $1`,
		c.ID, c.Name, c.Email, c.Account, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE clientes SET activo = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Upsert keys on the client document so repeated imports converge.
func (r *repository) Upsert(ctx context.Context, c Client) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clientes (id, nombre, documento, email, cuenta, activo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
		ON CONFLICT (documento) DO UPDATE
		SET nombre = EXCLUDED.nombre, email = EXCLUDED.email, cuenta = EXCLUDED.cuenta, updated_at = EXCLUDED.updated_at`,
		c.ID, c.Name, c.Document, c.Email, c.Account, now,
	)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
