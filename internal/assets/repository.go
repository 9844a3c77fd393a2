package assets

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

// Repository defines persistence operations for assets.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Asset, int, error)
	Get(ctx context.Context, id uuid.UUID) (Asset, error)
	GetByTicker(ctx context.Context, ticker string) (Asset, error)
	Create(ctx context.Context, a Asset) (Asset, error)
	Update(ctx context.Context, a Asset) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Upsert(ctx context.Context, a Asset) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const assetColumns = `id, ticker, nombre, tipo, moneda, mercado, activo, created_at, updated_at`

func scanAsset(row pgx.Row) (Asset, error) {
	var a Asset
	err := row.Scan(&a.ID, &a.Ticker, &a.Name, &a.Type, &a.Currency, &a.Market, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Asset, int, error) {
	query := `SELECT ` + assetColumns + ` FROM activos WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM activos WHERE 1=1`
	args := []any{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		cond := ` AND (ticker ILIKE $` + strconv.Itoa(len(args)) + ` OR nombre ILIKE $` + strconv.Itoa(len(args)) + `)`
		query += cond
		countQuery += cond
	}
	if filters.Type != "" {
		args = append(args, filters.Type)
		cond := ` AND tipo = $` + strconv.Itoa(len(args))
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
		perPage = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query += ` ORDER BY ticker LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Asset, error) {
	a, err := scanAsset(r.pool.QueryRow(ctx, `SELECT `+assetColumns+` FROM activos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, httpx.ErrNotFound
		}
		return Asset{}, err
	}
	return a, nil
}

func (r *repository) GetByTicker(ctx context.Context, ticker string) (Asset, error) {
	a, err := scanAsset(r.pool.QueryRow(ctx, `SELECT `+assetColumns+` FROM activos WHERE upper(ticker) = upper($1)`, ticker))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, httpx.ErrNotFound
		}
		return Asset{}, err
	}
	return a, nil
}

func (r *repository) Create(ctx context.Context, a Asset) (Asset, error) {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activos (id, ticker, nombre, tipo, moneda, mercado, activo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Ticker, a.Name, a.Type, a.Currency, a.Market, a.IsActive, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Asset{}, httpx.ErrDuplicate
		}
		return Asset{}, err
	}
	return a, nil
}

func (r *repository) Update(ctx context.Context, a Asset) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE activos
		SET nombre = $2, moneda = $3, mercado = $4, updated_at = $5
		WHERE id = $1`,
		a.ID, a.Name, a.Currency, a.Market, time.Now().UTC(),
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
		`UPDATE activos SET activo = $2, updated_at = $3 WHERE id = $1`,
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

// Upsert keys on the ticker so repeated imports converge.
func (r *repository) Upsert(ctx context.Context, a Asset) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activos (id, ticker, nombre, tipo, moneda, mercado, activo, created_at, updated_at)
		VALUES ($1, upper($2), $3, $4, $5, $6, TRUE, $7, $7)
		ON CONFLICT (ticker) DO UPDATE
		SET nombre = EXCLUDED.nombre, tipo = EXCLUDED.tipo, moneda = EXCLUDED.moneda,
		    mercado = EXCLUDED.mercado, updated_at = EXCLUDED.updated_at`,
		a.ID, a.Ticker, a.Name, a.Type, a.Currency, a.Market, now,
	)
	return err
}
