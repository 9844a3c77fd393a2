package orders

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesa-ops/mesa/internal/platform/db"
	"github.com/mesa-ops/mesa/internal/platform/httpx"
)

// Repository defines persistence operations for orders.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]OrderWithClient, int, error)
	Get(ctx context.Context, id uuid.UUID) (Order, error)
	Create(ctx context.Context, order Order) error
	UpdatePending(ctx context.Context, order Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Transition moves an order from one status to another atomically,
	// returning httpx.ErrConflict when the order is no longer in the
	// expected source status.
	Transition(ctx context.Context, id uuid.UUID, from, to Status, by uuid.UUID, reason *string) error
	FillItems(ctx context.Context, orderID uuid.UUID, prices map[uuid.UUID]float64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const orderColumns = `id, cliente_id, observaciones, estado, created_by, executed_by, executed_at, reject_reason, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]OrderWithClient, int, error) {
	query := `
		SELECT o.id, o.cliente_id, o.observaciones, o.estado, o.created_by, o.executed_by,
		       o.executed_at, o.reject_reason, o.created_at, o.updated_at, c.nombre
		FROM ordenes o
		JOIN clientes c ON c.id = o.cliente_id
		WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM ordenes o WHERE 1=1`
	args := []any{}

	if filters.ClientID != nil {
		args = append(args, *filters.ClientID)
		cond := ` AND o.cliente_id = $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		cond := ` AND o.estado = $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
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
	query += ` ORDER BY o.created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []OrderWithClient
	for rows.Next() {
		var o OrderWithClient
		if err := rows.Scan(
			&o.ID, &o.ClientID, &o.Notes, &o.Status, &o.CreatedBy, &o.ExecutedBy,
			&o.ExecutedAt, &o.RejectReason, &o.CreatedAt, &o.UpdatedAt, &o.ClientName,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	var o Order
	err := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM ordenes WHERE id = $1`, id).Scan(
		&o.ID, &o.ClientID, &o.Notes, &o.Status, &o.CreatedBy, &o.ExecutedBy,
		&o.ExecutedAt, &o.RejectReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, httpx.ErrNotFound
		}
		return Order{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, orden_id, activo_id, lado, cantidad, precio_limite, precio_ejecucion
		FROM orden_items WHERE orden_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.AssetID, &it.Side, &it.Quantity, &it.LimitPrice, &it.ExecutedPrice); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

func (r *repository) Create(ctx context.Context, order Order) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, `
			INSERT INTO ordenes (id, cliente_id, observaciones, estado, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)`,
			order.ID, order.ClientID, order.Notes, order.Status, order.CreatedBy, now,
		); err != nil {
			return err
		}
		return insertItems(ctx, tx, order.ID, order.Items, now)
	})
}

// UpdatePending rewrites notes and items of an order still in pendiente.
func (r *repository) UpdatePending(ctx context.Context, order Order) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		tag, err := tx.Exec(ctx, `
			UPDATE ordenes SET observaciones = $2, updated_at = $3
			WHERE id = $1 AND estado = 'pendiente'`,
			order.ID, order.Notes, now,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrConflict
		}
		if order.Items == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM orden_items WHERE orden_id = $1`, order.ID); err != nil {
			return err
		}
		return insertItems(ctx, tx, order.ID, order.Items, now)
	})
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM orden_items WHERE orden_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM ordenes WHERE id = $1 AND estado = 'pendiente'`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrConflict
		}
		return nil
	})
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, from, to Status, by uuid.UUID, reason *string) error {
	now := time.Now().UTC()
	var executedBy *uuid.UUID
	var executedAt *time.Time
	if to == StatusEnProceso || to == StatusCompletada {
		executedBy = &by
		executedAt = &now
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE ordenes
		SET estado = $2,
		    executed_by = COALESCE($4, executed_by),
		    executed_at = COALESCE($5, executed_at),
		    reject_reason = COALESCE($6, reject_reason),
		    updated_at = $7
		WHERE id = $1 AND estado = $3`,
		id, to, from, executedBy, executedAt, reason, now,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the order is gone or it already left the expected status.
		if _, gerr := r.Get(ctx, id); errors.Is(gerr, httpx.ErrNotFound) {
			return httpx.ErrNotFound
		}
		return httpx.ErrConflict
	}
	return nil
}

func (r *repository) FillItems(ctx context.Context, orderID uuid.UUID, prices map[uuid.UUID]float64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for itemID, price := range prices {
			tag, err := tx.Exec(ctx, `
				UPDATE orden_items SET precio_ejecucion = $3
				WHERE id = $1 AND orden_id = $2`,
				itemID, orderID, price,
			)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return httpx.ErrNotFound
			}
		}
		return nil
	})
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []Item, now time.Time) error {
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO orden_items (id, orden_id, activo_id, lado, cantidad, precio_limite, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, orderID, it.AssetID, it.Side, it.Quantity, it.LimitPrice, now,
		); err != nil {
			return err
		}
	}
	return nil
}
