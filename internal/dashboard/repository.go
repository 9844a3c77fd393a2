package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository for dashboard queries.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) OrderCountsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT estado, COUNT(*) FROM ordenes GROUP BY estado`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{
		"pendiente":  0,
		"en_proceso": 0,
		"completada": 0,
		"cancelada":  0,
		"rechazada":  0,
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *repository) ActiveClientCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clientes WHERE activo`).Scan(&n)
	return n, err
}

func (r *repository) ActiveAssetCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activos WHERE activo`).Scan(&n)
	return n, err
}

func (r *repository) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, c.nombre, o.estado, COUNT(i.id), o.created_at
		FROM ordenes o
		JOIN clientes c ON c.id = o.cliente_id
		LEFT JOIN orden_items i ON i.orden_id = o.id
		GROUP BY o.id, c.nombre, o.estado, o.created_at
		ORDER BY o.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecentOrder
	for rows.Next() {
		var ro RecentOrder
		if err := rows.Scan(&ro.ID, &ro.ClientName, &ro.Status, &ro.Items, &ro.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ro)
	}
	return out, rows.Err()
}
