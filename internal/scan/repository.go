package scan

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-wms/meridian-wms/internal/orders"
	"github.com/meridian-wms/meridian-wms/internal/shared"
)

// Repository persists scan progress in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetOperatorByCode(ctx context.Context, code string) (*shared.Operator, error) {
	var op shared.Operator
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, active FROM operators WHERE code=$1`, code).
		Scan(&op.ID, &op.Code, &op.Name, &op.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, orders.ErrOperatorNotFound
		}
		return nil, err
	}
	return &op, nil
}

func (r *Repository) ResolveOrder(ctx context.Context, id int64, number string) (*OrderView, error) {
	query := `SELECT id, order_number, status, operator_id, total_items, items_completed FROM orders WHERE `
	var row pgx.Row
	if id != 0 {
		row = r.pool.QueryRow(ctx, query+`id=$1`, id)
	} else {
		row = r.pool.QueryRow(ctx, query+`order_number=$1`, number)
	}
	var view OrderView
	err := row.Scan(&view.ID, &view.Number, &view.Status, &view.OperatorID, &view.TotalItems, &view.ItemsCompleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, orders.ErrNotFound
		}
		return nil, err
	}
	return &view, nil
}

func (r *Repository) GetLine(ctx context.Context, orderID int64, ean string) (*LineView, error) {
	var view LineView
	err := r.pool.QueryRow(ctx, `SELECT ol.id, COALESCE(p.name, ''), ol.ean, ol.qty_requested, ol.qty_served
FROM order_lines ol
LEFT JOIN products p ON p.id = ol.product_id
WHERE ol.order_id=$1 AND ol.ean=$2`, orderID, ean).
		Scan(&view.ID, &view.ProductName, &view.EAN, &view.QtyRequested, &view.QtyServed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, orders.ErrLineNotFound
		}
		return nil, err
	}
	return &view, nil
}

// ApplyScan persists one unit scan. Both updates are direct increments so
// concurrent scans on other lines of the same order never clobber the
// aggregate counter.
func (r *Repository) ApplyScan(ctx context.Context, lineID, orderID int64, newState orders.LineState) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `UPDATE order_lines SET qty_served = qty_served + 1, state=$2,
packed_at = CASE WHEN $2 = 'COMPLETED' THEN NOW() ELSE packed_at END
WHERE id=$1`, lineID, string(newState)); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET items_completed = items_completed + 1 WHERE id=$1`, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
