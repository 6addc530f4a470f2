package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-wms/meridian-wms/internal/orders"
	"github.com/meridian-wms/meridian-wms/internal/packing"
	"github.com/meridian-wms/meridian-wms/internal/platform/db"
)

// TxRepository is the transactional surface of one reconciliation call. It
// embeds the packing ledger port so ledger writes share the transaction.
type TxRepository interface {
	packing.TxPort

	GetOrderByNumberForUpdate(ctx context.Context, number string) (*orders.Order, error)
	GetLines(ctx context.Context, orderID int64) ([]orders.Line, error)
	GetProductIDByEAN(ctx context.Context, ean string) (int64, bool, error)
	InsertAutoProduct(ctx context.Context, ean string) (int64, error)
	InsertLine(ctx context.Context, line orders.Line) (int64, error)
	UpdateLine(ctx context.Context, line orders.Line) error
	SetLineBox(ctx context.Context, lineID, boxID int64) error
	FinishOrder(ctx context.Context, orderID int64, status orders.Status, totalItems, itemsCompleted int, lockedAt time.Time) error
	AppendHistory(ctx context.Context, change orders.StatusChange) error
	OrderBreakdown(ctx context.Context, orderID int64) ([]packing.BoxBreakdownRow, error)
}

// Repository opens reconciliation transactions against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs the callback inside one RepeatableRead transaction. The whole
// reconciliation, including the external notification, commits or rolls back
// as a unit.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{TxRepo: packing.NewTxRepo(tx), tx: tx})
	})
}

type txRepository struct {
	*packing.TxRepo
	tx pgx.Tx
}

func (r *txRepository) GetOrderByNumberForUpdate(ctx context.Context, number string) (*orders.Order, error) {
	var o orders.Order
	err := r.tx.QueryRow(ctx, `SELECT id, order_number, customer_code, warehouse_id, operator_id, status, priority, order_type,
total_items, items_completed, created_at, first_viewed_at, picking_started_at, picking_ended_at
FROM orders WHERE order_number=$1 FOR UPDATE`, number).
		Scan(&o.ID, &o.OrderNumber, &o.CustomerCode, &o.WarehouseID, &o.OperatorID,
			&o.Status, &o.Priority, &o.OrderType, &o.TotalItems, &o.ItemsCompleted,
			&o.CreatedAt, &o.FirstViewedAt, &o.PickingStartedAt, &o.PickingEndedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, orders.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *txRepository) GetLines(ctx context.Context, orderID int64) ([]orders.Line, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, order_id, product_id, ean, qty_requested, qty_served, state, box_id, packed_at
FROM order_lines WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []orders.Line
	for rows.Next() {
		var l orders.Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.EAN, &l.QtyRequested, &l.QtyServed, &l.State, &l.BoxID, &l.PackedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *txRepository) GetProductIDByEAN(ctx context.Context, ean string) (int64, bool, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `SELECT id FROM products WHERE ean=$1`, ean).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

// InsertAutoProduct materialises an unknown SKU. Auto-created products carry a
// synthetic name, the EAN as reference, and the AUTO season marker.
func (r *txRepository) InsertAutoProduct(ctx context.Context, ean string) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO products (ean, name, reference, season, active, created_at)
VALUES ($1, $2, $1, 'AUTO', TRUE, NOW()) RETURNING id`, ean, fmt.Sprintf("Producto %s", ean)).Scan(&id)
	return id, err
}

func (r *txRepository) InsertLine(ctx context.Context, line orders.Line) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO order_lines (order_id, product_id, ean, qty_requested, qty_served, state, packed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		line.OrderID, line.ProductID, line.EAN, line.QtyRequested, line.QtyServed, string(line.State), line.PackedAt).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateLine(ctx context.Context, line orders.Line) error {
	_, err := r.tx.Exec(ctx, `UPDATE order_lines SET qty_requested=$2, qty_served=$3, state=$4, packed_at=$5 WHERE id=$1`,
		line.ID, line.QtyRequested, line.QtyServed, string(line.State), line.PackedAt)
	return err
}

func (r *txRepository) SetLineBox(ctx context.Context, lineID, boxID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE order_lines SET box_id=$2 WHERE id=$1`, lineID, boxID)
	return err
}

// FinishOrder writes the reconciliation outcome: resulting status, recomputed
// unit totals, and the picking-end lock timestamp.
func (r *txRepository) FinishOrder(ctx context.Context, orderID int64, status orders.Status, totalItems, itemsCompleted int, lockedAt time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE orders SET status=$2, total_items=$3, items_completed=$4, picking_ended_at=$5 WHERE id=$1`,
		orderID, string(status), totalItems, itemsCompleted, lockedAt)
	return err
}

func (r *txRepository) AppendHistory(ctx context.Context, change orders.StatusChange) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO order_status_history (order_id, prev_status, next_status, actor_id, reason, at)
VALUES ($1,$2,$3,$4,$5,$6)`, change.OrderID, string(change.PrevStatus), string(change.NextStatus), change.ActorID, change.Reason, change.At)
	return err
}

func (r *txRepository) OrderBreakdown(ctx context.Context, orderID int64) ([]packing.BoxBreakdownRow, error) {
	rows, err := r.tx.Query(ctx, `SELECT l.ean, b.code, d.qty
FROM line_box_distributions d
JOIN order_lines l ON l.id = d.line_id
JOIN packing_boxes b ON b.id = d.box_id
WHERE l.order_id=$1 AND d.qty > 0
ORDER BY d.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []packing.BoxBreakdownRow
	for rows.Next() {
		var row packing.BoxBreakdownRow
		if err := rows.Scan(&row.EAN, &row.BoxCode, &row.Qty); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
