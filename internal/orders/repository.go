package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-wms/meridian-wms/internal/platform/db"
	"github.com/meridian-wms/meridian-wms/internal/shared"
)

// Repository persists orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	SetStatus(ctx context.Context, orderID int64, status Status, stamps StatusStamps) error
	AppendHistory(ctx context.Context, change StatusChange) error
	AssignOperator(ctx context.Context, orderID, operatorID int64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a RepeatableRead transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("orders repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const orderColumns = `id, order_number, customer_code, warehouse_id, operator_id, status, priority, order_type,
total_items, items_completed, created_at, first_viewed_at, picking_started_at, picking_ended_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerCode, &o.WarehouseID, &o.OperatorID,
		&o.Status, &o.Priority, &o.OrderType, &o.TotalItems, &o.ItemsCompleted,
		&o.CreatedAt, &o.FirstViewedAt, &o.PickingStartedAt, &o.PickingEndedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// GetByID loads an order with its lines.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	order.Lines, err = r.getLines(ctx, order.ID)
	return order, err
}

// GetByNumber loads an order by its external number with its lines.
func (r *Repository) GetByNumber(ctx context.Context, number string) (*Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number=$1`, number))
	if err != nil {
		return nil, err
	}
	order.Lines, err = r.getLines(ctx, order.ID)
	return order, err
}

func (r *Repository) getLines(ctx context.Context, orderID int64) ([]Line, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, product_id, ean, qty_requested, qty_served, state, box_id, packed_at
FROM order_lines WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.EAN, &l.QtyRequested, &l.QtyServed, &l.State, &l.BoxID, &l.PackedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ListFilter narrows the order listing.
type ListFilter struct {
	WarehouseID  int64
	Status       *Status
	Priority     *Priority
	CustomerCode string
	Search       string
	Limit        int
	Offset       int
}

// List returns matching orders and the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	where := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.WarehouseID != 0 {
		where = append(where, "warehouse_id="+arg(filter.WarehouseID))
	}
	if filter.Status != nil {
		where = append(where, "status="+arg(string(*filter.Status)))
	}
	if filter.Priority != nil {
		where = append(where, "priority="+arg(string(*filter.Priority)))
	}
	if filter.CustomerCode != "" {
		where = append(where, "customer_code="+arg(filter.CustomerCode))
	}
	if filter.Search != "" {
		where = append(where, "order_number ILIKE "+arg("%"+filter.Search+"%"))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + cond +
		` ORDER BY CASE priority WHEN 'URGENT' THEN 0 WHEN 'HIGH' THEN 1 ELSE 2 END, created_at` +
		` LIMIT ` + arg(limit) + ` OFFSET ` + arg(filter.Offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var result []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *o)
	}
	return result, total, rows.Err()
}

// GetHistory returns the transition history, oldest first.
func (r *Repository) GetHistory(ctx context.Context, orderID int64) ([]StatusChange, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, prev_status, next_status, actor_id, reason, at
FROM order_status_history WHERE order_id=$1 ORDER BY at, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []StatusChange
	for rows.Next() {
		var c StatusChange
		if err := rows.Scan(&c.ID, &c.OrderID, &c.PrevStatus, &c.NextStatus, &c.ActorID, &c.Reason, &c.At); err != nil {
			return nil, err
		}
		history = append(history, c)
	}
	return history, rows.Err()
}

// GetOperator loads an operator by id.
func (r *Repository) GetOperator(ctx context.Context, id int64) (*shared.Operator, error) {
	var op shared.Operator
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, active FROM operators WHERE id=$1`, id).
		Scan(&op.ID, &op.Code, &op.Name, &op.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, err
	}
	return &op, nil
}

// StampFirstViewed records the first time the customer saw the order. A later
// view never overwrites the original timestamp.
func (r *Repository) StampFirstViewed(ctx context.Context, orderID int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE orders SET first_viewed_at=$2 WHERE id=$1 AND first_viewed_at IS NULL`, orderID, at)
	return err
}

func (r *txRepository) SetStatus(ctx context.Context, orderID int64, status Status, stamps StatusStamps) error {
	_, err := r.tx.Exec(ctx, `UPDATE orders SET status=$2,
picking_started_at=COALESCE(picking_started_at, $3),
picking_ended_at=COALESCE(picking_ended_at, $4)
WHERE id=$1`, orderID, string(status), stamps.PickingStarted, stamps.PickingEnded)
	return err
}

func (r *txRepository) AppendHistory(ctx context.Context, change StatusChange) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO order_status_history (order_id, prev_status, next_status, actor_id, reason, at)
VALUES ($1,$2,$3,$4,$5,$6)`, change.OrderID, string(change.PrevStatus), string(change.NextStatus), change.ActorID, change.Reason, change.At)
	return err
}

func (r *txRepository) AssignOperator(ctx context.Context, orderID, operatorID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE orders SET operator_id=$2 WHERE id=$1`, orderID, operatorID)
	return err
}
