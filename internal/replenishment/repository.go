package replenishment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-wms/meridian-wms/internal/platform/db"
	"github.com/meridian-wms/meridian-wms/internal/shared"
)

// TxRepository exposes the transactional operations the service needs.
type TxRepository interface {
	GetRequestForUpdate(ctx context.Context, id int64) (*Request, error)
	GetOperator(ctx context.Context, id int64) (*shared.Operator, error)
	GetLocationForUpdate(ctx context.Context, id int64) (*Location, error)
	AdjustStock(ctx context.Context, locationID int64, delta int, at time.Time) error
	MarkInProgress(ctx context.Context, id, executorID int64, at time.Time) error
	MarkCompleted(ctx context.Context, id int64, at time.Time) error
	MarkRejected(ctx context.Context, id int64, notes string, at time.Time) error
}

// Repository persists transfer requests in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a RepeatableRead transaction. Each
// lifecycle operation is one transaction; a failed precondition leaves no
// partial stock mutation.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const requestColumns = `id, status, priority, qty, product_id, origin_location_id, dest_location_id,
requested_by, executor_id, order_id, notes, created_at, started_at, completed_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.Status, &req.Priority, &req.Qty, &req.ProductID,
		&req.OriginLocationID, &req.DestLocationID, &req.RequestedBy, &req.ExecutorID,
		&req.OrderID, &req.Notes, &req.CreatedAt, &req.StartedAt, &req.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// GetByID loads a request outside any transaction.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Request, error) {
	return scanRequest(r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM replenishment_requests WHERE id=$1`, id))
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetRequestForUpdate(ctx context.Context, id int64) (*Request, error) {
	return scanRequest(r.tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM replenishment_requests WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) GetOperator(ctx context.Context, id int64) (*shared.Operator, error) {
	var op shared.Operator
	err := r.tx.QueryRow(ctx, `SELECT id, code, name, active FROM operators WHERE id=$1`, id).
		Scan(&op.ID, &op.Code, &op.Name, &op.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExecutorNotFound
		}
		return nil, err
	}
	return &op, nil
}

func (r *txRepository) GetLocationForUpdate(ctx context.Context, id int64) (*Location, error) {
	var loc Location
	err := r.tx.QueryRow(ctx, `SELECT id, aisle, stock_qty, active FROM locations WHERE id=$1 FOR UPDATE`, id).
		Scan(&loc.ID, &loc.Aisle, &loc.StockQty, &loc.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return &loc, nil
}

func (r *txRepository) AdjustStock(ctx context.Context, locationID int64, delta int, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE locations SET stock_qty = stock_qty + $2, last_stock_update=$3 WHERE id=$1`,
		locationID, delta, at)
	return err
}

func (r *txRepository) MarkInProgress(ctx context.Context, id, executorID int64, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE replenishment_requests SET status=$2, executor_id=$3, started_at=$4 WHERE id=$1`,
		id, string(StatusInProgress), executorID, at)
	return err
}

func (r *txRepository) MarkCompleted(ctx context.Context, id int64, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE replenishment_requests SET status=$2, completed_at=$3 WHERE id=$1`,
		id, string(StatusCompleted), at)
	return err
}

func (r *txRepository) MarkRejected(ctx context.Context, id int64, notes string, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE replenishment_requests SET status=$2, notes=$3, completed_at=$4 WHERE id=$1`,
		id, string(StatusRejected), notes, at)
	return err
}
