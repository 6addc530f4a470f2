package packing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"time"
)

// Repository reads boxes and ledger rows outside any transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListBoxes returns the boxes of an order ordered by sequence.
func (r *Repository) ListBoxes(ctx context.Context, orderID int64) ([]Box, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, seq, code, closed, total_items, created_at
FROM packing_boxes WHERE order_id=$1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var boxes []Box
	for rows.Next() {
		var b Box
		if err := rows.Scan(&b.ID, &b.OrderID, &b.Seq, &b.Code, &b.Closed, &b.TotalItems, &b.CreatedAt); err != nil {
			return nil, err
		}
		boxes = append(boxes, b)
	}
	return boxes, rows.Err()
}

// BoxBreakdown flattens the ledger of an order into (ean, box_code, qty) rows
// with quantity above zero, in ledger insertion order.
func (r *Repository) BoxBreakdown(ctx context.Context, orderID int64) ([]BoxBreakdownRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT l.ean, b.code, d.qty
FROM line_box_distributions d
JOIN order_lines l ON l.id = d.line_id
JOIN packing_boxes b ON b.id = d.box_id
WHERE l.order_id=$1 AND d.qty > 0
ORDER BY d.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []BoxBreakdownRow
	for rows.Next() {
		var row BoxBreakdownRow
		if err := rows.Scan(&row.EAN, &row.BoxCode, &row.Qty); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// TxRepo implements TxPort over a pgx transaction. Other modules wrap their
// transaction with NewTxRepo to share it with the ledger.
type TxRepo struct {
	tx pgx.Tx
}

// NewTxRepo wraps an open transaction.
func NewTxRepo(tx pgx.Tx) *TxRepo {
	return &TxRepo{tx: tx}
}

func (r *TxRepo) GetDistribution(ctx context.Context, lineID, boxID int64) (Distribution, error) {
	var d Distribution
	err := r.tx.QueryRow(ctx, `SELECT id, line_id, box_id, qty, packed_at
FROM line_box_distributions WHERE line_id=$1 AND box_id=$2`, lineID, boxID).
		Scan(&d.ID, &d.LineID, &d.BoxID, &d.Qty, &d.PackedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Distribution{}, ErrDistributionNotFound
		}
		return Distribution{}, err
	}
	return d, nil
}

func (r *TxRepo) InsertDistribution(ctx context.Context, d Distribution) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO line_box_distributions (line_id, box_id, qty, packed_at)
VALUES ($1,$2,$3,$4) RETURNING id`, d.LineID, d.BoxID, d.Qty, d.PackedAt).Scan(&id)
	return id, err
}

func (r *TxRepo) UpdateDistribution(ctx context.Context, id int64, qty int, packedAt time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE line_box_distributions SET qty=$2, packed_at=$3 WHERE id=$1`, id, qty, packedAt)
	return err
}

func (r *TxRepo) AddToBoxTotal(ctx context.Context, boxID int64, delta int) error {
	_, err := r.tx.Exec(ctx, `UPDATE packing_boxes SET total_items = total_items + $2 WHERE id=$1`, boxID, delta)
	return err
}

func (r *TxRepo) SumForLine(ctx context.Context, lineID int64) (int, error) {
	var total int
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(qty), 0) FROM line_box_distributions WHERE line_id=$1`, lineID).Scan(&total)
	return total, err
}

func (r *TxRepo) GetBoxByCode(ctx context.Context, code string) (*Box, error) {
	var b Box
	err := r.tx.QueryRow(ctx, `SELECT id, order_id, seq, code, closed, total_items, created_at
FROM packing_boxes WHERE code=$1`, code).
		Scan(&b.ID, &b.OrderID, &b.Seq, &b.Code, &b.Closed, &b.TotalItems, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBoxNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *TxRepo) NextBoxSeq(ctx context.Context, orderID int64) (int, error) {
	var seq int
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM packing_boxes WHERE order_id=$1`, orderID).Scan(&seq)
	return seq, err
}

func (r *TxRepo) InsertBox(ctx context.Context, box Box) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO packing_boxes (order_id, seq, code, closed, total_items, created_at)
VALUES ($1,$2,$3,$4,0,NOW()) RETURNING id`, box.OrderID, box.Seq, box.Code, box.Closed).Scan(&id)
	return id, err
}
