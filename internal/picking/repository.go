package picking

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository resolves order lines to products and storage locations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// OrderLineContexts loads every line of the order joined to its product and
// the product's pick location in the order's warehouse.
func (r *Repository) OrderLineContexts(ctx context.Context, orderID int64) ([]LineContext, error) {
	rows, err := r.pool.Query(ctx, `SELECT ol.id, ol.ean, ol.qty_requested,
p.id, p.name, p.active,
loc.id, loc.code, loc.aisle, loc.shelf_height, loc.pick_priority, loc.stock_qty, loc.active
FROM order_lines ol
JOIN orders o ON o.id = ol.order_id
LEFT JOIN products p ON p.id = ol.product_id
LEFT JOIN locations loc ON loc.product_id = p.id AND loc.warehouse_id = o.warehouse_id
WHERE ol.order_id=$1
ORDER BY ol.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contexts []LineContext
	for rows.Next() {
		var (
			lc       LineContext
			pID      *int64
			pName    *string
			pActive  *bool
			locID    *int64
			locCode  *string
			locAisle *string
			height   *int
			priority *int
			stock    *int
			active   *bool
		)
		if err := rows.Scan(&lc.LineID, &lc.EAN, &lc.QtyRequested,
			&pID, &pName, &pActive,
			&locID, &locCode, &locAisle, &height, &priority, &stock, &active); err != nil {
			return nil, err
		}
		if pID != nil {
			lc.Product = &ProductInfo{ID: *pID, Name: *pName, Active: *pActive}
		}
		if locID != nil {
			lc.Location = &LocationInfo{
				ID:           *locID,
				Code:         *locCode,
				Aisle:        *locAisle,
				ShelfHeight:  *height,
				PickPriority: *priority,
				StockQty:     *stock,
				Active:       *active,
			}
		}
		contexts = append(contexts, lc)
	}
	return contexts, rows.Err()
}
