// Package replenishment moves stock between warehouse locations to satisfy
// shortage requests, on a lifecycle independent from orders.
package replenishment

import "time"

// Status represents the lifecycle of a transfer request.
type Status string

const (
	StatusWaitingStock Status = "WAITING_STOCK" // Created, origin stock not yet available
	StatusReady        Status = "READY"         // Origin assigned with sufficient stock
	StatusInProgress   Status = "IN_PROGRESS"   // An operator is executing the transfer
	StatusCompleted    Status = "COMPLETED"     // Stock moved, terminal
	StatusRejected     Status = "REJECTED"      // Abandoned with a reason, terminal
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Request is one transfer task.
type Request struct {
	ID               int64      `json:"id"`
	Status           Status     `json:"status"`
	Priority         string     `json:"priority"`
	Qty              int        `json:"qty"`
	ProductID        int64      `json:"product_id"`
	OriginLocationID *int64     `json:"origin_location_id,omitempty"`
	DestLocationID   int64      `json:"dest_location_id"`
	RequestedBy      int64      `json:"requested_by"`
	ExecutorID       *int64     `json:"executor_id,omitempty"`
	OrderID          *int64     `json:"order_id,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// Location is the stock-bearing view of a warehouse location.
type Location struct {
	ID       int64  `json:"id"`
	Aisle    string `json:"aisle"`
	StockQty int    `json:"stock_qty"`
	Active   bool   `json:"active"`
}

// StockSnapshot captures origin and destination stock around a completed
// transfer. Total stock is conserved: only redistributed between the two.
type StockSnapshot struct {
	OriginBefore int `json:"origin_before"`
	OriginAfter  int `json:"origin_after"`
	DestBefore   int `json:"dest_before"`
	DestAfter    int `json:"dest_after"`
}
