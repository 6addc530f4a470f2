// Package orders models fulfillment orders, their lines, and the status lifecycle.
package orders

import (
	"time"
)

// Status represents the lifecycle of a fulfillment order.
type Status string

const (
	StatusPending   Status = "PENDING"    // Received, waiting for an operator
	StatusAssigned  Status = "ASSIGNED"   // Operator assigned
	StatusInPicking Status = "IN_PICKING" // Operator scanning units
	StatusPicked    Status = "PICKED"     // All units picked
	StatusPacking   Status = "PACKING"    // Being packed into boxes
	StatusReady     Status = "READY"      // Ready for shipment
	StatusShipped   Status = "SHIPPED"    // Left the warehouse
	StatusCancelled Status = "CANCELLED"  // Cancelled, terminal
)

// IsValid checks if the status belongs to the fixed vocabulary.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInPicking, StatusPicked,
		StatusPacking, StatusReady, StatusShipped, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusShipped || s == StatusCancelled
}

// CanCancel reports whether the order may still be cancelled.
func (s Status) CanCancel() bool {
	return !s.IsTerminal()
}

// Priority orders urgency of fulfillment.
type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// OrderType distinguishes business and consumer orders.
type OrderType string

const (
	TypeB2B OrderType = "B2B"
	TypeB2C OrderType = "B2C"
)

// LineState represents the lifecycle of a single order line, independent from
// the order status.
type LineState string

const (
	LinePending     LineState = "PENDING"
	LinePartial     LineState = "PARTIAL"
	LineCompleted   LineState = "COMPLETED"
	LineAutoCreated LineState = "AUTO_CREATED" // materialised by batch reconciliation
)

// LineStateFor derives the line state from its quantities.
func LineStateFor(served, requested int) LineState {
	switch {
	case requested > 0 && served >= requested:
		return LineCompleted
	case served > 0:
		return LinePartial
	default:
		return LinePending
	}
}

// Order is one fulfillment unit. TotalItems and ItemsCompleted are unit
// counts (sums of requested/served quantities across lines), not line counts.
type Order struct {
	ID               int64      `json:"id"`
	OrderNumber      string     `json:"order_number"`
	CustomerCode     string     `json:"customer_code"`
	WarehouseID      int64      `json:"warehouse_id"`
	OperatorID       *int64     `json:"operator_id,omitempty"`
	Status           Status     `json:"status"`
	Priority         Priority   `json:"priority"`
	OrderType        OrderType  `json:"order_type"`
	TotalItems       int        `json:"total_items"`
	ItemsCompleted   int        `json:"items_completed"`
	CreatedAt        time.Time  `json:"created_at"`
	FirstViewedAt    *time.Time `json:"first_viewed_at,omitempty"`
	PickingStartedAt *time.Time `json:"picking_started_at,omitempty"`
	PickingEndedAt   *time.Time `json:"picking_ended_at,omitempty"`
	Lines            []Line     `json:"lines,omitempty"`
}

// Locked reports whether the picking-end timestamp is set. A locked order
// permanently rejects further batch reconciliation.
func (o *Order) Locked() bool {
	return o.PickingEndedAt != nil
}

// Progress returns the completed percentage over total units.
func (o *Order) Progress() float64 {
	if o.TotalItems == 0 {
		return 0
	}
	return float64(o.ItemsCompleted) / float64(o.TotalItems) * 100
}

// Line is one product entry within an order. At most one line exists per
// (order, product) pair.
type Line struct {
	ID           int64      `json:"id"`
	OrderID      int64      `json:"order_id"`
	ProductID    *int64     `json:"product_id,omitempty"`
	EAN          string     `json:"ean"`
	QtyRequested int        `json:"qty_requested"`
	QtyServed    int        `json:"qty_served"`
	State        LineState  `json:"state"`
	BoxID        *int64     `json:"box_id,omitempty"` // legacy single-box reference
	PackedAt     *time.Time `json:"packed_at,omitempty"`
}

// Complete reports whether the line served its full requested quantity.
func (l *Line) Complete() bool {
	return l.QtyRequested > 0 && l.QtyServed >= l.QtyRequested
}

// Progress returns the served percentage for the line.
func (l *Line) Progress() float64 {
	if l.QtyRequested == 0 {
		return 0
	}
	return float64(l.QtyServed) / float64(l.QtyRequested) * 100
}

// StatusChange is an immutable history record of one order transition.
type StatusChange struct {
	ID         int64     `json:"id"`
	OrderID    int64     `json:"order_id"`
	PrevStatus Status    `json:"prev_status"`
	NextStatus Status    `json:"next_status"`
	ActorID    int64     `json:"actor_id"`
	Reason     string    `json:"reason,omitempty"`
	At         time.Time `json:"at"`
}

// StatusStamps carries the timestamps a transition may set.
type StatusStamps struct {
	PickingStarted *time.Time
	PickingEnded   *time.Time
}

// StampsFor computes which timestamps a transition into target must set.
// Picking start/end are stamped once and never overwritten.
func (o *Order) StampsFor(target Status, now time.Time) StatusStamps {
	var stamps StatusStamps
	if target == StatusInPicking && o.PickingStartedAt == nil {
		stamps.PickingStarted = &now
	}
	if target == StatusPicked && o.PickingEndedAt == nil {
		stamps.PickingEnded = &now
	}
	return stamps
}
