// Package picking provides the read-side advisors for order picking: the
// stock validator and the route optimizer. Both are side-effect free.
package picking

// ProductInfo is the catalog projection the advisors need.
type ProductInfo struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// LocationInfo describes the storage location resolved for a line.
type LocationInfo struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	Aisle        string `json:"aisle"`
	ShelfHeight  int    `json:"shelf_height"`
	PickPriority int    `json:"pick_priority"`
	StockQty     int    `json:"stock_qty"`
	Active       bool   `json:"active"`
}

// LineContext is one order line resolved to its product and storage location.
// Product and Location may be absent.
type LineContext struct {
	LineID       int64         `json:"line_id"`
	EAN          string        `json:"ean"`
	QtyRequested int           `json:"qty_requested"`
	Product      *ProductInfo  `json:"product,omitempty"`
	Location     *LocationInfo `json:"location,omitempty"`
}

// Issue severities.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Issue codes.
const (
	IssueNoLocation        = "no_location"
	IssueInsufficientStock = "insufficient_stock"
	IssueInactiveLocation  = "inactive_location"
	IssueInactiveProduct   = "inactive_product"
)

// Issue flags one problem found on a line.
type Issue struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// LineReport aggregates the issues of one line.
type LineReport struct {
	LineID  int64   `json:"line_id"`
	EAN     string  `json:"ean"`
	Issues  []Issue `json:"issues"`
	CanPick bool    `json:"can_pick"`
}

// ValidationReport is the order-level validation result. CanComplete is the
// conjunction of every line's CanPick.
type ValidationReport struct {
	OrderID     int64        `json:"order_id"`
	Lines       []LineReport `json:"lines"`
	CanComplete bool         `json:"can_complete"`
}

// Stop is one position in the optimized pick route.
type Stop struct {
	Seq            int    `json:"secuencia"`
	LineID         int64  `json:"line_id"`
	EAN            string `json:"ean"`
	ProductName    string `json:"product_name"`
	Qty            int    `json:"qty"`
	LocationCode   string `json:"location_code"`
	Aisle          string `json:"aisle"`
	ShelfHeight    int    `json:"shelf_height"`
	PickPriority   int    `json:"pick_priority"`
	AvailableStock int    `json:"available_stock"`
}

// Route is the optimized pick sequence for an order. Lines without an active
// location are excluded from the route and reported in Warnings.
type Route struct {
	OrderID          int64    `json:"order_id"`
	Stops            []Stop   `json:"stops"`
	Warnings         []string `json:"warnings,omitempty"`
	EstimatedMinutes float64  `json:"estimated_minutes"`
}
