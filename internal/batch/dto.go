package batch

// ReconcileRequest is the inbound bulk report.
type ReconcileRequest struct {
	OrderNumber string        `json:"numero_orden" validate:"required"`
	WarehouseID int64         `json:"warehouse_id,omitempty"`
	Entries     []ReportEntry `json:"lineas" validate:"required,min=1,dive"`
}

// ReconcileResponse reports the reconciliation outcome.
type ReconcileResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	OrderNumber    string `json:"numero_orden"`
	OrderStatus    string `json:"order_status"`
	LinesUpdated   int    `json:"lines_updated"`
	LinesCompleted int    `json:"lines_completed"`
	LinesPartial   int    `json:"lines_partial"`
	LinesPending   int    `json:"lines_pending"`
}
