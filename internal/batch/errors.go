package batch

import "errors"

// Domain errors for the reconciliation flow.
var (
	// ErrAlreadyReady rejects a report for an order already marked READY.
	ErrAlreadyReady = errors.New("order is already READY")
	// ErrOrderLocked rejects a report for an order whose picking-end timestamp
	// is set. Reconciliation is allowed exactly once per order.
	ErrOrderLocked = errors.New("order was already updated")
	// ErrWarehouseAccess rejects a report for an order outside the caller's
	// warehouse.
	ErrWarehouseAccess = errors.New("no access to the order's warehouse")
	// ErrEmptyReport rejects a report with no entries.
	ErrEmptyReport = errors.New("report contains no entries")
	// ErrNotifyFailed indicates the external packing system did not accept the
	// notification; the local transaction is rolled back.
	ErrNotifyFailed = errors.New("external packing notification failed")
)
