package orders

import "errors"

// Domain errors for fulfillment orders.
var (
	// ErrNotFound indicates the requested order was not found.
	ErrNotFound = errors.New("order not found")
	// ErrLineNotFound indicates the requested line was not found.
	ErrLineNotFound = errors.New("order line not found")
	// ErrOperatorNotFound indicates the operator does not exist.
	ErrOperatorNotFound = errors.New("operator not found")
	// ErrOperatorInactive indicates the operator is deactivated.
	ErrOperatorInactive = errors.New("operator is not active")

	// ErrUnknownStatus rejects a status code outside the fixed vocabulary.
	ErrUnknownStatus = errors.New("unknown order status")
	// ErrTerminalStatus rejects transitions out of SHIPPED or CANCELLED.
	ErrTerminalStatus = errors.New("order is in a terminal status")
)
