package replenishment

import "errors"

// Domain errors.
var (
	// ErrRequestNotFound indicates the transfer request does not exist.
	ErrRequestNotFound = errors.New("replenishment request not found")
	// ErrWrongStatus rejects an operation from an incompatible status.
	ErrWrongStatus = errors.New("request status does not allow this operation")
	// ErrNoOrigin rejects starting a request without an assigned origin.
	ErrNoOrigin = errors.New("request has no origin location assigned")
	// ErrInsufficientStock rejects a transfer the origin cannot cover.
	ErrInsufficientStock = errors.New("insufficient stock at origin location")
	// ErrLocationNotFound indicates a referenced location does not exist.
	ErrLocationNotFound = errors.New("location not found")
	// ErrExecutorNotFound indicates the executing operator does not exist.
	ErrExecutorNotFound = errors.New("executing operator not found")
	// ErrExecutorInactive rejects execution by a deactivated operator.
	ErrExecutorInactive = errors.New("executing operator is not active")
)
