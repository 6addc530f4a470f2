package replenishment

// StartRequest names the operator executing the transfer.
type StartRequest struct {
	ExecutorID int64 `json:"executor_id" validate:"required"`
}

// RejectRequest carries the rejection reason.
type RejectRequest struct {
	Notes string `json:"notes" validate:"required"`
}

// DetailResponse wraps a transfer request.
type DetailResponse struct {
	Request Request `json:"request"`
}

// CompleteResponse reports the executed transfer and the stock movement.
type CompleteResponse struct {
	Request Request       `json:"request"`
	Stock   StockSnapshot `json:"stock"`
}
