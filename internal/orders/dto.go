package orders

// AssignRequest asks to hand an order to an operator.
type AssignRequest struct {
	OperatorID int64 `json:"operator_id" validate:"required,gt=0"`
	ActorID    int64 `json:"actor_id" validate:"required,gt=0"`
}

// StatusRequest asks to move an order to a target status.
type StatusRequest struct {
	Status  string `json:"status" validate:"required"`
	ActorID int64  `json:"actor_id" validate:"required,gt=0"`
	Reason  string `json:"reason,omitempty" validate:"max=500"`
}

// ListResponse is the paginated listing payload.
type ListResponse struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// DetailResponse is the order detail payload.
type DetailResponse struct {
	Order   Order          `json:"order"`
	History []StatusChange `json:"history,omitempty"`
}
