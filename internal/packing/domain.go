// Package packing owns physical boxes and the line-to-box distribution ledger.
package packing

import (
	"errors"
	"time"
)

// Box is a physical packing container scoped to one order. TotalItems is kept
// equal to the sum of ledger rows referencing the box.
type Box struct {
	ID         int64     `json:"id"`
	OrderID    int64     `json:"order_id"`
	Seq        int       `json:"seq"`
	Code       string    `json:"code"`
	Closed     bool      `json:"closed"`
	TotalItems int       `json:"total_items"`
	CreatedAt  time.Time `json:"created_at"`
}

// Distribution records how many units of a line went into a specific box.
type Distribution struct {
	ID       int64     `json:"id"`
	LineID   int64     `json:"line_id"`
	BoxID    int64     `json:"box_id"`
	Qty      int       `json:"qty"`
	PackedAt time.Time `json:"packed_at"`
}

// BoxBreakdownRow is one (line, box) ledger row flattened for reporting.
type BoxBreakdownRow struct {
	EAN     string `json:"ean"`
	BoxCode string `json:"box_code"`
	Qty     int    `json:"qty"`
}

// Domain errors.
var (
	// ErrDistributionNotFound indicates no ledger row exists for (line, box).
	ErrDistributionNotFound = errors.New("distribution entry not found")
	// ErrBoxNotFound indicates the box does not exist.
	ErrBoxNotFound = errors.New("packing box not found")
	// ErrBoxOrderMismatch rejects reuse of a box code across orders.
	ErrBoxOrderMismatch = errors.New("box code belongs to a different order")
	// ErrNegativeQuantity rejects ledger writes below zero.
	ErrNegativeQuantity = errors.New("quantity in box cannot be negative")
)
