// Package scan implements the real-time picking channel used by handheld
// scanner devices. Wire field names follow the device protocol.
package scan

import "time"

// Inbound actions.
const (
	ActionScanProduct = "scan_product"
)

// Outbound actions.
const (
	ActionScanConfirmed = "scan_confirmed"
	ActionScanError     = "scan_error"
)

// Stable error codes emitted on the channel. Every rejection is retryable:
// the device corrects and resubmits, the channel stays open.
const (
	CodeMissingOrderNumber = "MISSING_ORDER_NUMBER"
	CodeMissingEAN         = "MISSING_EAN"
	CodeOrderNotFound      = "ORDER_NOT_FOUND"
	CodeOrderNotAssigned   = "ORDER_NOT_ASSIGNED"
	CodeOrderWrongStatus   = "ORDER_WRONG_STATUS"
	CodeEANNotInOrder      = "EAN_NOT_IN_ORDER"
	CodeMaxQuantityReached = "MAX_QUANTITY_REACHED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeUnknownAction      = "UNKNOWN_ACTION"
)

// Envelope is the inbound message frame.
type Envelope struct {
	Action string      `json:"action"`
	Data   ScanRequest `json:"data"`
}

// ScanRequest carries one physical scan event. Exactly one of OrderID or
// OrderNumber must be present; EAN is mandatory. Ubicacion is advisory.
type ScanRequest struct {
	OrderID     int64  `json:"order_id,omitempty"`
	OrderNumber string `json:"numero_orden,omitempty"`
	EAN         string `json:"ean"`
	Ubicacion   string `json:"ubicacion,omitempty"`
}

// Confirmation is the outbound frame for an accepted scan.
type Confirmation struct {
	Action string           `json:"action"`
	Data   ConfirmationData `json:"data"`
}

// ConfirmationData reports line and order progress after one scan.
type ConfirmationData struct {
	LineID          int64   `json:"line_id"`
	ProductName     string  `json:"descripcion_producto"`
	EAN             string  `json:"ean"`
	QtyServed       int     `json:"cantidad_servida"`
	QtyRequested    int     `json:"cantidad_solicitada"`
	QtyPending      int     `json:"cantidad_pendiente"`
	LineProgress    float64 `json:"progreso_linea"`
	OrderID         int64   `json:"order_id"`
	OrderNumber     string  `json:"numero_orden"`
	OrderTotal      int     `json:"total_items"`
	OrderCompleted  int     `json:"items_completados"`
	OrderProgress   float64 `json:"progreso_orden"`
	Message         string  `json:"message"`
	Timestamp       string  `json:"timestamp"`
	LocationScanned string  `json:"ubicacion,omitempty"`
}

// ErrorFrame is the outbound frame for a rejected scan.
type ErrorFrame struct {
	Action string    `json:"action"`
	Data   ErrorData `json:"data"`
}

// ErrorData carries the stable error code and retry hint.
type ErrorData struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	CanRetry  bool   `json:"can_retry"`
	Timestamp string `json:"timestamp"`
}

func newErrorFrame(code, message string) ErrorFrame {
	return ErrorFrame{
		Action: ActionScanError,
		Data: ErrorData{
			ErrorCode: code,
			Message:   message,
			CanRetry:  true,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}
