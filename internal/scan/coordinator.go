package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-wms/meridian-wms/internal/orders"
	"github.com/meridian-wms/meridian-wms/internal/shared"
)

// OrderView is the order projection a scan needs.
type OrderView struct {
	ID             int64
	Number         string
	Status         orders.Status
	OperatorID     *int64
	TotalItems     int
	ItemsCompleted int
}

// LineView is the line projection a scan needs.
type LineView struct {
	ID           int64
	ProductName  string
	EAN          string
	QtyRequested int
	QtyServed    int
}

// RepositoryPort abstracts persistence for the coordinator.
type RepositoryPort interface {
	GetOperatorByCode(ctx context.Context, code string) (*shared.Operator, error)
	ResolveOrder(ctx context.Context, id int64, number string) (*OrderView, error)
	GetLine(ctx context.Context, orderID int64, ean string) (*LineView, error)
	// ApplyScan persists one scan: served quantity +1 on the line, state set
	// to newState, and the order's completed-units counter incremented by one
	// directly. The counter is never recomputed from a sum, so concurrent
	// scans on different lines of the same order cannot lose updates.
	ApplyScan(ctx context.Context, lineID, orderID int64, newState orders.LineState) error
}

// MetricsPort counts scan outcomes.
type MetricsPort interface {
	ScanAccepted()
	ScanRejected(code string)
}

// Coordinator processes scan events one at a time per operator channel.
type Coordinator struct {
	logger  *slog.Logger
	repo    RepositoryPort
	metrics MetricsPort
}

// NewCoordinator builds Coordinator.
func NewCoordinator(logger *slog.Logger, repo RepositoryPort, metrics MetricsPort) *Coordinator {
	return &Coordinator{logger: logger, repo: repo, metrics: metrics}
}

// Operator resolves and authorizes the connecting operator.
func (c *Coordinator) Operator(ctx context.Context, code string) (*shared.Operator, error) {
	op, err := c.repo.GetOperatorByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !op.Active {
		return nil, fmt.Errorf("%w: %s", orders.ErrOperatorInactive, code)
	}
	return op, nil
}

// Handle processes one raw inbound frame and always returns a frame to write
// back. Errors never close the channel: rejections carry a stable code and
// can_retry, unexpected failures are logged and reported as INTERNAL_ERROR.
func (c *Coordinator) Handle(ctx context.Context, operator *shared.Operator, raw []byte) any {
	frame, err := c.handle(ctx, operator, raw)
	if err != nil {
		c.logger.Error("scan handling failed",
			slog.String("operator", operator.Code),
			slog.Any("error", err))
		return c.reject(CodeInternalError, "unexpected error, please retry")
	}
	return frame
}

func (c *Coordinator) handle(ctx context.Context, operator *shared.Operator, raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return c.reject(CodeUnknownAction, "malformed message"), nil
	}
	if env.Action != ActionScanProduct {
		return c.reject(CodeUnknownAction, fmt.Sprintf("unsupported action %q", env.Action)), nil
	}

	req := env.Data
	if req.OrderID == 0 && req.OrderNumber == "" {
		return c.reject(CodeMissingOrderNumber, "order_id or numero_orden is required"), nil
	}
	if req.EAN == "" {
		return c.reject(CodeMissingEAN, "ean is required"), nil
	}

	order, err := c.repo.ResolveOrder(ctx, req.OrderID, req.OrderNumber)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return c.reject(CodeOrderNotFound, "order not found"), nil
		}
		return nil, err
	}
	if order.OperatorID == nil || *order.OperatorID != operator.ID {
		return c.reject(CodeOrderNotAssigned, fmt.Sprintf("order %s is not assigned to you", order.Number)), nil
	}
	if order.Status != orders.StatusInPicking {
		return c.reject(CodeOrderWrongStatus, fmt.Sprintf("order %s is %s, expected IN_PICKING", order.Number, order.Status)), nil
	}

	line, err := c.repo.GetLine(ctx, order.ID, req.EAN)
	if err != nil {
		if errors.Is(err, orders.ErrLineNotFound) {
			return c.reject(CodeEANNotInOrder, fmt.Sprintf("EAN %s is not part of order %s", req.EAN, order.Number)), nil
		}
		return nil, err
	}
	if line.QtyServed >= line.QtyRequested {
		return c.reject(CodeMaxQuantityReached, fmt.Sprintf("line already served %d of %d", line.QtyServed, line.QtyRequested)), nil
	}

	// One scan confirms exactly one physical unit.
	served := line.QtyServed + 1
	newState := orders.LineStateFor(served, line.QtyRequested)
	if err := c.repo.ApplyScan(ctx, line.ID, order.ID, newState); err != nil {
		return nil, err
	}

	completed := order.ItemsCompleted + 1
	if c.metrics != nil {
		c.metrics.ScanAccepted()
	}

	message := fmt.Sprintf("scanned %s (%d/%d)", req.EAN, served, line.QtyRequested)
	if served == line.QtyRequested {
		message = fmt.Sprintf("line complete: %s (%d/%d)", req.EAN, served, line.QtyRequested)
	}

	return Confirmation{
		Action: ActionScanConfirmed,
		Data: ConfirmationData{
			LineID:          line.ID,
			ProductName:     line.ProductName,
			EAN:             line.EAN,
			QtyServed:       served,
			QtyRequested:    line.QtyRequested,
			QtyPending:      line.QtyRequested - served,
			LineProgress:    progress(served, line.QtyRequested),
			OrderID:         order.ID,
			OrderNumber:     order.Number,
			OrderTotal:      order.TotalItems,
			OrderCompleted:  completed,
			OrderProgress:   progress(completed, order.TotalItems),
			Message:         message,
			Timestamp:       time.Now().UTC().Format(time.RFC3339),
			LocationScanned: req.Ubicacion,
		},
	}, nil
}

func (c *Coordinator) reject(code, message string) ErrorFrame {
	if c.metrics != nil {
		c.metrics.ScanRejected(code)
	}
	return newErrorFrame(code, message)
}

func progress(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}
