package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-wms/meridian-wms/internal/orders"
	"github.com/meridian-wms/meridian-wms/internal/packing"
	"github.com/meridian-wms/meridian-wms/internal/shared"
)

// RepositoryPort abstracts the transactional repository.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts reconciliation outcomes.
type MetricsPort interface {
	ReconcileCompleted(status string)
}

// Result summarises one reconciliation call.
type Result struct {
	OrderNumber    string
	OrderStatus    orders.Status
	LinesUpdated   int
	LinesCompleted int
	LinesPartial   int
	LinesPending   int
}

// Service runs batch reconciliation. One call per order: the picking-end
// timestamp is stamped on success and blocks any later call.
type Service struct {
	logger    *slog.Logger
	repo      RepositoryPort
	notifier  NotifierPort
	audit     AuditPort
	metrics   MetricsPort
	ledger    packing.Ledger
	companyID int64
}

// NewService builds Service. companyID identifies this installation to the
// external packing system.
func NewService(logger *slog.Logger, repo RepositoryPort, notifier NotifierPort, audit AuditPort, metrics MetricsPort, companyID int64) *Service {
	return &Service{
		logger:    logger,
		repo:      repo,
		notifier:  notifier,
		audit:     audit,
		metrics:   metrics,
		companyID: companyID,
	}
}

// Reconcile applies one external report to the order as a single atomic unit.
// The report is the full current truth of the order's fulfillment, not a
// delta: served quantities are overwritten, duplicate SKU entries merged, and
// distributions spread across the named boxes. If the order becomes READY the
// external packing system is notified inside the same transaction; a failed
// notification rolls everything back. warehouseID restricts the caller to its
// own warehouse when non-zero.
func (s *Service) Reconcile(ctx context.Context, warehouseID int64, orderNumber string, entries []ReportEntry) (*Result, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyReport
	}
	merged := Merge(entries)
	now := time.Now().UTC()

	var result Result
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderByNumberForUpdate(ctx, orderNumber)
		if err != nil {
			return err
		}
		if order.Status == orders.StatusReady {
			return fmt.Errorf("%w: %s", ErrAlreadyReady, order.OrderNumber)
		}
		if order.Locked() {
			return fmt.Errorf("%w: %s locked at %s", ErrOrderLocked, order.OrderNumber, order.PickingEndedAt.Format(time.RFC3339))
		}
		if warehouseID != 0 && order.WarehouseID != warehouseID {
			return fmt.Errorf("%w: order %s belongs to warehouse %d", ErrWarehouseAccess, order.OrderNumber, order.WarehouseID)
		}

		lines, err := tx.GetLines(ctx, order.ID)
		if err != nil {
			return err
		}
		byEAN := make(map[string]orders.Line, len(lines))
		for _, l := range lines {
			byEAN[l.EAN] = l
		}

		for _, m := range merged {
			var existing *orders.Line
			if l, ok := byEAN[m.SKU]; ok {
				existing = &l
			}
			line, err := s.applyMerged(ctx, tx, order, existing, m, now)
			if err != nil {
				return err
			}
			byEAN[m.SKU] = *line
			result.LinesUpdated++
		}

		totalItems, itemsCompleted := 0, 0
		allComplete := len(byEAN) > 0
		for _, l := range byEAN {
			totalItems += l.QtyRequested
			itemsCompleted += l.QtyServed
			switch {
			case l.Complete():
				result.LinesCompleted++
			case l.QtyServed > 0:
				result.LinesPartial++
				allComplete = false
			default:
				result.LinesPending++
				allComplete = false
			}
		}

		status := orders.StatusPending
		if allComplete {
			status = orders.StatusReady
		}
		if err := tx.FinishOrder(ctx, order.ID, status, totalItems, itemsCompleted, now); err != nil {
			return err
		}
		if order.Status != status {
			change := orders.StatusChange{
				OrderID:    order.ID,
				PrevStatus: order.Status,
				NextStatus: status,
				Reason:     "batch reconciliation",
				At:         now,
			}
			if err := tx.AppendHistory(ctx, change); err != nil {
				return err
			}
		}

		if status == orders.StatusReady {
			if err := s.notifyReady(ctx, tx, order); err != nil {
				return err
			}
		}

		result.OrderNumber = order.OrderNumber
		result.OrderStatus = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReconcileCompleted(string(result.OrderStatus))
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "batch:reconcile",
			Entity:   "order",
			EntityID: result.OrderNumber,
			Meta: map[string]any{
				"status":          result.OrderStatus,
				"lines_updated":   result.LinesUpdated,
				"lines_completed": result.LinesCompleted,
			},
		})
	}
	s.logger.Info("batch reconciliation applied",
		slog.String("order", result.OrderNumber),
		slog.String("status", string(result.OrderStatus)),
		slog.Int("lines", result.LinesUpdated))
	return &result, nil
}

// applyMerged updates or creates the line for one merged SKU and records its
// box distributions through the ledger.
func (s *Service) applyMerged(ctx context.Context, tx TxRepository, order *orders.Order, existing *orders.Line, m MergedLine, now time.Time) (*orders.Line, error) {
	var line orders.Line
	if existing == nil {
		productID, found, err := tx.GetProductIDByEAN(ctx, m.SKU)
		if err != nil {
			return nil, err
		}
		if !found {
			productID, err = tx.InsertAutoProduct(ctx, m.SKU)
			if err != nil {
				return nil, err
			}
		}
		requested := m.Total
		if requested == 0 {
			// Avoid a zero-requested line reading as instantly complete.
			requested = 1
		}
		state := orders.LinePending
		if m.Total > 0 {
			state = orders.LineAutoCreated
		}
		line = orders.Line{
			OrderID:      order.ID,
			ProductID:    &productID,
			EAN:          m.SKU,
			QtyRequested: requested,
			QtyServed:    m.Total,
			State:        state,
		}
		if m.Total >= requested {
			line.PackedAt = &now
		}
		id, err := tx.InsertLine(ctx, line)
		if err != nil {
			return nil, err
		}
		line.ID = id
	} else {
		line = *existing
		if line.State == orders.LineAutoCreated && m.Total > line.QtyRequested {
			// Auto-created requested quantities only ever grow.
			line.QtyRequested = m.Total
		}
		line.QtyServed = m.Total
		if line.State != orders.LineAutoCreated {
			line.State = orders.LineStateFor(line.QtyServed, line.QtyRequested)
		}
		if line.Complete() && line.PackedAt == nil {
			line.PackedAt = &now
		}
		if err := tx.UpdateLine(ctx, line); err != nil {
			return nil, err
		}
	}

	for i, inst := range m.Instructions {
		box, err := s.ledger.ResolveBox(ctx, tx, order.ID, inst.BoxCode, true)
		if err != nil {
			return nil, err
		}
		if err := s.ledger.RecordPacking(ctx, tx, line.ID, box.ID, inst.Qty, now); err != nil {
			return nil, err
		}
		if i == 0 {
			// Legacy single-box field: the first box in caller order.
			if err := tx.SetLineBox(ctx, line.ID, box.ID); err != nil {
				return nil, err
			}
			line.BoxID = &box.ID
		}
	}
	return &line, nil
}

// notifyReady posts the box breakdown to the external packing system while
// the transaction is still open, so a refusal unwinds all local writes.
func (s *Service) notifyReady(ctx context.Context, tx TxRepository, order *orders.Order) error {
	breakdown, err := tx.OrderBreakdown(ctx, order.ID)
	if err != nil {
		return err
	}
	notification := Notification{
		CompanyID:    s.companyID,
		WarehouseID:  order.WarehouseID,
		CustomerCode: order.CustomerCode,
		OrderNumber:  order.OrderNumber,
		Operator:     operatorPlaceholder,
		Transfer:     order.OrderType == orders.TypeB2B,
		Lines:        make([]NotificationLine, 0, len(breakdown)),
	}
	for _, row := range breakdown {
		notification.Lines = append(notification.Lines, NotificationLine{
			SKU:      row.EAN,
			BoxCode:  row.BoxCode,
			Quantity: row.Qty,
		})
	}
	if err := s.notifier.NotifyReady(ctx, notification); err != nil {
		s.logger.Warn("packing notification refused, rolling back",
			slog.String("order", order.OrderNumber),
			slog.Any("error", err))
		return err
	}
	return nil
}
