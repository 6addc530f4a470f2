package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meridian-wms/meridian-wms/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, int, error)
	GetHistory(ctx context.Context, orderID int64) ([]StatusChange, error)
	GetOperator(ctx context.Context, id int64) (*shared.Operator, error)
	StampFirstViewed(ctx context.Context, orderID int64, at time.Time) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates order lifecycle operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// GetByID retrieves an order with its lines.
func (s *Service) GetByID(ctx context.Context, id int64) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByNumber retrieves an order by its external number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return s.repo.GetByNumber(ctx, number)
}

// GetForCustomer retrieves an order on behalf of the external customer channel
// and stamps the first-view timestamp when unset.
func (s *Service) GetForCustomer(ctx context.Context, number string) (*Order, error) {
	order, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if order.FirstViewedAt == nil {
		now := time.Now().UTC()
		if err := s.repo.StampFirstViewed(ctx, order.ID, now); err != nil {
			return nil, err
		}
		order.FirstViewedAt = &now
	}
	return order, nil
}

// List returns matching orders and the total count.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	return s.repo.List(ctx, filter)
}

// GetHistory returns the transition history of an order.
func (s *Service) GetHistory(ctx context.Context, orderID int64) ([]StatusChange, error) {
	if _, err := s.repo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.GetHistory(ctx, orderID)
}

// ChangeStatus moves an order to the target status. Re-requesting the current
// status is a no-op and appends no history. Every real transition appends an
// immutable history record.
func (s *Service) ChangeStatus(ctx context.Context, orderID int64, target string, actorID int64, reason string) (*Order, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(target)))
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, target)
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s", ErrTerminalStatus, order.Status)
	}

	now := time.Now().UTC()
	stamps := order.StampsFor(status, now)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.SetStatus(ctx, orderID, status, stamps); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, StatusChange{
			OrderID:    orderID,
			PrevStatus: order.Status,
			NextStatus: status,
			ActorID:    actorID,
			Reason:     reason,
			At:         now,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "orders:status",
			Entity:   "order",
			EntityID: order.OrderNumber,
			Meta:     map[string]any{"from": order.Status, "to": status, "reason": reason},
		})
	}

	return s.repo.GetByID(ctx, orderID)
}

// Assign gives the order to an operator. Assigning a PENDING order also moves
// it to ASSIGNED; later reassignment keeps the current status.
func (s *Service) Assign(ctx context.Context, orderID, operatorID, actorID int64) (*Order, error) {
	operator, err := s.repo.GetOperator(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if !operator.Active {
		return nil, fmt.Errorf("%w: %s", ErrOperatorInactive, operator.Code)
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s", ErrTerminalStatus, order.Status)
	}

	now := time.Now().UTC()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.AssignOperator(ctx, orderID, operatorID); err != nil {
			return err
		}
		if order.Status != StatusPending {
			return nil
		}
		if err := tx.SetStatus(ctx, orderID, StatusAssigned, StatusStamps{}); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, StatusChange{
			OrderID:    orderID,
			PrevStatus: StatusPending,
			NextStatus: StatusAssigned,
			ActorID:    actorID,
			Reason:     fmt.Sprintf("assigned to operator %s", operator.Code),
			At:         now,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "orders:assign",
			Entity:   "order",
			EntityID: order.OrderNumber,
			Meta:     map[string]any{"operator_id": operatorID, "operator_code": operator.Code},
		})
	}

	return s.repo.GetByID(ctx, orderID)
}
