package picking

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-wms/meridian-wms/internal/orders"
)

// ContextSource resolves order lines to their pick contexts.
type ContextSource interface {
	OrderLineContexts(ctx context.Context, orderID int64) ([]LineContext, error)
}

// OrderSource loads orders.
type OrderSource interface {
	GetByID(ctx context.Context, id int64) (*orders.Order, error)
}

// Service exposes route and validation advisors over resolved contexts.
type Service struct {
	orders   OrderSource
	contexts ContextSource
}

// NewService builds Service.
func NewService(orderSource OrderSource, contextSource ContextSource) *Service {
	return &Service{orders: orderSource, contexts: contextSource}
}

func (s *Service) load(ctx context.Context, orderID int64) (*orders.Order, []LineContext, error) {
	var (
		order    *orders.Order
		contexts []LineContext
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		order, err = s.orders.GetByID(egCtx, orderID)
		return err
	})
	eg.Go(func() error {
		var err error
		contexts, err = s.contexts.OrderLineContexts(egCtx, orderID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return order, contexts, nil
}

// Route computes the optimized pick route for an order.
func (s *Service) Route(ctx context.Context, orderID int64) (Route, error) {
	_, contexts, err := s.load(ctx, orderID)
	if err != nil {
		return Route{}, err
	}
	return Optimize(orderID, contexts), nil
}

// Validate checks stock sufficiency for an order.
func (s *Service) Validate(ctx context.Context, orderID int64) (ValidationReport, error) {
	_, contexts, err := s.load(ctx, orderID)
	if err != nil {
		return ValidationReport{}, err
	}
	return Validate(orderID, contexts), nil
}
