package replenishment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-wms/meridian-wms/internal/shared"
)

// RepositoryPort abstracts the repository for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetByID(ctx context.Context, id int64) (*Request, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service drives the transfer lifecycle. Every operation runs in a single
// transaction and aborts without partial stock mutation on any failed
// precondition.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	audit  AuditPort
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo RepositoryPort, audit AuditPort) *Service {
	return &Service{logger: logger, repo: repo, audit: audit}
}

// GetByID loads a transfer request.
func (s *Service) GetByID(ctx context.Context, id int64) (*Request, error) {
	return s.repo.GetByID(ctx, id)
}

// Start hands the request to an executing operator. Requires READY status, an
// assigned origin with sufficient stock, and an active executor.
func (s *Service) Start(ctx context.Context, requestID, executorID int64) (*Request, error) {
	now := time.Now().UTC()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		req, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusReady {
			return fmt.Errorf("%w: start requires READY, request is %s", ErrWrongStatus, req.Status)
		}
		if req.OriginLocationID == nil {
			return fmt.Errorf("%w: request %d", ErrNoOrigin, req.ID)
		}
		origin, err := tx.GetLocationForUpdate(ctx, *req.OriginLocationID)
		if err != nil {
			return err
		}
		if origin.StockQty < req.Qty {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, origin.StockQty, req.Qty)
		}
		executor, err := tx.GetOperator(ctx, executorID)
		if err != nil {
			return err
		}
		if !executor.Active {
			return fmt.Errorf("%w: %s", ErrExecutorInactive, executor.Code)
		}
		return tx.MarkInProgress(ctx, requestID, executorID, now)
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  executorID,
			Action:   "replenishment:start",
			Entity:   "replenishment_request",
			EntityID: fmt.Sprintf("%d", requestID),
		})
	}
	return s.repo.GetByID(ctx, requestID)
}

// Complete executes the stock movement. Origin stock is re-validated because
// it may have moved since Start; the decrement and increment commit together.
func (s *Service) Complete(ctx context.Context, requestID int64) (*Request, *StockSnapshot, error) {
	now := time.Now().UTC()
	var snapshot StockSnapshot
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		req, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusInProgress {
			return fmt.Errorf("%w: complete requires IN_PROGRESS, request is %s", ErrWrongStatus, req.Status)
		}
		if req.OriginLocationID == nil {
			return fmt.Errorf("%w: request %d", ErrNoOrigin, req.ID)
		}
		origin, err := tx.GetLocationForUpdate(ctx, *req.OriginLocationID)
		if err != nil {
			return err
		}
		if origin.StockQty < req.Qty {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, origin.StockQty, req.Qty)
		}
		dest, err := tx.GetLocationForUpdate(ctx, req.DestLocationID)
		if err != nil {
			return err
		}

		snapshot = StockSnapshot{
			OriginBefore: origin.StockQty,
			OriginAfter:  origin.StockQty - req.Qty,
			DestBefore:   dest.StockQty,
			DestAfter:    dest.StockQty + req.Qty,
		}
		if err := tx.AdjustStock(ctx, origin.ID, -req.Qty, now); err != nil {
			return err
		}
		if err := tx.AdjustStock(ctx, dest.ID, req.Qty, now); err != nil {
			return err
		}
		return tx.MarkCompleted(ctx, requestID, now)
	})
	if err != nil {
		return nil, nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "replenishment:complete",
			Entity:   "replenishment_request",
			EntityID: fmt.Sprintf("%d", requestID),
			Meta: map[string]any{
				"origin_after": snapshot.OriginAfter,
				"dest_after":   snapshot.DestAfter,
			},
		})
	}
	s.logger.Info("replenishment transfer completed",
		slog.Int64("request_id", requestID),
		slog.Int("origin_after", snapshot.OriginAfter),
		slog.Int("dest_after", snapshot.DestAfter))

	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	return req, &snapshot, nil
}

// Reject abandons the request with a reason. Allowed from any non-terminal
// status.
func (s *Service) Reject(ctx context.Context, requestID int64, notes string) (*Request, error) {
	now := time.Now().UTC()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		req, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status.IsTerminal() {
			return fmt.Errorf("%w: request is already %s", ErrWrongStatus, req.Status)
		}
		return tx.MarkRejected(ctx, requestID, notes, now)
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "replenishment:reject",
			Entity:   "replenishment_request",
			EntityID: fmt.Sprintf("%d", requestID),
			Meta:     map[string]any{"notes": notes},
		})
	}
	return s.repo.GetByID(ctx, requestID)
}
