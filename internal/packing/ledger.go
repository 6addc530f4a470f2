package packing

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TxPort exposes the ledger operations that must run inside the caller's
// transaction. The batch engine embeds this port in its own transactional
// repository so ledger writes share the reconciliation transaction.
type TxPort interface {
	GetDistribution(ctx context.Context, lineID, boxID int64) (Distribution, error)
	InsertDistribution(ctx context.Context, d Distribution) (int64, error)
	UpdateDistribution(ctx context.Context, id int64, qty int, packedAt time.Time) error
	AddToBoxTotal(ctx context.Context, boxID int64, delta int) error
	SumForLine(ctx context.Context, lineID int64) (int, error)
	GetBoxByCode(ctx context.Context, code string) (*Box, error)
	NextBoxSeq(ctx context.Context, orderID int64) (int, error)
	InsertBox(ctx context.Context, box Box) (int64, error)
}

// Ledger implements the adjust-and-sum contract over a transactional port.
// Re-reporting the same (line, box) pair replaces the previous quantity: the
// old quantity is first subtracted from the box total, then the new quantity
// is added, so repeated batch reports never double-count.
type Ledger struct{}

// RecordPacking creates or updates the ledger row for (line, box) and keeps
// the box running total consistent.
func (Ledger) RecordPacking(ctx context.Context, tx TxPort, lineID, boxID int64, qty int, packedAt time.Time) error {
	if qty < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeQuantity, qty)
	}
	prior, err := tx.GetDistribution(ctx, lineID, boxID)
	if err != nil {
		if !errors.Is(err, ErrDistributionNotFound) {
			return err
		}
		if _, err := tx.InsertDistribution(ctx, Distribution{LineID: lineID, BoxID: boxID, Qty: qty, PackedAt: packedAt}); err != nil {
			return err
		}
		return tx.AddToBoxTotal(ctx, boxID, qty)
	}
	if err := tx.UpdateDistribution(ctx, prior.ID, qty, packedAt); err != nil {
		return err
	}
	return tx.AddToBoxTotal(ctx, boxID, qty-prior.Qty)
}

// TotalForLine returns the sum of ledger quantities across all boxes.
func (Ledger) TotalForLine(ctx context.Context, tx TxPort, lineID int64) (int, error) {
	return tx.SumForLine(ctx, lineID)
}

// ResolveBox finds the box by its external code or creates it for the order.
// Boxes created during batch reconciliation start closed, since their units
// are already reported as served.
func (Ledger) ResolveBox(ctx context.Context, tx TxPort, orderID int64, code string, closed bool) (*Box, error) {
	box, err := tx.GetBoxByCode(ctx, code)
	if err == nil {
		if box.OrderID != orderID {
			return nil, fmt.Errorf("%w: %s", ErrBoxOrderMismatch, code)
		}
		return box, nil
	}
	if !errors.Is(err, ErrBoxNotFound) {
		return nil, err
	}
	seq, err := tx.NextBoxSeq(ctx, orderID)
	if err != nil {
		return nil, err
	}
	created := Box{OrderID: orderID, Seq: seq, Code: code, Closed: closed}
	id, err := tx.InsertBox(ctx, created)
	if err != nil {
		return nil, err
	}
	created.ID = id
	return &created, nil
}
