package scan

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-wms/meridian-wms/internal/orders"
	"github.com/meridian-wms/meridian-wms/internal/shared"
)

type memoryRepo struct {
	operators map[string]*shared.Operator
	order     *OrderView
	lines     map[string]*LineView
	applied   int
}

func newMemoryScanRepo() *memoryRepo {
	return &memoryRepo{
		operators: make(map[string]*shared.Operator),
		lines:     make(map[string]*LineView),
	}
}

func (r *memoryRepo) GetOperatorByCode(ctx context.Context, code string) (*shared.Operator, error) {
	op, ok := r.operators[code]
	if !ok {
		return nil, orders.ErrOperatorNotFound
	}
	return op, nil
}

func (r *memoryRepo) ResolveOrder(ctx context.Context, id int64, number string) (*OrderView, error) {
	if r.order == nil {
		return nil, orders.ErrNotFound
	}
	if id != 0 && r.order.ID != id {
		return nil, orders.ErrNotFound
	}
	if id == 0 && r.order.Number != number {
		return nil, orders.ErrNotFound
	}
	clone := *r.order
	return &clone, nil
}

func (r *memoryRepo) GetLine(ctx context.Context, orderID int64, ean string) (*LineView, error) {
	line, ok := r.lines[ean]
	if !ok {
		return nil, orders.ErrLineNotFound
	}
	clone := *line
	return &clone, nil
}

func (r *memoryRepo) ApplyScan(ctx context.Context, lineID, orderID int64, newState orders.LineState) error {
	for _, line := range r.lines {
		if line.ID == lineID {
			line.QtyServed++
		}
	}
	r.order.ItemsCompleted++
	r.applied++
	return nil
}

func testCoordinator(repo *memoryRepo) *Coordinator {
	return NewCoordinator(slog.Default(), repo, nil)
}

func operatorID(id int64) *int64 { return &id }

func seedScanRepo() (*memoryRepo, *shared.Operator) {
	repo := newMemoryScanRepo()
	op := &shared.Operator{ID: 5, Code: "OP5", Active: true}
	repo.operators["OP5"] = op
	repo.order = &OrderView{
		ID: 1, Number: "ORD-1", Status: orders.StatusInPicking,
		OperatorID: operatorID(5), TotalItems: 10, ItemsCompleted: 3,
	}
	repo.lines["8412345"] = &LineView{ID: 21, ProductName: "Camiseta", EAN: "8412345", QtyRequested: 5, QtyServed: 3}
	return repo, op
}

func frame(t *testing.T, action string, req ScanRequest) []byte {
	t.Helper()
	raw, err := json.Marshal(Envelope{Action: action, Data: req})
	require.NoError(t, err)
	return raw
}

func requireRejection(t *testing.T, result any, code string) {
	t.Helper()
	errFrame, ok := result.(ErrorFrame)
	require.True(t, ok, "expected an error frame, got %T", result)
	require.Equal(t, ActionScanError, errFrame.Action)
	require.Equal(t, code, errFrame.Data.ErrorCode)
	require.True(t, errFrame.Data.CanRetry)
}

func TestHandleAcceptsScanAndIncrementsByOne(t *testing.T) {
	repo, op := seedScanRepo()
	result := testCoordinator(repo).Handle(context.Background(), op, frame(t, ActionScanProduct, ScanRequest{OrderNumber: "ORD-1", EAN: "8412345"}))

	confirmation, ok := result.(Confirmation)
	require.True(t, ok, "expected a confirmation, got %T", result)
	require.Equal(t, ActionScanConfirmed, confirmation.Action)
	require.Equal(t, 4, confirmation.Data.QtyServed)
	require.Equal(t, 5, confirmation.Data.QtyRequested)
	require.Equal(t, 1, confirmation.Data.QtyPending)
	require.Equal(t, 4, confirmation.Data.OrderCompleted)
	require.InDelta(t, 80.0, confirmation.Data.LineProgress, 0.0001)
	require.InDelta(t, 40.0, confirmation.Data.OrderProgress, 0.0001)
	require.Equal(t, 1, repo.applied)
}

func TestHandleResolvesOrderByID(t *testing.T) {
	repo, op := seedScanRepo()
	result := testCoordinator(repo).Handle(context.Background(), op, frame(t, ActionScanProduct, ScanRequest{OrderID: 1, EAN: "8412345"}))
	_, ok := result.(Confirmation)
	require.True(t, ok)
}

func TestHandleRejectionMatrix(t *testing.T) {
	cases := []struct {
		name string
		prep func(repo *memoryRepo)
		req  ScanRequest
		code string
	}{
		{
			name: "missing order reference",
			req:  ScanRequest{EAN: "8412345"},
			code: CodeMissingOrderNumber,
		},
		{
			name: "missing ean",
			req:  ScanRequest{OrderNumber: "ORD-1"},
			code: CodeMissingEAN,
		},
		{
			name: "order not found",
			req:  ScanRequest{OrderNumber: "ORD-404", EAN: "8412345"},
			code: CodeOrderNotFound,
		},
		{
			name: "order assigned to another operator",
			prep: func(repo *memoryRepo) { repo.order.OperatorID = operatorID(9) },
			req:  ScanRequest{OrderNumber: "ORD-1", EAN: "8412345"},
			code: CodeOrderNotAssigned,
		},
		{
			name: "order not assigned at all",
			prep: func(repo *memoryRepo) { repo.order.OperatorID = nil },
			req:  ScanRequest{OrderNumber: "ORD-1", EAN: "8412345"},
			code: CodeOrderNotAssigned,
		},
		{
			name: "wrong order status",
			prep: func(repo *memoryRepo) { repo.order.Status = orders.StatusReady },
			req:  ScanRequest{OrderNumber: "ORD-1", EAN: "8412345"},
			code: CodeOrderWrongStatus,
		},
		{
			name: "ean not in order",
			req:  ScanRequest{OrderNumber: "ORD-1", EAN: "999"},
			code: CodeEANNotInOrder,
		},
		{
			name: "line already fully served",
			prep: func(repo *memoryRepo) { repo.lines["8412345"].QtyServed = 5 },
			req:  ScanRequest{OrderNumber: "ORD-1", EAN: "8412345"},
			code: CodeMaxQuantityReached,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, op := seedScanRepo()
			if tc.prep != nil {
				tc.prep(repo)
			}
			result := testCoordinator(repo).Handle(context.Background(), op, frame(t, ActionScanProduct, tc.req))
			requireRejection(t, result, tc.code)
			require.Zero(t, repo.applied, "rejection must not mutate state")
		})
	}
}

func TestHandleUnknownActionAndMalformedFrames(t *testing.T) {
	repo, op := seedScanRepo()
	coordinator := testCoordinator(repo)

	result := coordinator.Handle(context.Background(), op, frame(t, "warp_drive", ScanRequest{}))
	requireRejection(t, result, CodeUnknownAction)

	result = coordinator.Handle(context.Background(), op, []byte("not json"))
	requireRejection(t, result, CodeUnknownAction)
}

func TestMaxQuantityScanLeavesStateUnchanged(t *testing.T) {
	repo, op := seedScanRepo()
	coordinator := testCoordinator(repo)
	req := ScanRequest{OrderNumber: "ORD-1", EAN: "8412345"}

	// Serve the remaining two units, then one more.
	for i := 0; i < 2; i++ {
		result := coordinator.Handle(context.Background(), op, frame(t, ActionScanProduct, req))
		_, ok := result.(Confirmation)
		require.True(t, ok)
	}
	result := coordinator.Handle(context.Background(), op, frame(t, ActionScanProduct, req))
	requireRejection(t, result, CodeMaxQuantityReached)
	require.Equal(t, 5, repo.lines["8412345"].QtyServed)
	require.Equal(t, 2, repo.applied)
}

func TestOperatorResolution(t *testing.T) {
	repo, _ := seedScanRepo()
	repo.operators["OFF"] = &shared.Operator{ID: 6, Code: "OFF", Active: false}
	coordinator := testCoordinator(repo)

	op, err := coordinator.Operator(context.Background(), "OP5")
	require.NoError(t, err)
	require.Equal(t, "OP5", op.Code)

	_, err = coordinator.Operator(context.Background(), "OFF")
	require.ErrorIs(t, err, orders.ErrOperatorInactive)

	_, err = coordinator.Operator(context.Background(), "NOPE")
	require.ErrorIs(t, err, orders.ErrOperatorNotFound)
}
