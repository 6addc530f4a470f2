package batch

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-wms/meridian-wms/internal/orders"
	"github.com/meridian-wms/meridian-wms/internal/packing"
)

// memoryBatchRepo implements RepositoryPort and TxRepository with
// snapshot-based rollback, so notifier failures can be asserted to leave no
// partial writes.
type memoryBatchRepo struct {
	order     *orders.Order
	lines     map[int64]*orders.Line
	products  map[string]int64
	dists     []*packing.Distribution
	boxes     map[int64]*packing.Box
	boxByCode map[string]int64
	history   []orders.StatusChange
	nextID    int64
}

func newMemoryBatchRepo() *memoryBatchRepo {
	return &memoryBatchRepo{
		lines:     make(map[int64]*orders.Line),
		products:  make(map[string]int64),
		boxes:     make(map[int64]*packing.Box),
		boxByCode: make(map[string]int64),
	}
}

func (r *memoryBatchRepo) snapshot() *memoryBatchRepo {
	clone := newMemoryBatchRepo()
	if r.order != nil {
		o := *r.order
		clone.order = &o
	}
	for id, line := range r.lines {
		l := *line
		clone.lines[id] = &l
	}
	for ean, id := range r.products {
		clone.products[ean] = id
	}
	for _, d := range r.dists {
		dd := *d
		clone.dists = append(clone.dists, &dd)
	}
	for id, box := range r.boxes {
		b := *box
		clone.boxes[id] = &b
	}
	for code, id := range r.boxByCode {
		clone.boxByCode[code] = id
	}
	clone.history = append(clone.history, r.history...)
	clone.nextID = r.nextID
	return clone
}

func (r *memoryBatchRepo) restore(snap *memoryBatchRepo) {
	r.order = snap.order
	r.lines = snap.lines
	r.products = snap.products
	r.dists = snap.dists
	r.boxes = snap.boxes
	r.boxByCode = snap.boxByCode
	r.history = snap.history
	r.nextID = snap.nextID
}

func (r *memoryBatchRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snap := r.snapshot()
	if err := fn(ctx, r); err != nil {
		r.restore(snap)
		return err
	}
	return nil
}

func (r *memoryBatchRepo) GetOrderByNumberForUpdate(ctx context.Context, number string) (*orders.Order, error) {
	if r.order == nil || r.order.OrderNumber != number {
		return nil, orders.ErrNotFound
	}
	clone := *r.order
	return &clone, nil
}

func (r *memoryBatchRepo) GetLines(ctx context.Context, orderID int64) ([]orders.Line, error) {
	var result []orders.Line
	for id := int64(1); id <= r.nextID; id++ {
		if line, ok := r.lines[id]; ok && line.OrderID == orderID {
			result = append(result, *line)
		}
	}
	return result, nil
}

func (r *memoryBatchRepo) GetProductIDByEAN(ctx context.Context, ean string) (int64, bool, error) {
	id, ok := r.products[ean]
	return id, ok, nil
}

func (r *memoryBatchRepo) InsertAutoProduct(ctx context.Context, ean string) (int64, error) {
	r.nextID++
	r.products[ean] = r.nextID
	return r.nextID, nil
}

func (r *memoryBatchRepo) InsertLine(ctx context.Context, line orders.Line) (int64, error) {
	r.nextID++
	line.ID = r.nextID
	r.lines[line.ID] = &line
	return line.ID, nil
}

func (r *memoryBatchRepo) UpdateLine(ctx context.Context, line orders.Line) error {
	stored := r.lines[line.ID]
	stored.QtyRequested = line.QtyRequested
	stored.QtyServed = line.QtyServed
	stored.State = line.State
	stored.PackedAt = line.PackedAt
	return nil
}

func (r *memoryBatchRepo) SetLineBox(ctx context.Context, lineID, boxID int64) error {
	r.lines[lineID].BoxID = &boxID
	return nil
}

func (r *memoryBatchRepo) FinishOrder(ctx context.Context, orderID int64, status orders.Status, totalItems, itemsCompleted int, lockedAt time.Time) error {
	r.order.Status = status
	r.order.TotalItems = totalItems
	r.order.ItemsCompleted = itemsCompleted
	r.order.PickingEndedAt = &lockedAt
	return nil
}

func (r *memoryBatchRepo) AppendHistory(ctx context.Context, change orders.StatusChange) error {
	r.history = append(r.history, change)
	return nil
}

func (r *memoryBatchRepo) OrderBreakdown(ctx context.Context, orderID int64) ([]packing.BoxBreakdownRow, error) {
	var rows []packing.BoxBreakdownRow
	for _, d := range r.dists {
		line := r.lines[d.LineID]
		if line == nil || line.OrderID != orderID || d.Qty <= 0 {
			continue
		}
		rows = append(rows, packing.BoxBreakdownRow{EAN: line.EAN, BoxCode: r.boxes[d.BoxID].Code, Qty: d.Qty})
	}
	return rows, nil
}

func (r *memoryBatchRepo) GetDistribution(ctx context.Context, lineID, boxID int64) (packing.Distribution, error) {
	for _, d := range r.dists {
		if d.LineID == lineID && d.BoxID == boxID {
			return *d, nil
		}
	}
	return packing.Distribution{}, packing.ErrDistributionNotFound
}

func (r *memoryBatchRepo) InsertDistribution(ctx context.Context, d packing.Distribution) (int64, error) {
	r.nextID++
	d.ID = r.nextID
	r.dists = append(r.dists, &d)
	return d.ID, nil
}

func (r *memoryBatchRepo) UpdateDistribution(ctx context.Context, id int64, qty int, packedAt time.Time) error {
	for _, d := range r.dists {
		if d.ID == id {
			d.Qty = qty
			d.PackedAt = packedAt
			return nil
		}
	}
	return packing.ErrDistributionNotFound
}

func (r *memoryBatchRepo) AddToBoxTotal(ctx context.Context, boxID int64, delta int) error {
	r.boxes[boxID].TotalItems += delta
	return nil
}

func (r *memoryBatchRepo) SumForLine(ctx context.Context, lineID int64) (int, error) {
	total := 0
	for _, d := range r.dists {
		if d.LineID == lineID {
			total += d.Qty
		}
	}
	return total, nil
}

func (r *memoryBatchRepo) GetBoxByCode(ctx context.Context, code string) (*packing.Box, error) {
	if id, ok := r.boxByCode[code]; ok {
		clone := *r.boxes[id]
		return &clone, nil
	}
	return nil, packing.ErrBoxNotFound
}

func (r *memoryBatchRepo) NextBoxSeq(ctx context.Context, orderID int64) (int, error) {
	seq := 0
	for _, b := range r.boxes {
		if b.OrderID == orderID && b.Seq > seq {
			seq = b.Seq
		}
	}
	return seq + 1, nil
}

func (r *memoryBatchRepo) InsertBox(ctx context.Context, box packing.Box) (int64, error) {
	r.nextID++
	box.ID = r.nextID
	r.boxes[box.ID] = &box
	r.boxByCode[box.Code] = box.ID
	return box.ID, nil
}

func (r *memoryBatchRepo) boxByCodeOrFail(t *testing.T, code string) *packing.Box {
	t.Helper()
	id, ok := r.boxByCode[code]
	require.True(t, ok, "box %s not created", code)
	return r.boxes[id]
}

func (r *memoryBatchRepo) lineByEAN(t *testing.T, ean string) *orders.Line {
	t.Helper()
	for _, line := range r.lines {
		if line.EAN == ean {
			return line
		}
	}
	t.Fatalf("no line with EAN %s", ean)
	return nil
}

type fakeNotifier struct {
	calls int
	fail  bool
	last  Notification
}

func (n *fakeNotifier) NotifyReady(ctx context.Context, notification Notification) error {
	n.calls++
	n.last = notification
	if n.fail {
		return ErrNotifyFailed
	}
	return nil
}

func seedBatchOrder(repo *memoryBatchRepo, skus map[string]int) {
	repo.order = &orders.Order{
		ID: 1, OrderNumber: "ORD-1", CustomerCode: "CUST", WarehouseID: 2,
		Status: orders.StatusInPicking, Priority: orders.PriorityNormal, OrderType: orders.TypeB2C,
	}
	for ean, requested := range skus {
		repo.nextID++
		repo.products[ean] = repo.nextID
		productID := repo.nextID
		repo.nextID++
		repo.lines[repo.nextID] = &orders.Line{
			ID: repo.nextID, OrderID: 1, ProductID: &productID, EAN: ean,
			QtyRequested: requested, State: orders.LinePending,
		}
		repo.order.TotalItems += requested
	}
}

func testService(repo *memoryBatchRepo, notifier *fakeNotifier) *Service {
	return NewService(slog.Default(), repo, notifier, nil, nil, 1)
}

func TestReconcileCompletesSingleLineOrder(t *testing.T) {
	repo := newMemoryBatchRepo()
	seedBatchOrder(repo, map[string]int{"X": 10})
	notifier := &fakeNotifier{}

	result, err := testService(repo, notifier).Reconcile(context.Background(), 0, "ORD-1",
		[]ReportEntry{{SKU: "X", QtyServed: 10, BoxCode: "BX1"}})
	require.NoError(t, err)

	require.Equal(t, orders.StatusReady, result.OrderStatus)
	require.Equal(t, 1, result.LinesUpdated)
	require.Equal(t, 1, result.LinesCompleted)
	require.Zero(t, result.LinesPartial)
	require.Zero(t, result.LinesPending)

	line := repo.lineByEAN(t, "X")
	require.Equal(t, 10, line.QtyServed)
	require.Equal(t, orders.LineCompleted, line.State)
	require.Equal(t, 10, repo.boxByCodeOrFail(t, "BX1").TotalItems)
	require.True(t, repo.boxByCodeOrFail(t, "BX1").Closed)

	require.NotNil(t, repo.order.PickingEndedAt)
	require.Equal(t, 10, repo.order.TotalItems)
	require.Equal(t, 10, repo.order.ItemsCompleted)

	require.Equal(t, 1, notifier.calls)
	require.Len(t, notifier.last.Lines, 1)
	require.Equal(t, NotificationLine{SKU: "X", BoxCode: "BX1", Quantity: 10}, notifier.last.Lines[0])
	require.Equal(t, "CUST", notifier.last.CustomerCode)
	require.Equal(t, int64(2), notifier.last.WarehouseID)

	require.Len(t, repo.history, 1)
	require.Equal(t, orders.StatusInPicking, repo.history[0].PrevStatus)
	require.Equal(t, orders.StatusReady, repo.history[0].NextStatus)
}

func TestReconcileMergesDuplicateSKUIntoOneLine(t *testing.T) {
	repo := newMemoryBatchRepo()
	seedBatchOrder(repo, map[string]int{"X": 15})
	notifier := &fakeNotifier{}

	_, err := testService(repo, notifier).Reconcile(context.Background(), 0, "ORD-1", []ReportEntry{
		{SKU: "X", QtyServed: 10, BoxCode: "BX1"},
		{SKU: "X", QtyServed: 5, BoxCode: "BX2"},
	})
	require.NoError(t, err)

	lineCount := 0
	for _, line := range repo.lines {
		if line.EAN == "X" {
			lineCount++
		}
	}
	require.Equal(t, 1, lineCount, "duplicate SKU reports must not create extra lines")
	require.Equal(t, 15, repo.lineByEAN(t, "X").QtyServed)
}

func TestReconcileDistributesAcrossBoxes(t *testing.T) {
	repo := newMemoryBatchRepo()
	seedBatchOrder(repo, map[string]int{"X": 30})
	notifier := &fakeNotifier{}

	result, err := testService(repo, notifier).Reconcile(context.Background(), 0, "ORD-1", []ReportEntry{
		{SKU: "X", QtyServed: 20, BoxCode: "BX1"},
		{SKU: "X", QtyServed: 10, BoxCode: "BX2"},
	})
	require.NoError(t, err)
	require.Equal(t, orders.StatusReady, result.OrderStatus)

	line := repo.lineByEAN(t, "X")
	require.Equal(t, 30, line.QtyServed)
	require.Equal(t, 20, repo.boxByCodeOrFail(t, "BX1").TotalItems)
	require.Equal(t, 10, repo.boxByCodeOrFail(t, "BX2").TotalItems)

	total := 0
	for _, d := range repo.dists {
		if d.LineID == line.ID {
			total += d.Qty
		}
	}
	require.Equal(t, 30, total)

	// Legacy single-box field points at the first box in caller order.
	require.NotNil(t, line.BoxID)
	require.Equal(t, repo.boxByCodeOrFail(t, "BX1").ID, *line.BoxID)
}

func TestReconcileAutoCreatesProductAndLine(t *testing.T) {
	repo := newMemoryBatchRepo()
	seedBatchOrder(repo, map[string]int{"X": 5})
	notifier := &fakeNotifier{}

	result, err := testService(repo, notifier).Reconcile(context.Background(), 0, "ORD-1", []ReportEntry{
		{SKU: "X", QtyServed: 5, BoxCode: "BX1"},
		{SKU: "UNKNOWN", QtyServed: 3, BoxCode: "BX1"},
	})
	require.NoError(t, err)

	require.Contains(t, repo.products, "UNKNOWN")
	created := repo.lineByEAN(t, "UNKNOWN")
	require.Equal(t, orders.LineAutoCreated, created.State)
	require.Equal(t, 3, created.QtyRequested)
	require.Equal(t, 3, created.QtyServed)
	require.Equal(t, orders.StatusReady, result.OrderStatus)
}

func TestReconcileZeroQuantityUnknownSKUStaysPending(t *testing.T) {
	repo := newMemoryBatchRepo()
	seedBatchOrder(repo, map[string]int{"X": 5})
	notifier := &fakeNotifier{}

	result, err := testService(repo, notifier).Reconcile(context.Background(), 0, "ORD-1", []ReportEntry{
		{SKU: "X", QtyServed: 5, BoxCode: "BX1"},
		{SKU: "UNKNOWN", QtyServed: 0},
	})
	require.NoError(t, err)

	created := repo.lineByEAN(t, "UNKNOWN")
	require.Equal(t, orders.LinePending, created.State)
	require.Equal(t, 1, created.QtyRequested)
	require.Zero(t, created.QtyServed)
	require.Equal(t, orders.StatusPending, result.OrderStatus)
	require.Zero(t, notifier.calls)
}

func TestReconcileRaisesAutoCreatedRequestedQty(t *testing.T) {
	repo := newMemoryBatchRepo()
	seedBatchOrder(repo, map[string]int{"X": 5})
	auto := repo.lineByEAN(t, "X")
	auto.State = orders.LineAutoCreated
	notifier := &fakeNotifier{}

	_, err := testService(repo, notifier).Reconcile(context.Background(), 0, "ORD-1",
		[]ReportEntry{{SKU: "X", QtyServed: 8, BoxCode: "BX1"}})
	require.NoError(t, err)

	line := repo.lineByEAN(t, "X")
	require.Equal(t, 8, line.QtyRequested, "auto-created requested quantity is raised, never lowered")
	require.Equal(t, 8, line.QtyServed)
	require.Equal(t, orders.LineAutoCreated, line.State)
}

func TestReconcilePartialOrderStaysPendingButLocks(t *testing.T) {
	repo := newMemoryBatchRepo()
	seedBatchOrder(repo, map[string]int{"X": 10})
	notifier := &fakeNotifier{}
	svc := testService(repo, notifier)

	result, err := svc.Reconcile(context.Background(), 0, "ORD-1",
		[]ReportEntry{{SKU: "X", QtyServed: 4, BoxCode: "BX1"}})
	require.NoError(t, err)
	require.Equal(t, orders.StatusPending, result.OrderStatus)
	require.Equal(t, 1, result.LinesPartial)
	require.Zero(t, notifier.calls)
	require.NotNil(t, repo.order.PickingEndedAt)

	// The lock is one-shot: any second call fails regardless of payload.
	_, err = svc.Reconcile(context.Background(), 0, "ORD-1",
		[]ReportEntry{{SKU: "X", QtyServed: 10, BoxCode: "BX1"}})
	require.ErrorIs(t, err, ErrOrderLocked)
}

func TestReconcileGuards(t *testing.T) {
	t.Run("order not found", func(t *testing.T) {
		repo := newMemoryBatchRepo()
		seedBatchOrder(repo, map[string]int{"X": 10})
		_, err := testService(repo, &fakeNotifier{}).Reconcile(context.Background(), 0, "ORD-404",
			[]ReportEntry{{SKU: "X", QtyServed: 1}})
		require.ErrorIs(t, err, orders.ErrNotFound)
	})

	t.Run("already ready", func(t *testing.T) {
		repo := newMemoryBatchRepo()
		seedBatchOrder(repo, map[string]int{"X": 10})
		repo.order.Status = orders.StatusReady
		_, err := testService(repo, &fakeNotifier{}).Reconcile(context.Background(), 0, "ORD-1",
			[]ReportEntry{{SKU: "X", QtyServed: 1}})
		require.ErrorIs(t, err, ErrAlreadyReady)
	})

	t.Run("wrong warehouse", func(t *testing.T) {
		repo := newMemoryBatchRepo()
		seedBatchOrder(repo, map[string]int{"X": 10})
		_, err := testService(repo, &fakeNotifier{}).Reconcile(context.Background(), 9, "ORD-1",
			[]ReportEntry{{SKU: "X", QtyServed: 1}})
		require.ErrorIs(t, err, ErrWarehouseAccess)
	})

	t.Run("empty report", func(t *testing.T) {
		repo := newMemoryBatchRepo()
		seedBatchOrder(repo, map[string]int{"X": 10})
		_, err := testService(repo, &fakeNotifier{}).Reconcile(context.Background(), 0, "ORD-1", nil)
		require.ErrorIs(t, err, ErrEmptyReport)
	})
}

func TestReconcileNotifierFailureRollsBackEverything(t *testing.T) {
	repo := newMemoryBatchRepo()
	seedBatchOrder(repo, map[string]int{"X": 10})
	notifier := &fakeNotifier{fail: true}

	_, err := testService(repo, notifier).Reconcile(context.Background(), 0, "ORD-1",
		[]ReportEntry{{SKU: "X", QtyServed: 10, BoxCode: "BX1"}})
	require.ErrorIs(t, err, ErrNotifyFailed)
	require.Equal(t, 1, notifier.calls)

	// No local state survives the refused notification.
	require.Equal(t, orders.StatusInPicking, repo.order.Status)
	require.Nil(t, repo.order.PickingEndedAt)
	require.Zero(t, repo.lineByEAN(t, "X").QtyServed)
	_, ok := repo.boxByCode["BX1"]
	require.False(t, ok)
	require.Empty(t, repo.history)
}
