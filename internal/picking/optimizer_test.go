package picking

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func loc(aisle string, priority, height, stock int) *LocationInfo {
	return &LocationInfo{
		ID:           1,
		Code:         aisle + "-01",
		Aisle:        aisle,
		ShelfHeight:  height,
		PickPriority: priority,
		StockQty:     stock,
		Active:       true,
	}
}

func TestOptimizeVisitsAislesLexicographically(t *testing.T) {
	lines := []LineContext{
		{LineID: 1, EAN: "111", QtyRequested: 2, Location: loc("B", 1, 1, 10)},
		{LineID: 2, EAN: "222", QtyRequested: 3, Location: loc("A", 1, 1, 10)},
	}

	route := Optimize(7, lines)
	require.Len(t, route.Stops, 2)
	require.Equal(t, "A", route.Stops[0].Aisle)
	require.Equal(t, "B", route.Stops[1].Aisle)
	require.Equal(t, 1, route.Stops[0].Seq)
	require.Equal(t, 2, route.Stops[1].Seq)
}

func TestOptimizeOrdersByPriorityThenHeight(t *testing.T) {
	lines := []LineContext{
		{LineID: 1, EAN: "a", Location: loc("A", 2, 1, 5)},
		{LineID: 2, EAN: "b", Location: loc("A", 1, 2, 5)},
		{LineID: 3, EAN: "c", Location: loc("A", 1, 1, 5)},
	}

	route := Optimize(7, lines)
	require.Len(t, route.Stops, 3)
	require.Equal(t, int64(3), route.Stops[0].LineID) // priority 1, height 1
	require.Equal(t, int64(2), route.Stops[1].LineID) // priority 1, height 2
	require.Equal(t, int64(1), route.Stops[2].LineID) // priority 2, height 1
}

func TestOptimizeExcludesUnresolvedLinesAsWarnings(t *testing.T) {
	inactive := loc("A", 1, 1, 5)
	inactive.Active = false
	lines := []LineContext{
		{LineID: 1, EAN: "111", Location: nil},
		{LineID: 2, EAN: "222", Location: inactive},
		{LineID: 3, EAN: "333", Location: loc("A", 1, 1, 5)},
	}

	route := Optimize(7, lines)
	require.Len(t, route.Stops, 1)
	require.Equal(t, int64(3), route.Stops[0].LineID)
	require.Len(t, route.Warnings, 2)
}

func TestOptimizeEmptyRouteIsNotAnError(t *testing.T) {
	route := Optimize(7, []LineContext{{LineID: 1, EAN: "111"}})
	require.Empty(t, route.Stops)
	require.Len(t, route.Warnings, 1)
	require.Zero(t, route.EstimatedMinutes)
}

func TestOptimizeEstimatesMinutesPerStop(t *testing.T) {
	lines := []LineContext{
		{LineID: 1, EAN: "a", Location: loc("A", 1, 1, 5)},
		{LineID: 2, EAN: "b", Location: loc("B", 1, 1, 5)},
		{LineID: 3, EAN: "c", Location: loc("C", 1, 1, 5)},
	}
	route := Optimize(7, lines)
	require.InDelta(t, 4.5, route.EstimatedMinutes, 0.0001)
}
