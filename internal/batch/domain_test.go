package batch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeSumsDuplicateSKUs(t *testing.T) {
	merged := Merge([]ReportEntry{
		{SKU: "X", QtyServed: 10, BoxCode: "BX1"},
		{SKU: "X", QtyServed: 5, BoxCode: "BX2"},
	})
	require.Len(t, merged, 1)
	require.Equal(t, "X", merged[0].SKU)
	require.Equal(t, 15, merged[0].Total)
	require.Len(t, merged[0].Instructions, 2)
	require.Equal(t, Instruction{BoxCode: "BX1", Qty: 10}, merged[0].Instructions[0])
	require.Equal(t, Instruction{BoxCode: "BX2", Qty: 5}, merged[0].Instructions[1])
}

func TestMergeAccumulatesSameBox(t *testing.T) {
	merged := Merge([]ReportEntry{
		{SKU: "X", QtyServed: 3, BoxCode: "BX1"},
		{SKU: "X", QtyServed: 4, BoxCode: "BX1"},
	})
	require.Len(t, merged, 1)
	require.Equal(t, 7, merged[0].Total)
	require.Len(t, merged[0].Instructions, 1)
	require.Equal(t, 7, merged[0].Instructions[0].Qty)
}

func TestMergePreservesFirstSeenOrder(t *testing.T) {
	merged := Merge([]ReportEntry{
		{SKU: "B", QtyServed: 1, BoxCode: "BX1"},
		{SKU: "A", QtyServed: 1, BoxCode: "BX1"},
		{SKU: "B", QtyServed: 1, BoxCode: "BX2"},
	})
	require.Len(t, merged, 2)
	require.Equal(t, "B", merged[0].SKU)
	require.Equal(t, "A", merged[1].SKU)
	require.Equal(t, "BX1", merged[0].FirstBox())
}

func TestMergeEntriesWithoutBoxCode(t *testing.T) {
	merged := Merge([]ReportEntry{{SKU: "X", QtyServed: 5}})
	require.Equal(t, 5, merged[0].Total)
	require.Empty(t, merged[0].Instructions)
	require.Equal(t, "", merged[0].FirstBox())
}
