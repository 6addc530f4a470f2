package picking

import (
	"fmt"
	"sort"
)

// minutesPerStop is the fixed heuristic duration of one route stop.
const minutesPerStop = 1.5

// Optimize derives the pick sequence for an order. Lines are grouped by
// aisle, aisles visited in lexicographic order; within an aisle, lower pick
// priority goes first and lower shelves before higher ones. The sequence is
// numbered globally starting at 1 across aisle boundaries.
func Optimize(orderID int64, lines []LineContext) Route {
	route := Route{OrderID: orderID}

	byAisle := make(map[string][]LineContext)
	for _, line := range lines {
		if line.Location == nil || !line.Location.Active {
			route.Warnings = append(route.Warnings,
				fmt.Sprintf("line %d (EAN %s) excluded: no active location", line.LineID, line.EAN))
			continue
		}
		byAisle[line.Location.Aisle] = append(byAisle[line.Location.Aisle], line)
	}

	aisles := make([]string, 0, len(byAisle))
	for aisle := range byAisle {
		aisles = append(aisles, aisle)
	}
	sort.Strings(aisles)

	seq := 0
	for _, aisle := range aisles {
		group := byAisle[aisle]
		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i].Location, group[j].Location
			if a.PickPriority != b.PickPriority {
				return a.PickPriority < b.PickPriority
			}
			return a.ShelfHeight < b.ShelfHeight
		})
		for _, line := range group {
			seq++
			name := ""
			if line.Product != nil {
				name = line.Product.Name
			}
			route.Stops = append(route.Stops, Stop{
				Seq:            seq,
				LineID:         line.LineID,
				EAN:            line.EAN,
				ProductName:    name,
				Qty:            line.QtyRequested,
				LocationCode:   line.Location.Code,
				Aisle:          line.Location.Aisle,
				ShelfHeight:    line.Location.ShelfHeight,
				PickPriority:   line.Location.PickPriority,
				AvailableStock: line.Location.StockQty,
			})
		}
	}

	route.EstimatedMinutes = float64(len(route.Stops)) * minutesPerStop
	return route
}
