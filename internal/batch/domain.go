// Package batch reconciles an external bulk fulfillment report against an
// order in a single transaction.
package batch

// ReportEntry is one row of the external report: a SKU, the quantity served,
// and optionally the box it was packed into.
type ReportEntry struct {
	SKU       string `json:"sku" validate:"required"`
	QtyServed int    `json:"quantity_served" validate:"min=0"`
	BoxCode   string `json:"box_code,omitempty"`
}

// Instruction is one distribution step for a merged SKU: put Qty units into
// the box named by BoxCode.
type Instruction struct {
	BoxCode string
	Qty     int
}

// MergedLine is the accumulated view of all report entries for one SKU. Total
// is the sum of the served quantities; Instructions preserves the caller's
// submission order, with repeated reports of the same box collapsed into one
// cumulative instruction.
type MergedLine struct {
	SKU          string
	Total        int
	Instructions []Instruction
}

// FirstBox returns the box named by the first distribution instruction in
// caller-submitted order, or "" when no entry carried a box code.
func (m MergedLine) FirstBox() string {
	if len(m.Instructions) == 0 {
		return ""
	}
	return m.Instructions[0].BoxCode
}

// Merge groups report entries by SKU, preserving first-seen order. The caller
// may report the same SKU split across several boxes, or several times for the
// same box to cumulatively add stock; both collapse into one MergedLine.
func Merge(entries []ReportEntry) []MergedLine {
	index := make(map[string]int, len(entries))
	var merged []MergedLine
	for _, entry := range entries {
		i, ok := index[entry.SKU]
		if !ok {
			i = len(merged)
			index[entry.SKU] = i
			merged = append(merged, MergedLine{SKU: entry.SKU})
		}
		merged[i].Total += entry.QtyServed
		if entry.BoxCode == "" {
			continue
		}
		found := false
		for j := range merged[i].Instructions {
			if merged[i].Instructions[j].BoxCode == entry.BoxCode {
				merged[i].Instructions[j].Qty += entry.QtyServed
				found = true
				break
			}
		}
		if !found {
			merged[i].Instructions = append(merged[i].Instructions, Instruction{BoxCode: entry.BoxCode, Qty: entry.QtyServed})
		}
	}
	return merged
}
