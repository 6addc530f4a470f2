package picking

import "fmt"

// Validate checks whether each line's resolved location covers the requested
// quantity. Read-only and idempotent: the same input always yields the same
// report.
func Validate(orderID int64, lines []LineContext) ValidationReport {
	report := ValidationReport{OrderID: orderID, CanComplete: true}
	for _, line := range lines {
		lr := LineReport{LineID: line.LineID, EAN: line.EAN}
		if line.Location == nil {
			lr.Issues = append(lr.Issues, Issue{
				Code:     IssueNoLocation,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("no storage location resolved for EAN %s", line.EAN),
			})
		} else {
			if line.Location.StockQty < line.QtyRequested {
				lr.Issues = append(lr.Issues, Issue{
					Code:     IssueInsufficientStock,
					Severity: SeverityError,
					Message: fmt.Sprintf("location %s has %d units, %d requested",
						line.Location.Code, line.Location.StockQty, line.QtyRequested),
				})
			}
			if !line.Location.Active {
				lr.Issues = append(lr.Issues, Issue{
					Code:     IssueInactiveLocation,
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("location %s is inactive", line.Location.Code),
				})
			}
		}
		if line.Product != nil && !line.Product.Active {
			lr.Issues = append(lr.Issues, Issue{
				Code:     IssueInactiveProduct,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("product for EAN %s is inactive", line.EAN),
			})
		}
		lr.CanPick = len(lr.Issues) == 0
		if !lr.CanPick {
			report.CanComplete = false
		}
		report.Lines = append(report.Lines, lr)
	}
	return report
}
