package picking

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateCleanOrderCanComplete(t *testing.T) {
	lines := []LineContext{
		{LineID: 1, EAN: "111", QtyRequested: 5, Location: loc("A", 1, 1, 10), Product: &ProductInfo{Active: true}},
	}

	report := Validate(7, lines)
	require.True(t, report.CanComplete)
	require.True(t, report.Lines[0].CanPick)
	require.Empty(t, report.Lines[0].Issues)
}

func TestValidateInsufficientStockIsError(t *testing.T) {
	lines := []LineContext{
		{LineID: 1, EAN: "111", QtyRequested: 15, Location: loc("A", 1, 1, 10)},
	}

	report := Validate(7, lines)
	require.False(t, report.CanComplete)
	require.Len(t, report.Lines[0].Issues, 1)
	require.Equal(t, IssueInsufficientStock, report.Lines[0].Issues[0].Code)
	require.Equal(t, SeverityError, report.Lines[0].Issues[0].Severity)
}

func TestValidateMissingLocationIsWarning(t *testing.T) {
	report := Validate(7, []LineContext{{LineID: 1, EAN: "111", QtyRequested: 1}})
	require.False(t, report.CanComplete)
	require.Equal(t, IssueNoLocation, report.Lines[0].Issues[0].Code)
	require.Equal(t, SeverityWarning, report.Lines[0].Issues[0].Severity)
}

func TestValidateInactiveFlags(t *testing.T) {
	location := loc("A", 1, 1, 10)
	location.Active = false
	lines := []LineContext{
		{LineID: 1, EAN: "111", QtyRequested: 5, Location: location, Product: &ProductInfo{Active: false}},
	}

	report := Validate(7, lines)
	codes := []string{report.Lines[0].Issues[0].Code, report.Lines[0].Issues[1].Code}
	require.Contains(t, codes, IssueInactiveLocation)
	require.Contains(t, codes, IssueInactiveProduct)
	require.False(t, report.Lines[0].CanPick)
}

func TestValidateCanCompleteIsConjunction(t *testing.T) {
	lines := []LineContext{
		{LineID: 1, EAN: "111", QtyRequested: 5, Location: loc("A", 1, 1, 10)},
		{LineID: 2, EAN: "222", QtyRequested: 5},
	}

	report := Validate(7, lines)
	require.True(t, report.Lines[0].CanPick)
	require.False(t, report.Lines[1].CanPick)
	require.False(t, report.CanComplete)
}
