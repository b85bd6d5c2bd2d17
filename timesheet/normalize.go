package timesheet

import (
	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// COMMIT NORMALIZATION - Applied when a day input is finalized
// =============================================================================

var minHours = generic.Zero(generic.UnitHours)

// NormalizeHours turns raw day input into a committed cell: clamp to
// [0, 24], then round to the nearest half hour. Blank or non-numeric input
// yields an empty cell.
func NormalizeHours(input string) Cell {
	a, ok := generic.ParseAmount(input, generic.UnitHours)
	if !ok {
		return EmptyCell()
	}
	return NormalizeAmount(a)
}

func NormalizeAmount(a generic.Amount) Cell {
	a.Unit = generic.UnitHours
	return FilledCell(a.Quantize(generic.HalfHour, minHours, generic.MaxDailyHours))
}

// NormalizeNumber applies the same rule to a stored value; absent stays empty.
func NormalizeNumber(n LooseNumber) Cell {
	if !n.Valid {
		return EmptyCell()
	}
	return NormalizeAmount(generic.NewAmountFromDecimal(n.Value, generic.UnitHours))
}

// FormatHours renders hours with one decimal place ("16.0").
func FormatHours(a generic.Amount) string {
	return a.StringFixed(1)
}

// FormatMoney renders a reimbursement amount with cents ("42.10").
func FormatMoney(a generic.Amount) string {
	return a.StringFixed(2)
}
