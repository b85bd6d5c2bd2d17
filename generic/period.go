package generic

import "time"

// =============================================================================
// PERIOD - Closed range of calendar days
// =============================================================================

// Period is the inclusive day range [Start, End].
//
// Examples:
//   - A timesheet week: Sunday - Saturday
//   - A pay period: two consecutive weeks starting on a Sunday
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Overlaps returns true if the two periods share at least one day.
func (p Period) Overlaps(o Period) bool {
	return p.Start.BeforeOrEqual(o.End) && o.Start.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Length is the number of days in the period.
func (p Period) Length() int {
	return DaysBetween(p.Start, p.End) + 1
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// WeekOf returns the Sunday..Saturday week anchored at weekStart.
func WeekOf(weekStart TimePoint) Period {
	return Period{Start: weekStart, End: weekStart.AddDays(DaysPerWeek - 1)}
}

// =============================================================================
// PAY PERIOD - Two-week payroll window
// =============================================================================

const PayPeriodDays = 14

// PayPeriod is a confirmed payroll window. Once confirmed, every timesheet whose
// week starts inside it is locked.
type PayPeriod struct {
	Period
	ConfirmedBy string
	ConfirmedAt time.Time
}

// NewPayPeriod builds the 14-day period starting at start.
func NewPayPeriod(start TimePoint) Period {
	return Period{Start: start, End: start.AddDays(PayPeriodDays - 1)}
}

// ValidatePayPeriod checks that a period starts on a Sunday and spans 14 days.
func ValidatePayPeriod(p Period) error {
	if !p.Start.IsSunday() || p.Length() != PayPeriodDays {
		return &PayPeriodError{Period: p}
	}
	return nil
}

// LockedBy returns the confirmed pay period covering the date, if any.
func LockedBy(date TimePoint, confirmed []PayPeriod) (PayPeriod, bool) {
	if date.IsZero() {
		return PayPeriod{}, false
	}
	for _, pp := range confirmed {
		if pp.Contains(date) {
			return pp, true
		}
	}
	return PayPeriod{}, false
}
