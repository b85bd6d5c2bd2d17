package timesheet

import (
	"sort"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// PAY PERIOD SUMMARY - Frozen view of the stored sheets in a pay period
// =============================================================================

// PayPeriodSummary aggregates every stored record whose week starts inside a
// pay period. Confirmation requires every one of them to be approved.
type PayPeriodSummary struct {
	Period       generic.Period
	Timesheets   int
	StatusCounts map[Status]int
	Pending      int

	// Hours per hour type across all sheets, normalized the same way the
	// grid normalizes cells.
	Hours map[HourType]generic.Amount
	Total generic.Amount

	Reimbursements generic.Amount
	Owners         []OwnerSummary
}

// OwnerSummary is one owner's share of a pay period.
type OwnerSummary struct {
	OwnerID        string
	Timesheets     int
	Hours          generic.Amount
	Reimbursements generic.Amount
}

// Ready reports whether the period may be confirmed.
func (s PayPeriodSummary) Ready() bool { return s.Pending == 0 }

// SummarizePayPeriod builds the summary. Records outside the period are ignored.
func SummarizePayPeriod(p generic.Period, records []StoredRecord) PayPeriodSummary {
	sum := PayPeriodSummary{
		Period:         p,
		StatusCounts:   make(map[Status]int),
		Hours:          make(map[HourType]generic.Amount),
		Total:          generic.Zero(generic.UnitHours),
		Reimbursements: generic.Zero(generic.UnitDollars),
	}
	owners := make(map[string]*OwnerSummary)

	for _, r := range records {
		weekStart, err := generic.ParseDate(r.WeekStart)
		if err != nil || !p.Contains(weekStart) {
			continue
		}
		status := r.Status
		if status == "" {
			status = StatusNew
		}
		sum.Timesheets++
		sum.StatusCounts[status]++
		if status != StatusApproved {
			sum.Pending++
		}

		o, ok := owners[r.OwnerID]
		if !ok {
			o = &OwnerSummary{
				OwnerID:        r.OwnerID,
				Hours:          generic.Zero(generic.UnitHours),
				Reimbursements: generic.Zero(generic.UnitDollars),
			}
			owners[r.OwnerID] = o
		}
		o.Timesheets++

		for _, e := range r.Entries {
			row := generic.Zero(generic.UnitHours)
			for _, n := range e.Days() {
				row = row.Add(NormalizeNumber(n).Value())
			}
			if prev, ok := sum.Hours[e.HourType]; ok {
				sum.Hours[e.HourType] = prev.Add(row)
			} else {
				sum.Hours[e.HourType] = row
			}
			sum.Total = sum.Total.Add(row)
			o.Hours = o.Hours.Add(row)
		}
		for _, it := range r.ReimbursementItems {
			amt := generic.NewAmountFromDecimal(it.Amount.OrZero(), generic.UnitDollars).RoundCents()
			sum.Reimbursements = sum.Reimbursements.Add(amt)
			o.Reimbursements = o.Reimbursements.Add(amt)
		}
	}

	sum.Owners = make([]OwnerSummary, 0, len(owners))
	for _, o := range owners {
		sum.Owners = append(sum.Owners, *o)
	}
	sort.Slice(sum.Owners, func(i, j int) bool { return sum.Owners[i].OwnerID < sum.Owners[j].OwnerID })
	return sum
}
