package timesheet_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

func stored(owner, weekStart string, status timesheet.Status, entries ...timesheet.RecordEntry) timesheet.StoredRecord {
	return timesheet.StoredRecord{
		Record: timesheet.Record{
			WeekStart: weekStart,
			Status:    status,
			Entries:   entries,
		},
		OwnerID:   owner,
		OwnerRole: timesheet.RoleStaff,
	}
}

func TestSummarizePayPeriod_CountsAndTotals(t *testing.T) {
	// GIVEN: three sheets in the period and one outside it
	period := generic.NewPayPeriod(generic.NewTimePoint(2026, time.January, 4))
	records := []timesheet.StoredRecord{
		stored("alice", "2026-01-04", timesheet.StatusApproved,
			timesheet.RecordEntry{HourType: "Regular", Mon: timesheet.Number(8), Tue: timesheet.Number(7.5)}),
		stored("alice", "2026-01-11", timesheet.StatusSubmitted,
			timesheet.RecordEntry{HourType: "Regular", Mon: timesheet.Number(30)}),
		stored("bob", "2026-01-11", timesheet.StatusApproved,
			timesheet.RecordEntry{HourType: "Training", Wed: timesheet.Number(4.2)}),
		stored("bob", "2026-01-18", timesheet.StatusSubmitted,
			timesheet.RecordEntry{HourType: "Regular", Mon: timesheet.Number(8)}),
	}
	records[0].ReimbursementItems = []timesheet.RecordItem{{ID: "r1", Amount: timesheet.Number(12.345)}}

	// WHEN: summarizing
	sum := timesheet.SummarizePayPeriod(period, records)

	// THEN: only in-period sheets count and hours are normalized
	assert.Equal(t, 3, sum.Timesheets)
	assert.Equal(t, 1, sum.Pending)
	assert.False(t, sum.Ready())
	assert.Equal(t, 2, sum.StatusCounts[timesheet.StatusApproved])
	assert.Equal(t, 1, sum.StatusCounts[timesheet.StatusSubmitted])

	assert.Equal(t, "39.5", timesheet.FormatHours(sum.Hours["Regular"]))
	assert.Equal(t, "4.0", timesheet.FormatHours(sum.Hours["Training"]))
	assert.Equal(t, "43.5", timesheet.FormatHours(sum.Total))
	assert.Equal(t, "12.35", timesheet.FormatMoney(sum.Reimbursements))

	require.Len(t, sum.Owners, 2)
	assert.Equal(t, "alice", sum.Owners[0].OwnerID)
	assert.Equal(t, 2, sum.Owners[0].Timesheets)
	assert.Equal(t, "39.5", timesheet.FormatHours(sum.Owners[0].Hours))
	assert.Equal(t, "bob", sum.Owners[1].OwnerID)
	assert.Equal(t, "4.0", timesheet.FormatHours(sum.Owners[1].Hours))
}

func TestSummarizePayPeriod_EmptyIsReady(t *testing.T) {
	period := generic.NewPayPeriod(generic.NewTimePoint(2026, time.January, 4))

	sum := timesheet.SummarizePayPeriod(period, nil)

	assert.True(t, sum.Ready())
	assert.Zero(t, sum.Timesheets)
	assert.Empty(t, sum.Owners)
	assert.True(t, sum.Total.IsZero())
}

func TestSummarizePayPeriod_BlankStatusIsPending(t *testing.T) {
	period := generic.NewPayPeriod(generic.NewTimePoint(2026, time.January, 4))

	sum := timesheet.SummarizePayPeriod(period, []timesheet.StoredRecord{stored("carol", "2026-01-04", "")})

	assert.Equal(t, 1, sum.StatusCounts[timesheet.StatusNew])
	assert.Equal(t, 1, sum.Pending)
}
