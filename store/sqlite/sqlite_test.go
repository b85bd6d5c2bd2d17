package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/store/memory"
	"github.com/warp/timesheet-engine/store/sqlite"
	"github.com/warp/timesheet-engine/timesheet"
)

// Both repositories must behave the same; every test runs against each.
func repositories(t *testing.T) map[string]timesheet.Repository {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return map[string]timesheet.Repository{
		"sqlite": db,
		"memory": memory.New(),
	}
}

func sheet(owner, weekStart string, status timesheet.Status) timesheet.StoredRecord {
	return timesheet.StoredRecord{
		Record: timesheet.Record{
			WeekStart: weekStart,
			Status:    status,
			Entries: []timesheet.RecordEntry{
				{HourType: "Work", Mon: timesheet.Number(8), Tue: timesheet.Number(7.5)},
			},
			ReimbursementItems: []timesheet.RecordItem{
				{ID: "r1", Description: "Taxi", Amount: timesheet.Number(23.4), Category: "travel"},
			},
		},
		OwnerID:   owner,
		OwnerRole: timesheet.RoleStaff,
	}
}

// =============================================================================
// RECORD TESTS
// =============================================================================

func TestRecords_SaveGetFind(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			// GIVEN: a new record
			saved, err := repo.SaveRecord(ctx, sheet("alice", "2026-01-04", timesheet.StatusNew))
			require.NoError(t, err)
			require.NotEmpty(t, saved.ID)

			// WHEN: reading it back by ID and by owner/week
			got, err := repo.GetRecord(ctx, saved.ID)
			require.NoError(t, err)
			found, err := repo.FindRecord(ctx, "alice", generic.NewTimePoint(2026, time.January, 4))
			require.NoError(t, err)

			// THEN: entries and items survive intact
			assert.Equal(t, saved.ID, found.ID)
			assert.Equal(t, "2026-01-04", got.WeekStart)
			require.Len(t, got.Entries, 1)
			assert.Equal(t, "7.5", got.Entries[0].Tue.Value.String())
			assert.False(t, got.Entries[0].Sun.Valid)
			require.Len(t, got.ReimbursementItems, 1)
			assert.Equal(t, "Taxi", got.ReimbursementItems[0].Description)

			_, err = repo.GetRecord(ctx, "missing")
			assert.ErrorIs(t, err, generic.ErrNotFound)
			_, err = repo.FindRecord(ctx, "bob", generic.NewTimePoint(2026, time.January, 4))
			assert.ErrorIs(t, err, generic.ErrNotFound)
		})
	}
}

func TestRecords_UpdateAndConflict(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			saved, err := repo.SaveRecord(ctx, sheet("alice", "2026-01-04", timesheet.StatusNew))
			require.NoError(t, err)

			// Same ID replaces
			saved.Status = timesheet.StatusSubmitted
			_, err = repo.SaveRecord(ctx, saved)
			require.NoError(t, err)
			got, err := repo.GetRecord(ctx, saved.ID)
			require.NoError(t, err)
			assert.Equal(t, timesheet.StatusSubmitted, got.Status)

			// A second sheet for the same owner and week collides
			_, err = repo.SaveRecord(ctx, sheet("alice", "2026-01-04", timesheet.StatusNew))
			assert.ErrorIs(t, err, generic.ErrConflict)

			// Reusing the ID under another owner is refused and leaves the sheet alone
			hijack := sheet("mallory", "2026-01-04", timesheet.StatusNew)
			hijack.ID = saved.ID
			_, err = repo.SaveRecord(ctx, hijack)
			assert.ErrorIs(t, err, generic.ErrConflict)
			got, err = repo.GetRecord(ctx, saved.ID)
			require.NoError(t, err)
			assert.Equal(t, "alice", got.OwnerID)
			assert.Equal(t, timesheet.StatusSubmitted, got.Status)
		})
	}
}

func TestRecords_ListByOwnerAndPeriod(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			// GIVEN: sheets across two pay periods
			for _, r := range []timesheet.StoredRecord{
				sheet("alice", "2026-01-04", timesheet.StatusApproved),
				sheet("bob", "2026-01-11", timesheet.StatusSubmitted),
				sheet("alice", "2026-01-11", timesheet.StatusApproved),
				sheet("alice", "2026-01-18", timesheet.StatusNew),
			} {
				_, err := repo.SaveRecord(ctx, r)
				require.NoError(t, err)
			}

			// Owner listing is newest first
			mine, err := repo.ListRecords(ctx, "alice")
			require.NoError(t, err)
			var weeks []string
			for _, r := range mine {
				weeks = append(weeks, r.WeekStart)
			}
			assert.Equal(t, []string{"2026-01-18", "2026-01-11", "2026-01-04"}, weeks)

			// Period listing is bounded by the pay period and ordered by week then owner
			period := generic.NewPayPeriod(generic.NewTimePoint(2026, time.January, 4))
			inPeriod, err := repo.ListRecordsInPeriod(ctx, period)
			require.NoError(t, err)
			var keys []string
			for _, r := range inPeriod {
				keys = append(keys, r.WeekStart+"/"+r.OwnerID)
			}
			assert.Equal(t, []string{"2026-01-04/alice", "2026-01-11/alice", "2026-01-11/bob"}, keys)
		})
	}
}

func TestRecords_AdminNotesAndNotes(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			// GIVEN: a sheet sent back with a reviewer note
			saved, err := repo.SaveRecord(ctx, sheet("tina", "2026-01-04", timesheet.StatusNeedsApproval))
			require.NoError(t, err)
			require.NoError(t, repo.SetAdminNotes(ctx, saved.ID, "Missing Friday"))

			// WHEN: the owner saves the sheet again without the note
			saved.AdminNotes = ""
			resaved, err := repo.SaveRecord(ctx, saved)
			require.NoError(t, err)

			// THEN: the note survives the owner's save
			assert.Equal(t, "Missing Friday", resaved.AdminNotes)
			got, err := repo.GetRecord(ctx, saved.ID)
			require.NoError(t, err)
			assert.Equal(t, "Missing Friday", got.AdminNotes)

			assert.ErrorIs(t, repo.SetAdminNotes(ctx, "missing", "x"), generic.ErrNotFound)

			// Notes list oldest first and stay with their sheet
			first, err := repo.AddNote(ctx, timesheet.Note{TimesheetID: saved.ID, AuthorID: "sam", Content: "Needs approval: Missing Friday"})
			require.NoError(t, err)
			assert.NotEmpty(t, first.ID)
			assert.False(t, first.CreatedAt.IsZero())
			_, err = repo.AddNote(ctx, timesheet.Note{TimesheetID: saved.ID, AuthorID: "ada", Content: "Fixed now"})
			require.NoError(t, err)
			_, err = repo.AddNote(ctx, timesheet.Note{TimesheetID: "missing", Content: "x"})
			assert.ErrorIs(t, err, generic.ErrNotFound)

			notes, err := repo.ListNotes(ctx, saved.ID)
			require.NoError(t, err)
			require.Len(t, notes, 2)
			assert.Equal(t, "sam", notes[0].AuthorID)
			assert.Equal(t, "Fixed now", notes[1].Content)

			none, err := repo.ListNotes(ctx, "other")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

// =============================================================================
// CALENDAR AND AUDIT TESTS
// =============================================================================

func TestHolidays_OrderedAndDeletable(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			xmas, err := repo.SaveHoliday(ctx, generic.Holiday{Date: generic.NewTimePoint(2026, time.December, 25), Name: "Christmas Day", Recurring: true})
			require.NoError(t, err)
			_, err = repo.SaveHoliday(ctx, generic.Holiday{Date: generic.NewTimePoint(2026, time.January, 1), Name: "New Year's Day"})
			require.NoError(t, err)

			list, err := repo.ListHolidays(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "New Year's Day", list[0].Name)
			assert.True(t, list[1].Recurring)

			require.NoError(t, repo.DeleteHoliday(ctx, xmas.ID))
			assert.ErrorIs(t, repo.DeleteHoliday(ctx, xmas.ID), generic.ErrNotFound)
		})
	}
}

func TestPayPeriods_ConfirmOverlapAndAlignment(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			start := generic.NewTimePoint(2026, time.January, 4)
			require.NoError(t, repo.ConfirmPayPeriod(ctx, generic.PayPeriod{Period: generic.NewPayPeriod(start), ConfirmedBy: "payroll"}))

			// Overlap
			err := repo.ConfirmPayPeriod(ctx, generic.PayPeriod{Period: generic.NewPayPeriod(start.AddDays(7)), ConfirmedBy: "payroll"})
			assert.ErrorIs(t, err, generic.ErrConflict)

			// Not a Sunday
			err = repo.ConfirmPayPeriod(ctx, generic.PayPeriod{Period: generic.NewPayPeriod(start.AddDays(15)), ConfirmedBy: "payroll"})
			assert.ErrorIs(t, err, generic.ErrInvalidPayPeriod)

			periods, err := repo.ConfirmedPayPeriods(ctx)
			require.NoError(t, err)
			require.Len(t, periods, 1)
			assert.Equal(t, "payroll", periods[0].ConfirmedBy)
			assert.False(t, periods[0].ConfirmedAt.IsZero())
		})
	}
}

func TestAudit_FilterByTimesheet(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, repo.AppendAudit(ctx, generic.AuditEntry{ActorID: "alice", Action: generic.AuditTimesheetSubmitted, TimesheetID: "ts-1"}))
			require.NoError(t, repo.AppendAudit(ctx, generic.AuditEntry{ActorID: "ada", Action: generic.AuditTimesheetApproved, TimesheetID: "ts-1"}))
			require.NoError(t, repo.AppendAudit(ctx, generic.AuditEntry{ActorID: "bob", Action: generic.AuditTimesheetSubmitted, TimesheetID: "ts-2"}))

			id := "ts-1"
			entries, err := repo.QueryAudit(ctx, generic.AuditFilter{TimesheetID: &id})
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, generic.AuditTimesheetSubmitted, entries[0].Action)
			assert.Equal(t, generic.AuditTimesheetApproved, entries[1].Action)
			assert.NotEmpty(t, entries[0].ID)
		})
	}
}

func TestPing(t *testing.T) {
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Ping(context.Background()))
}
