package timesheet_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// WORKFLOW TESTS
// =============================================================================

func TestStatus_CanTransition(t *testing.T) {
	allowed := map[timesheet.Status][]timesheet.Status{
		timesheet.StatusNew:           {timesheet.StatusSubmitted},
		timesheet.StatusSubmitted:     {timesheet.StatusApproved, timesheet.StatusNeedsApproval},
		timesheet.StatusNeedsApproval: {timesheet.StatusSubmitted, timesheet.StatusApproved},
		timesheet.StatusApproved:      {timesheet.StatusSubmitted},
	}
	all := []timesheet.Status{timesheet.StatusNew, timesheet.StatusSubmitted, timesheet.StatusNeedsApproval, timesheet.StatusApproved}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestStore_Transition(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Transition(timesheet.StatusSubmitted))
	assert.False(t, store.IsEditable())

	err := store.Transition(timesheet.StatusNew)
	assert.ErrorIs(t, err, generic.ErrInvalidTransition)

	require.NoError(t, store.Transition(timesheet.StatusNeedsApproval))
	assert.True(t, store.IsEditable(), "returned sheets are editable again")

	store.SetPayPeriodLocked(true)
	err = store.Transition(timesheet.StatusSubmitted)
	assert.ErrorIs(t, err, generic.ErrReadOnly)
	assert.Equal(t, timesheet.StatusNeedsApproval, store.Status())
}

func TestAuditAction(t *testing.T) {
	assert.Equal(t, generic.AuditTimesheetSubmitted, timesheet.AuditAction(timesheet.StatusNew, timesheet.StatusSubmitted))
	assert.Equal(t, generic.AuditTimesheetSubmitted, timesheet.AuditAction(timesheet.StatusNeedsApproval, timesheet.StatusSubmitted))
	assert.Equal(t, generic.AuditTimesheetApproved, timesheet.AuditAction(timesheet.StatusSubmitted, timesheet.StatusApproved))
	assert.Equal(t, generic.AuditTimesheetReturned, timesheet.AuditAction(timesheet.StatusSubmitted, timesheet.StatusNeedsApproval))
	assert.Equal(t, generic.AuditTimesheetReopened, timesheet.AuditAction(timesheet.StatusApproved, timesheet.StatusSubmitted))
}

func TestIsReviewStep(t *testing.T) {
	assert.False(t, timesheet.IsReviewStep(timesheet.StatusNew, timesheet.StatusSubmitted))
	assert.False(t, timesheet.IsReviewStep(timesheet.StatusNeedsApproval, timesheet.StatusSubmitted))
	assert.True(t, timesheet.IsReviewStep(timesheet.StatusSubmitted, timesheet.StatusApproved))
	assert.True(t, timesheet.IsReviewStep(timesheet.StatusSubmitted, timesheet.StatusNeedsApproval))
	assert.True(t, timesheet.IsReviewStep(timesheet.StatusApproved, timesheet.StatusSubmitted))
}

func TestCanReview(t *testing.T) {
	assert.True(t, timesheet.CanReview(timesheet.RoleAdmin, timesheet.RoleStaff))
	assert.True(t, timesheet.CanReview(timesheet.RoleAdmin, timesheet.RoleTrainee))
	assert.True(t, timesheet.CanReview(timesheet.RoleSupport, timesheet.RoleTrainee))
	assert.False(t, timesheet.CanReview(timesheet.RoleSupport, timesheet.RoleStaff))
	assert.False(t, timesheet.CanReview(timesheet.RoleStaff, timesheet.RoleTrainee))
	assert.False(t, timesheet.CanReview(timesheet.RoleTrainee, timesheet.RoleTrainee))
}

func TestPayPeriodLocked(t *testing.T) {
	confirmed := []generic.PayPeriod{{Period: generic.NewPayPeriod(generic.NewTimePoint(2025, time.December, 21))}}

	assert.True(t, timesheet.PayPeriodLocked(generic.NewTimePoint(2025, time.December, 28), confirmed))
	assert.False(t, timesheet.PayPeriodLocked(week, confirmed))
	assert.False(t, timesheet.PayPeriodLocked(week, nil))
}

// =============================================================================
// CATALOG AND ROLE TESTS
// =============================================================================

func TestCatalog_Default(t *testing.T) {
	c := timesheet.DefaultCatalog()

	assert.True(t, c.IsRestricted(timesheet.RoleTrainee))
	assert.False(t, c.IsRestricted(timesheet.RoleStaff))
	assert.Equal(t, []timesheet.HourType{timesheet.HourTypeTraining}, c.ForRole(timesheet.RoleTrainee))
	assert.Equal(t, timesheet.DefaultHourTypes, c.ForRole(timesheet.RoleAdmin))
	assert.True(t, c.Allows(timesheet.RoleTrainee, timesheet.HourTypeTraining))
	assert.False(t, c.Allows(timesheet.RoleTrainee, timesheet.HourTypeWork))
	assert.Equal(t, map[timesheet.Role]timesheet.HourType{timesheet.RoleTrainee: timesheet.HourTypeTraining}, c.Restrictions())
}

func TestCatalog_DropsDuplicates(t *testing.T) {
	c := timesheet.NewCatalog([]timesheet.HourType{"Work", "PTO", "Work", ""}, nil)

	assert.Equal(t, []timesheet.HourType{"Work", "PTO"}, c.HourTypes())
	assert.False(t, c.IsRestricted(timesheet.RoleTrainee))
}

func TestParseRole(t *testing.T) {
	r, err := timesheet.ParseRole(" Trainee ")
	require.NoError(t, err)
	assert.Equal(t, timesheet.RoleTrainee, r)

	r, err = timesheet.ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, timesheet.RoleStaff, r)

	_, err = timesheet.ParseRole("owner")
	assert.Error(t, err)
}

func TestNormalizeExpenseType(t *testing.T) {
	assert.Equal(t, timesheet.ExpenseFlight, timesheet.NormalizeExpenseType("flight"))
	assert.Equal(t, timesheet.ExpenseOther, timesheet.NormalizeExpenseType("Snacks"))
	assert.Equal(t, timesheet.ExpenseOther, timesheet.NormalizeExpenseType(""))
	assert.Len(t, timesheet.ExpenseTypes(), 8)
}
