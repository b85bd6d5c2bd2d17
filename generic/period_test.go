package generic_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
)

func date(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

// =============================================================================
// WEEK TESTS
// =============================================================================

func TestWeekOf_SundayToSaturday(t *testing.T) {
	week := generic.WeekOf(date(2026, time.January, 4))

	assert.Equal(t, "2026-01-04", week.Start.String())
	assert.Equal(t, "2026-01-10", week.End.String())
	assert.Equal(t, 7, week.Length())
	assert.Len(t, week.Days(), 7)
	assert.Equal(t, time.Saturday, week.End.Weekday())
}

func TestStartOfWeek(t *testing.T) {
	assert.Equal(t, "2026-01-04", generic.StartOfWeek(date(2026, time.January, 7)).String())
	assert.Equal(t, "2026-01-04", generic.StartOfWeek(date(2026, time.January, 4)).String())
	assert.Equal(t, "2026-01-04", generic.StartOfWeek(date(2026, time.January, 10)).String())
}

func TestDateOf(t *testing.T) {
	ws := date(2026, time.January, 4)
	assert.Equal(t, "2026-01-05", generic.DateOf(ws, generic.Monday).String())
	assert.Equal(t, "2026-01-10", generic.DateOf(ws, generic.Saturday).String())
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want generic.Weekday
	}{
		{"sun", generic.Sunday},
		{"Mon", generic.Monday},
		{"wednesday", generic.Wednesday},
		{"6", generic.Saturday},
		{" fri ", generic.Friday},
	}
	for _, tt := range tests {
		got, err := generic.ParseWeekday(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "7", "funday", "-1"} {
		_, err := generic.ParseWeekday(bad)
		assert.Error(t, err, bad)
	}
}

func TestWeekday_KeyAndValid(t *testing.T) {
	assert.Equal(t, "mon", generic.Monday.Key())
	assert.Equal(t, "Monday", generic.Monday.String())
	assert.False(t, generic.Weekday(7).Valid())
	assert.False(t, generic.Weekday(-1).Valid())
}

func TestParseDate(t *testing.T) {
	d, err := generic.ParseDate("2026-01-04")
	require.NoError(t, err)
	assert.True(t, d.IsSunday())

	d, err = generic.ParseDate("2026-01-04T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-04", d.String())

	_, err = generic.ParseDate("01/04/2026")
	assert.Error(t, err)
}

// =============================================================================
// HOLIDAY CALENDAR TESTS
// =============================================================================

func TestStaticHolidayCalendar(t *testing.T) {
	cal := generic.NewStaticHolidayCalendar(
		generic.Holiday{Date: date(2020, time.December, 25), Name: "Christmas Day", Recurring: true},
		generic.Holiday{Date: date(2026, time.January, 19), Name: "MLK Day"},
		generic.Holiday{Date: date(2026, time.December, 25), Name: "Company Christmas"},
	)

	name, ok := cal.HolidayOn(date(2027, time.December, 25))
	assert.True(t, ok)
	assert.Equal(t, "Christmas Day", name, "recurring holiday matches any year")

	name, ok = cal.HolidayOn(date(2026, time.December, 25))
	assert.True(t, ok)
	assert.Equal(t, "Company Christmas", name, "exact-date holiday wins over recurring")

	name, ok = cal.HolidayOn(date(2026, time.January, 19))
	assert.True(t, ok)
	assert.Equal(t, "MLK Day", name)

	_, ok = cal.HolidayOn(date(2027, time.January, 19))
	assert.False(t, ok, "non-recurring holiday does not repeat")

	assert.Len(t, cal.Holidays(), 3)
}

func TestDefaultHolidayCalendar_NeverMatches(t *testing.T) {
	_, ok := generic.DefaultHolidayCalendar{}.HolidayOn(date(2026, time.December, 25))
	assert.False(t, ok)
}

// =============================================================================
// PAY PERIOD TESTS
// =============================================================================

func TestNewPayPeriod_FourteenDays(t *testing.T) {
	pp := generic.NewPayPeriod(date(2026, time.January, 4))

	assert.Equal(t, "2026-01-17", pp.End.String())
	assert.Equal(t, generic.PayPeriodDays, pp.Length())
	assert.NoError(t, generic.ValidatePayPeriod(pp))
}

func TestValidatePayPeriod_Rejects(t *testing.T) {
	// Not a Sunday
	err := generic.ValidatePayPeriod(generic.NewPayPeriod(date(2026, time.January, 5)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrInvalidPayPeriod))
	var ppErr *generic.PayPeriodError
	assert.ErrorAs(t, err, &ppErr)

	// Wrong length
	err = generic.ValidatePayPeriod(generic.WeekOf(date(2026, time.January, 4)))
	assert.ErrorIs(t, err, generic.ErrInvalidPayPeriod)
}

func TestLockedBy(t *testing.T) {
	// GIVEN: The pay period Jan 4 - Jan 17 2026 is confirmed
	// WHEN: Checking weeks starting Jan 4, Jan 11 and Jan 18
	// THEN: The first two are locked, the third is not

	confirmed := []generic.PayPeriod{{Period: generic.NewPayPeriod(date(2026, time.January, 4)), ConfirmedBy: "payroll"}}

	pp, locked := generic.LockedBy(date(2026, time.January, 4), confirmed)
	assert.True(t, locked)
	assert.Equal(t, "payroll", pp.ConfirmedBy)

	_, locked = generic.LockedBy(date(2026, time.January, 11), confirmed)
	assert.True(t, locked)

	_, locked = generic.LockedBy(date(2026, time.January, 18), confirmed)
	assert.False(t, locked)

	_, locked = generic.LockedBy(generic.TimePoint{}, confirmed)
	assert.False(t, locked, "an unanchored sheet is never locked")
}

func TestPeriod_Overlaps(t *testing.T) {
	a := generic.NewPayPeriod(date(2026, time.January, 4))
	b := generic.NewPayPeriod(date(2026, time.January, 18))
	c := generic.NewPayPeriod(date(2026, time.January, 11))

	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(b))
}

// =============================================================================
// ERROR CLASSIFICATION TESTS
// =============================================================================

func TestErrorClassification(t *testing.T) {
	malformed := &generic.MalformedRecordError{Problems: []string{"week_start: required"}}
	assert.ErrorIs(t, malformed, generic.ErrMalformedRecord)
	assert.True(t, generic.IsClientError(malformed))
	assert.Contains(t, malformed.Error(), "week_start: required")

	readOnly := &generic.ReadOnlyError{Operation: "setCell", Reason: "status SUBMITTED"}
	assert.ErrorIs(t, readOnly, generic.ErrReadOnly)
	assert.False(t, generic.IsClientError(readOnly))
	assert.Contains(t, readOnly.Error(), "setCell")

	assert.True(t, generic.IsNotFound(generic.ErrItemNotFound))
	assert.True(t, generic.IsNotFound(generic.ErrNotFound))
	assert.False(t, generic.IsNotFound(generic.ErrConflict))
}
