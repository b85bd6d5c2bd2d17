package generic

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - Calendar day abstraction
// =============================================================================

type TimePoint struct {
	Time time.Time
}

const DateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func TimePointOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint {
	return TimePointOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string. A full RFC 3339 timestamp is accepted
// and truncated to its calendar day.
func ParseDate(s string) (TimePoint, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return TimePointOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	return TimePointOf(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsSunday() bool        { return tp.Weekday() == time.Sunday }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }
func (tp TimePoint) MonthDay() string      { return tp.Time.Format("01-02") }

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.Time.Format(DateLayout)
}

// =============================================================================
// WEEK - Fixed Sunday..Saturday window
// =============================================================================

// Weekday indexes a day inside a week, Sunday = 0 ... Saturday = 6.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

const DaysPerWeek = 7

var weekdayKeys = [DaysPerWeek]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// AllWeekdays lists the week's days in grid order.
var AllWeekdays = [DaysPerWeek]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

func (d Weekday) Valid() bool { return d >= Sunday && d <= Saturday }

// Key returns the short wire name ("sun".."sat").
func (d Weekday) Key() string {
	if !d.Valid() {
		return fmt.Sprintf("day(%d)", int(d))
	}
	return weekdayKeys[d]
}

func (d Weekday) String() string {
	if !d.Valid() {
		return d.Key()
	}
	return time.Weekday(d).String()
}

// ParseWeekday accepts the short key ("mon"), the full English name or a 0-6 index.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, k := range weekdayKeys {
		if s == k || s == strings.ToLower(time.Weekday(i).String()) {
			return Weekday(i), nil
		}
	}
	if len(s) == 1 && s[0] >= '0' && s[0] <= '6' {
		return Weekday(s[0] - '0'), nil
	}
	return 0, fmt.Errorf("invalid day %q", s)
}

// StartOfWeek returns the Sunday on or before the given day.
func StartOfWeek(tp TimePoint) TimePoint {
	return tp.AddDays(-int(tp.Weekday()))
}

// DateOf returns the calendar date of a weekday in the week anchored at weekStart.
func DateOf(weekStart TimePoint, d Weekday) TimePoint {
	return weekStart.AddDays(int(d))
}

// =============================================================================
// HOLIDAY CALENDAR - Company-specific holidays
// =============================================================================

// Holiday represents a configured holiday date.
type Holiday struct {
	ID        string
	Date      TimePoint // The holiday date
	Name      string    // e.g., "Christmas Day", "Independence Day"
	Recurring bool      // true = same month/day every year
}

// Matches reports whether the holiday falls on the given date.
func (h Holiday) Matches(date TimePoint) bool {
	if h.Recurring {
		return h.Date.MonthDay() == date.MonthDay()
	}
	return h.Date.Equal(date)
}

// HolidayCalendar provides holiday lookup functionality.
// The engine only queries it; configuration lives with the implementation.
type HolidayCalendar interface {
	// HolidayOn returns the holiday name for the date, if any.
	HolidayOn(date TimePoint) (string, bool)
}

// DefaultHolidayCalendar is a no-op calendar for when holidays are disabled.
type DefaultHolidayCalendar struct{}

func (DefaultHolidayCalendar) HolidayOn(TimePoint) (string, bool) { return "", false }

// StaticHolidayCalendar is an in-memory calendar built from a holiday list.
type StaticHolidayCalendar struct {
	holidays []Holiday
}

func NewStaticHolidayCalendar(holidays ...Holiday) *StaticHolidayCalendar {
	return &StaticHolidayCalendar{holidays: append([]Holiday(nil), holidays...)}
}

// HolidayOn prefers an exact-date holiday over a recurring one.
func (c *StaticHolidayCalendar) HolidayOn(date TimePoint) (string, bool) {
	var recurring string
	for _, h := range c.holidays {
		if !h.Matches(date) {
			continue
		}
		if !h.Recurring {
			return h.Name, true
		}
		if recurring == "" {
			recurring = h.Name
		}
	}
	return recurring, recurring != ""
}

// Holidays returns a copy of the configured holidays.
func (c *StaticHolidayCalendar) Holidays() []Holiday {
	return append([]Holiday(nil), c.holidays...)
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func DaysBetween(from, to TimePoint) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}
