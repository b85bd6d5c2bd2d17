// Package timesheet implements the weekly timesheet form: the session state
// store, the aggregation engine that derives totals and enforces entry rules,
// and the record shapes exchanged with persistence.
package timesheet

import (
	"fmt"
	"strings"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// HOUR TYPES - Rows of the grid
// =============================================================================

// HourType names a bucket of work and forms one row of the entry grid.
type HourType string

const (
	HourTypeWork     HourType = "Work"
	HourTypeField    HourType = "Field"
	HourTypeTraining HourType = "Training"
	HourTypePTO      HourType = "PTO"
	HourTypeHoliday  HourType = "Holiday"
	HourTypeUnpaid   HourType = "Unpaid"
)

// =============================================================================
// ROLES
// =============================================================================

// Role is supplied by the caller; the engine never looks it up.
type Role string

const (
	RoleStaff   Role = "staff"
	RoleTrainee Role = "trainee"
	RoleSupport Role = "support"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStaff, RoleTrainee, RoleSupport, RoleAdmin:
		return true
	}
	return false
}

// ParseRole is case-insensitive; an empty string means staff.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleStaff, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// =============================================================================
// STATUS - External approval workflow
// =============================================================================

type Status string

const (
	StatusNew           Status = "NEW"
	StatusSubmitted     Status = "SUBMITTED"
	StatusNeedsApproval Status = "NEEDS_APPROVAL"
	StatusApproved      Status = "APPROVED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusSubmitted, StatusNeedsApproval, StatusApproved:
		return true
	}
	return false
}

// AllowsEditing reports whether the workflow status alone permits edits.
// Pay-period locking is applied on top of this, see Timesheet.Editable.
func (s Status) AllowsEditing() bool {
	return s == StatusNew || s == StatusNeedsApproval
}

// =============================================================================
// REIMBURSEMENT EXPENSE TYPES
// =============================================================================

type ExpenseType string

const (
	ExpenseCar     ExpenseType = "Car"
	ExpenseGas     ExpenseType = "Gas"
	ExpenseHotel   ExpenseType = "Hotel"
	ExpenseFlight  ExpenseType = "Flight"
	ExpenseFood    ExpenseType = "Food"
	ExpenseParking ExpenseType = "Parking"
	ExpenseToll    ExpenseType = "Toll"
	ExpenseOther   ExpenseType = "Other"
)

var expenseTypes = []ExpenseType{
	ExpenseCar, ExpenseGas, ExpenseHotel, ExpenseFlight,
	ExpenseFood, ExpenseParking, ExpenseToll, ExpenseOther,
}

// ExpenseTypes lists the accepted reimbursement categories.
func ExpenseTypes() []ExpenseType {
	return append([]ExpenseType(nil), expenseTypes...)
}

// NormalizeExpenseType maps free text onto a known category; unknown or empty
// input becomes Other.
func NormalizeExpenseType(s string) ExpenseType {
	s = strings.TrimSpace(s)
	for _, t := range expenseTypes {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	return ExpenseOther
}

// MaxDescriptionLength bounds reimbursement item descriptions.
const MaxDescriptionLength = 200

// ReimbursementItem is one expense line, independent of the day grid.
type ReimbursementItem struct {
	ID          string
	Description string
	Amount      generic.Amount
	Category    ExpenseType
	Date        generic.TimePoint
}

// =============================================================================
// CELLS AND ROWS
// =============================================================================

// Cell is one committed day value. An empty cell counts as zero in totals
// but renders as blank.
type Cell struct {
	Hours  generic.Amount
	Filled bool
}

func EmptyCell() Cell { return Cell{Hours: generic.Zero(generic.UnitHours)} }

func FilledCell(h generic.Amount) Cell { return Cell{Hours: h, Filled: true} }

// Value is the cell's contribution to totals.
func (c Cell) Value() generic.Amount {
	if !c.Filled {
		return generic.Zero(generic.UnitHours)
	}
	return c.Hours
}

func (c Cell) Equal(o Cell) bool {
	return c.Filled == o.Filled && c.Value().Equal(o.Value())
}

// Display renders the cell for an input field: blank when empty.
func (c Cell) Display() string {
	if !c.Filled {
		return ""
	}
	return c.Hours.Value.String()
}

// Row holds the seven day cells of one hour type, Sunday first.
type Row [generic.DaysPerWeek]Cell

func NewRow() Row {
	var r Row
	for i := range r {
		r[i] = EmptyCell()
	}
	return r
}

func (r Row) Total() generic.Amount {
	total := generic.Zero(generic.UnitHours)
	for _, c := range r {
		total = total.Add(c.Value())
	}
	return total
}

// HasPositive reports whether any day is strictly greater than zero.
func (r Row) HasPositive() bool {
	for _, c := range r {
		if c.Value().IsPositive() {
			return true
		}
	}
	return false
}

// =============================================================================
// TIMESHEET - Session draft
// =============================================================================

// Timesheet is the in-memory draft being edited. HourTypes is the ordered
// category set and always equals the key set of Entries.
type Timesheet struct {
	ID                 string
	WeekStart          generic.TimePoint
	Status             Status
	PayPeriodLocked    bool
	HourTypes          []HourType
	Entries            map[HourType]*Row
	ReimbursementItems []ReimbursementItem
	Dirty              bool
}

func newTimesheet(weekStart generic.TimePoint) Timesheet {
	return Timesheet{
		WeekStart: weekStart,
		Status:    StatusNew,
		Entries:   make(map[HourType]*Row),
	}
}

// Editable is derived, never stored.
func (t *Timesheet) Editable() bool {
	return !t.PayPeriodLocked && t.Status.AllowsEditing()
}

// ReadOnlyReason explains why Editable is false; empty when editable.
func (t *Timesheet) ReadOnlyReason() string {
	switch {
	case t.PayPeriodLocked:
		return "pay period locked"
	case !t.Status.AllowsEditing():
		return "status " + string(t.Status)
	}
	return ""
}

func (t *Timesheet) Has(ht HourType) bool {
	_, ok := t.Entries[ht]
	return ok
}

// Week returns the Sunday..Saturday range of the sheet.
func (t *Timesheet) Week() generic.Period {
	return generic.WeekOf(t.WeekStart)
}

func (t *Timesheet) clone() Timesheet {
	c := *t
	c.HourTypes = append([]HourType(nil), t.HourTypes...)
	c.Entries = make(map[HourType]*Row, len(t.Entries))
	for ht, row := range t.Entries {
		r := *row
		c.Entries[ht] = &r
	}
	c.ReimbursementItems = append([]ReimbursementItem(nil), t.ReimbursementItems...)
	return c
}
