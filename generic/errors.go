/*
errors.go - Centralized error types for the timesheet engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The timesheet package returns these from rejected mutations; the api
  package maps them onto HTTP status codes.

ERROR CATEGORIES:
  1. Invariant guards - duplicate hour type, read-only sheet, unknown item.
     The core logs these and leaves state untouched.
  2. Input errors - malformed inbound records, invalid pay periods.
  3. Store errors - persistence lookups that found nothing.

USAGE:
  if errors.Is(err, generic.ErrReadOnly) {
      // sheet is submitted or its pay period is confirmed
  }

SEE ALSO:
  - timesheet/store.go: Returns ErrMalformedRecord, ErrReadOnly
  - timesheet/engine.go: Returns duplicate / role errors
  - api/handlers.go: Maps errors to status codes
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedRecord is returned when an inbound record cannot be loaded.
	ErrMalformedRecord = errors.New("malformed timesheet record")

	// ErrReadOnly is returned when a mutation targets a non-editable timesheet.
	ErrReadOnly = errors.New("timesheet is read-only")

	// ErrDuplicateHourType is returned when adding a row that already exists.
	ErrDuplicateHourType = errors.New("hour type already present")

	// ErrHourTypeNotAllowed is returned when the role may not use the hour type.
	ErrHourTypeNotAllowed = errors.New("hour type not available for role")

	// ErrHourTypeNotPresent is returned when editing a row that does not exist.
	ErrHourTypeNotPresent = errors.New("hour type not present")

	// ErrItemNotFound is returned for an unknown reimbursement item id.
	ErrItemNotFound = errors.New("reimbursement item not found")

	// ErrInvalidDay is returned for a day index outside Sunday..Saturday.
	ErrInvalidDay = errors.New("invalid day of week")

	// ErrInvalidField is returned when updating an unknown reimbursement field.
	ErrInvalidField = errors.New("invalid reimbursement field")

	// ErrInvalidPayPeriod is returned when a pay period is not a Sunday-anchored 14-day range.
	ErrInvalidPayPeriod = errors.New("invalid pay period")

	// ErrInvalidTransition is returned when a workflow status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotFound is returned when a stored record or session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a stored record collides with an existing one.
	ErrConflict = errors.New("conflict")

	// ErrPayPeriodNotReady is returned when confirming a pay period that still
	// has timesheets awaiting approval.
	ErrPayPeriodNotReady = errors.New("pay period has unapproved timesheets")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MalformedRecordError lists every problem found in an inbound record.
type MalformedRecordError struct {
	Problems []string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed timesheet record: %s", strings.Join(e.Problems, "; "))
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// ReadOnlyError names the operation that was refused and why.
type ReadOnlyError struct {
	Operation string
	Reason    string // "status SUBMITTED", "pay period locked"
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("%s refused: timesheet is read-only (%s)", e.Operation, e.Reason)
}

func (e *ReadOnlyError) Unwrap() error {
	return ErrReadOnly
}

// PayPeriodError describes a period that is not a valid pay period.
type PayPeriodError struct {
	Period Period
}

func (e *PayPeriodError) Error() string {
	return fmt.Sprintf("pay period %s must start on Sunday and span %d days", e.Period, PayPeriodDays)
}

func (e *PayPeriodError) Unwrap() error {
	return ErrInvalidPayPeriod
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedRecord) ||
		errors.Is(err, ErrDuplicateHourType) ||
		errors.Is(err, ErrHourTypeNotAllowed) ||
		errors.Is(err, ErrHourTypeNotPresent) ||
		errors.Is(err, ErrInvalidDay) ||
		errors.Is(err, ErrInvalidField) ||
		errors.Is(err, ErrInvalidPayPeriod) ||
		errors.Is(err, ErrPayPeriodNotReady) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrItemNotFound)
}
