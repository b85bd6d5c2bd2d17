/*
store.go - Persistence interfaces for calendar data and the audit trail

PURPOSE:
  Defines the interface between the timesheet core and the database for
  the data the core only reads: configured holidays and confirmed pay
  periods. Also defines the audit log written by the workflow endpoints.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  HolidayStore:   Configured holidays (feeds HolidayCalendar)
  PayPeriodStore: Confirmed pay periods (drives pay-period locking)
  AuditLog:       Who submitted, approved or confirmed what, and when

CONFIRMATION IS PERMANENT:
  PayPeriodStore has no Unconfirm. Once a pay period is confirmed every
  timesheet whose week starts inside it stays read-only.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - store/memory/memory.go: In-memory for tests and the CLI

SEE ALSO:
  - timesheet/repository.go: Timesheet record persistence
  - period.go: PayPeriod, LockedBy
*/
package generic

import "context"

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayStore interface {
	// ListHolidays returns every configured holiday ordered by date.
	ListHolidays(ctx context.Context) ([]Holiday, error)

	// SaveHoliday inserts or replaces a holiday, assigning an ID when empty.
	SaveHoliday(ctx context.Context, h Holiday) (Holiday, error)

	// DeleteHoliday returns ErrNotFound for an unknown ID.
	DeleteHoliday(ctx context.Context, id string) error
}

// LoadCalendar snapshots a HolidayStore into an in-memory calendar.
func LoadCalendar(ctx context.Context, s HolidayStore) (*StaticHolidayCalendar, error) {
	holidays, err := s.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	return NewStaticHolidayCalendar(holidays...), nil
}

// =============================================================================
// PAY PERIODS
// =============================================================================

type PayPeriodStore interface {
	// ConfirmPayPeriod records a confirmation. Confirming the same period twice
	// returns ErrConflict; an invalid period returns a *PayPeriodError.
	ConfirmPayPeriod(ctx context.Context, pp PayPeriod) error

	// ConfirmedPayPeriods returns every confirmed period ordered by start.
	ConfirmedPayPeriods(ctx context.Context) ([]PayPeriod, error)
}

// =============================================================================
// AUDIT LOG - Tracks who did what when
// =============================================================================

// AuditEntry records who did what when.
type AuditEntry struct {
	ID          string
	Timestamp   TimePoint
	ActorID     string // who performed the action
	Action      AuditAction
	TimesheetID string
	Payload     map[string]any // action-specific data
}

type AuditAction string

const (
	AuditTimesheetSaved     AuditAction = "timesheet_saved"
	AuditTimesheetSubmitted AuditAction = "timesheet_submitted"
	AuditTimesheetApproved  AuditAction = "timesheet_approved"
	AuditTimesheetReturned  AuditAction = "timesheet_returned"
	AuditTimesheetReopened  AuditAction = "timesheet_reopened"
	AuditPayPeriodConfirmed AuditAction = "pay_period_confirmed"
	AuditHolidayChanged     AuditAction = "holiday_changed"
	AuditNotesChanged       AuditAction = "notes_changed"
)

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	QueryAudit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

type AuditFilter struct {
	TimesheetID *string
	ActorID     *string
	Actions     []AuditAction
	From        *TimePoint
	To          *TimePoint
}

// Matches reports whether an entry passes every set criterion.
func (f AuditFilter) Matches(e AuditEntry) bool {
	if f.TimesheetID != nil && e.TimesheetID != *f.TimesheetID {
		return false
	}
	if f.ActorID != nil && e.ActorID != *f.ActorID {
		return false
	}
	if len(f.Actions) > 0 {
		found := false
		for _, a := range f.Actions {
			if a == e.Action {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Timestamp.After(*f.To) {
		return false
	}
	return true
}
