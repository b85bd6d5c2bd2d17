/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The grid itself is
  returned as timesheet.GridView; everything else is defined here.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry validator struct tags and are checked by decode()
  in handlers.go before any session is touched.

SEE ALSO:
  - handlers.go: Uses these types
  - timesheet/view.go: GridView
*/
package api

import (
	"time"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// SESSIONS
// =============================================================================

// OpenSessionRequest opens a form for an owner's week. When a record is
// already stored for that owner and week it is loaded.
type OpenSessionRequest struct {
	OwnerID   string `json:"owner_id" validate:"required"`
	Role      string `json:"role" validate:"omitempty,oneof=staff trainee support admin"`
	WeekStart string `json:"week_start" validate:"required,datetime=2006-01-02"`
}

// SessionDTO represents an open form.
type SessionDTO struct {
	ID        string             `json:"id"`
	OwnerID   string             `json:"owner_id"`
	Role      timesheet.Role     `json:"role"`
	CreatedAt time.Time          `json:"created_at"`
	Grid      timesheet.GridView `json:"grid"`
}

// LoadRequest replaces the session's sheet. Record wins when both are set.
// Record is validated by LoadTimesheet, not here.
type LoadRequest struct {
	Record      *timesheet.Record `json:"record,omitempty" validate:"-"`
	TimesheetID string            `json:"timesheet_id,omitempty" validate:"required_without=Record"`
}

// =============================================================================
// GRID EDITS
// =============================================================================

type AddHourTypeRequest struct {
	HourType string `json:"hour_type" validate:"required"`
}

// EntryRequest carries the raw text typed into a cell. Blank clears it.
type EntryRequest struct {
	Value string `json:"value"`
}

// EntryDTO is the committed cell and the totals it affects.
type EntryDTO struct {
	HourType    timesheet.HourType    `json:"hour_type"`
	Day         string                `json:"day"`
	Hours       string                `json:"hours"`
	RowTotal    string                `json:"row_total"`
	ColumnTotal string                `json:"column_total"`
	GrandTotal  string                `json:"grand_total"`
	Notice      *timesheet.NoticeView `json:"notice,omitempty"`
}

// =============================================================================
// REIMBURSEMENTS
// =============================================================================

type ReimbursementRequest struct {
	Description string `json:"description" validate:"max=200"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateReimbursementRequest struct {
	Field string `json:"field" validate:"required,oneof=description amount category date"`
	Value string `json:"value"`
}

// ReimbursementDTO is the updated item and the new sheet total.
type ReimbursementDTO struct {
	Item  timesheet.ItemView `json:"item"`
	Total string             `json:"total"`
}

// =============================================================================
// WORKFLOW
// =============================================================================

// TransitionRequest moves the sheet through the approval workflow. Status
// defaults to SUBMITTED. Reason is kept as the reviewer note when a sheet is
// sent back.
type TransitionRequest struct {
	Status    string `json:"status" validate:"omitempty,oneof=SUBMITTED NEEDS_APPROVAL APPROVED"`
	ActorID   string `json:"actor_id" validate:"required"`
	ActorRole string `json:"actor_role" validate:"omitempty,oneof=staff trainee support admin"`
	Reason    string `json:"reason" validate:"max=500"`
}

// TimesheetDTO summarizes a stored record.
type TimesheetDTO struct {
	ID        string           `json:"id"`
	OwnerID   string           `json:"owner_id"`
	OwnerRole timesheet.Role   `json:"owner_role"`
	WeekStart string           `json:"week_start"`
	Status    timesheet.Status `json:"status"`
	UpdatedAt time.Time        `json:"updated_at"`

	AdminNotes string `json:"admin_notes,omitempty"`
}

func toTimesheetDTO(r timesheet.StoredRecord) TimesheetDTO {
	return TimesheetDTO{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		OwnerRole: r.OwnerRole,
		WeekStart: r.WeekStart,
		Status:    r.Status,
		UpdatedAt: r.UpdatedAt,

		AdminNotes: r.AdminNotes,
	}
}

// AdminNotesRequest replaces a stored sheet's reviewer note.
type AdminNotesRequest struct {
	ActorID    string `json:"actor_id" validate:"required"`
	ActorRole  string `json:"actor_role" validate:"required,oneof=staff trainee support admin"`
	AdminNotes string `json:"admin_notes" validate:"max=2000"`
}

// NoteRequest adds a reviewer comment.
type NoteRequest struct {
	ActorID   string `json:"actor_id" validate:"required"`
	ActorRole string `json:"actor_role" validate:"required,oneof=staff trainee support admin"`
	Content   string `json:"content" validate:"required,max=2000"`
}

type NoteDTO struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toNoteDTO(n timesheet.Note) NoteDTO {
	return NoteDTO{ID: n.ID, AuthorID: n.AuthorID, Content: n.Content, CreatedAt: n.CreatedAt}
}

// AuditEntryDTO represents one audit log line.
type AuditEntryDTO struct {
	ID          string         `json:"id"`
	Timestamp   string         `json:"timestamp"`
	ActorID     string         `json:"actor_id"`
	Action      string         `json:"action"`
	TimesheetID string         `json:"timesheet_id,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

func toAuditEntryDTO(e generic.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:          e.ID,
		Timestamp:   e.Timestamp.String(),
		ActorID:     e.ActorID,
		Action:      string(e.Action),
		TimesheetID: e.TimesheetID,
		Payload:     e.Payload,
	}
}

// =============================================================================
// CALENDAR
// =============================================================================

type HolidayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

type CreateHolidayRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `json:"name" validate:"required,max=100"`
	Recurring bool   `json:"recurring"`
	ActorID   string `json:"actor_id"`
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name, Recurring: h.Recurring}
}

// ConfirmPayPeriodRequest locks the 14 days starting at Start.
type ConfirmPayPeriodRequest struct {
	Start       string `json:"start" validate:"required,datetime=2006-01-02"`
	ConfirmedBy string `json:"confirmed_by" validate:"required"`
}

type PayPeriodDTO struct {
	Start       string    `json:"start"`
	End         string    `json:"end"`
	ConfirmedBy string    `json:"confirmed_by"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

func toPayPeriodDTO(pp generic.PayPeriod) PayPeriodDTO {
	return PayPeriodDTO{
		Start:       pp.Start.String(),
		End:         pp.End.String(),
		ConfirmedBy: pp.ConfirmedBy,
		ConfirmedAt: pp.ConfirmedAt,
	}
}

// PayPeriodStatusDTO is the approval state of a pay period's stored sheets.
type PayPeriodStatusDTO struct {
	Start          string            `json:"start"`
	End            string            `json:"end"`
	Timesheets     int               `json:"timesheets"`
	PendingCount   int               `json:"pending_count"`
	StatusCounts   map[string]int    `json:"status_counts"`
	Hours          map[string]string `json:"hours"`
	TotalHours     string            `json:"total_hours"`
	Reimbursements string            `json:"reimbursements"`
	Owners         []OwnerTotalsDTO  `json:"owners"`
	Ready          bool              `json:"ready"`
	Confirmed      *PayPeriodDTO     `json:"confirmed,omitempty"`
}

type OwnerTotalsDTO struct {
	OwnerID        string `json:"owner_id"`
	Timesheets     int    `json:"timesheets"`
	Hours          string `json:"hours"`
	Reimbursements string `json:"reimbursements"`
}

func toPayPeriodStatusDTO(s timesheet.PayPeriodSummary) PayPeriodStatusDTO {
	dto := PayPeriodStatusDTO{
		Start:          s.Period.Start.String(),
		End:            s.Period.End.String(),
		Timesheets:     s.Timesheets,
		PendingCount:   s.Pending,
		StatusCounts:   make(map[string]int, len(s.StatusCounts)),
		Hours:          make(map[string]string, len(s.Hours)),
		TotalHours:     timesheet.FormatHours(s.Total),
		Reimbursements: timesheet.FormatMoney(s.Reimbursements),
		Owners:         make([]OwnerTotalsDTO, len(s.Owners)),
		Ready:          s.Ready(),
	}
	for st, n := range s.StatusCounts {
		dto.StatusCounts[string(st)] = n
	}
	for ht, a := range s.Hours {
		dto.Hours[string(ht)] = timesheet.FormatHours(a)
	}
	for i, o := range s.Owners {
		dto.Owners[i] = OwnerTotalsDTO{
			OwnerID:        o.OwnerID,
			Timesheets:     o.Timesheets,
			Hours:          timesheet.FormatHours(o.Hours),
			Reimbursements: timesheet.FormatMoney(o.Reimbursements),
		}
	}
	return dto
}

// PayPeriodRejectedDTO is returned when confirmation is refused because
// sheets are still pending.
type PayPeriodRejectedDTO struct {
	ErrorResponse
	Status PayPeriodStatusDTO `json:"status"`
}

// ConfirmPayPeriodDTO reports the confirmation and how many open forms it locked.
type ConfirmPayPeriodDTO struct {
	PayPeriod      PayPeriodDTO `json:"pay_period"`
	LockedSessions int          `json:"locked_sessions"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
