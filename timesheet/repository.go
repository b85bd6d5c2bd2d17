package timesheet

import (
	"context"
	"time"

	"github.com/warp/timesheet-engine/generic"
)

// StoredRecord is a persisted timesheet with its ownership metadata.
type StoredRecord struct {
	Record
	OwnerID   string
	OwnerRole Role
	UpdatedAt time.Time

	// AdminNotes is the reviewer's current note. SaveRecord writes it only on
	// insert; afterwards SetAdminNotes is the single writer.
	AdminNotes string
}

// Note is one reviewer comment in a stored timesheet's history.
type Note struct {
	ID          string
	TimesheetID string
	AuthorID    string
	Content     string
	CreatedAt   time.Time
}

// RecordStore persists timesheet records. The core never calls it; adapters
// load a record, hand it to Store.LoadTimesheet, and save Engine.Record().
type RecordStore interface {
	// SaveRecord inserts (empty ID) or replaces a record and returns it with
	// its ID. A second record for the same owner and week is ErrConflict.
	SaveRecord(ctx context.Context, r StoredRecord) (StoredRecord, error)

	// GetRecord returns ErrNotFound for an unknown ID.
	GetRecord(ctx context.Context, id string) (StoredRecord, error)

	// FindRecord returns the owner's record for a week, or ErrNotFound.
	FindRecord(ctx context.Context, ownerID string, weekStart generic.TimePoint) (StoredRecord, error)

	// ListRecords returns the owner's records, newest week first.
	ListRecords(ctx context.Context, ownerID string) ([]StoredRecord, error)

	// ListRecordsInPeriod returns every record whose week starts inside the
	// period, ordered by week then owner.
	ListRecordsInPeriod(ctx context.Context, p generic.Period) ([]StoredRecord, error)

	// SetAdminNotes replaces the reviewer note; empty clears it. Returns
	// ErrNotFound for an unknown ID.
	SetAdminNotes(ctx context.Context, id, notes string) error
}

// NoteStore keeps reviewer comments, oldest first.
type NoteStore interface {
	AddNote(ctx context.Context, n Note) (Note, error)
	ListNotes(ctx context.Context, timesheetID string) ([]Note, error)
}

// Repository is everything the adapters persist.
type Repository interface {
	RecordStore
	NoteStore
	generic.HolidayStore
	generic.PayPeriodStore
	generic.AuditLog
}
