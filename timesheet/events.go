package timesheet

import (
	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// EVENTS - One type per kind, emitted by Store mutations
// =============================================================================

const (
	EventInit                     = "init"
	EventTimesheetLoaded          = "timesheetLoaded"
	EventChanged                  = "changed"
	EventHourTypeAdded            = "hourTypeAdded"
	EventHourTypeRemoved          = "hourTypeRemoved"
	EventEntryUpdated             = "entryUpdated"
	EventReimbursementItemAdded   = "reimbursementItemAdded"
	EventReimbursementItemRemoved = "reimbursementItemRemoved"
	EventReimbursementItemUpdated = "reimbursementItemUpdated"
	EventStatusChanged            = "statusChanged"
)

// InitEvent fires after Init reset the sheet to an empty draft.
type InitEvent struct {
	WeekStart generic.TimePoint
}

// TimesheetLoadedEvent fires after LoadTimesheet replaced the sheet.
type TimesheetLoadedEvent struct {
	ID        string
	WeekStart generic.TimePoint
	Status    Status
}

// ChangedEvent fires when the dirty flag flips.
type ChangedEvent struct {
	Dirty bool
}

type HourTypeAddedEvent struct {
	HourType HourType
}

// HourTypeRemovedEvent carries the removed row so listeners can retract it.
type HourTypeRemovedEvent struct {
	HourType HourType
	Row      Row
}

// EntryUpdatedEvent carries both values so totals can be adjusted by the delta.
type EntryUpdatedEvent struct {
	HourType HourType
	Day      generic.Weekday
	Old      Cell
	New      Cell
}

type ReimbursementItemAddedEvent struct {
	Item ReimbursementItem
}

type ReimbursementItemRemovedEvent struct {
	Item ReimbursementItem
}

type ReimbursementItemUpdatedEvent struct {
	Item  ReimbursementItem
	Field string
}

// StatusChangedEvent fires when the workflow status or pay-period lock changes.
type StatusChangedEvent struct {
	Status          Status
	PayPeriodLocked bool
	Editable        bool
}

func (InitEvent) EventName() string                     { return EventInit }
func (TimesheetLoadedEvent) EventName() string          { return EventTimesheetLoaded }
func (ChangedEvent) EventName() string                  { return EventChanged }
func (HourTypeAddedEvent) EventName() string            { return EventHourTypeAdded }
func (HourTypeRemovedEvent) EventName() string          { return EventHourTypeRemoved }
func (EntryUpdatedEvent) EventName() string             { return EventEntryUpdated }
func (ReimbursementItemAddedEvent) EventName() string   { return EventReimbursementItemAdded }
func (ReimbursementItemRemovedEvent) EventName() string { return EventReimbursementItemRemoved }
func (ReimbursementItemUpdatedEvent) EventName() string { return EventReimbursementItemUpdated }
func (StatusChangedEvent) EventName() string            { return EventStatusChanged }

// On subscribes a typed handler to the store's events.
//
//	unsubscribe := timesheet.On(store, func(e timesheet.EntryUpdatedEvent) { ... })
func On[E generic.Event](s *Store, fn func(E)) func() {
	return generic.On(s.bus, fn)
}
