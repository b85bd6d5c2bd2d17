/*
store.go - Session state store for one open timesheet form

PURPOSE:
  The Store is the single source of truth for the draft being edited. Every
  mutation goes through one of its methods, and every effective mutation
  emits a typed event so dependent views can refresh without polling.

LIFECYCLE:
  store := timesheet.NewStore(timesheet.WithLogger(logger))
  store.Init(weekStart)          // empty draft, emits InitEvent
  store.LoadTimesheet(record)    // or hydrate from a stored record
  ...
  store.Dispose()                // drops every subscription

  Init and LoadTimesheet replace every field; there is no partial reset.
  Neither adds subscriptions, so switching weeks repeatedly never leaks
  handlers from the previous session.

GUARDS:
  Mutations of rows, cells and reimbursement items are refused while the
  sheet is read-only (submitted/approved, or pay period locked). A refused
  or redundant mutation changes nothing, emits nothing, and is logged.

DIRTY FLAG:
  Set by the first effective mutation after Init/Load, cleared explicitly.
  ChangedEvent fires only when the flag actually flips.

SEE ALSO:
  - events.go: Event kinds
  - engine.go: Totals and entry rules built on the Store
*/
package timesheet

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/warp/timesheet-engine/generic"
)

// Store owns the draft timesheet of one form session.
type Store struct {
	sheet  Timesheet
	bus    *generic.Bus
	logger *slog.Logger
	newID  func() string
}

type StoreOption func(*Store)

func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator replaces the UUID generator used for new reimbursement items.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sheet:  newTimesheet(generic.TimePoint{}),
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "timesheet.store"))
	s.bus = generic.NewBus(s.logger)
	return s
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Init resets every field to an empty draft for the given week.
func (s *Store) Init(weekStart generic.TimePoint) {
	s.sheet = newTimesheet(weekStart)
	s.bus.Emit(InitEvent{WeekStart: weekStart})
}

// LoadTimesheet replaces the draft with a stored record. A record that fails
// validation leaves the current draft untouched.
func (s *Store) LoadTimesheet(r Record) error {
	sheet, err := sheetFromRecord(r, s.newID)
	if err != nil {
		s.logger.Warn("timesheet load rejected", slog.String("id", r.ID), slog.Any("error", err))
		return err
	}
	s.sheet = sheet
	s.bus.Emit(TimesheetLoadedEvent{ID: sheet.ID, WeekStart: sheet.WeekStart, Status: sheet.Status})
	return nil
}

// Dispose drops every subscription and forgets the draft.
func (s *Store) Dispose() {
	s.bus.Reset()
	s.sheet = newTimesheet(generic.TimePoint{})
}

// Subscribers returns how many handlers are registered across all events.
func (s *Store) Subscribers() int {
	return s.bus.Count("")
}

func sheetFromRecord(r Record, newID func() string) (Timesheet, error) {
	if err := ValidateRecord(r); err != nil {
		return Timesheet{}, err
	}
	weekStart, err := generic.ParseDate(r.WeekStart)
	if err != nil {
		return Timesheet{}, &generic.MalformedRecordError{Problems: []string{err.Error()}}
	}

	sheet := newTimesheet(weekStart)
	sheet.ID = r.ID
	if r.Status != "" {
		sheet.Status = r.Status
	}
	sheet.PayPeriodLocked = r.PayPeriodConfirmed

	for _, e := range r.Entries {
		row := NewRow()
		for d, n := range e.Days() {
			row[d] = NormalizeNumber(n)
		}
		sheet.HourTypes = append(sheet.HourTypes, e.HourType)
		sheet.Entries[e.HourType] = &row
	}

	seen := make(map[string]bool, len(r.ReimbursementItems))
	for _, ri := range r.ReimbursementItems {
		item := ReimbursementItem{
			ID:          ri.ID,
			Description: ri.Description,
			Amount:      generic.NewAmountFromDecimal(ri.Amount.OrZero(), generic.UnitDollars).RoundCents(),
			Category:    NormalizeExpenseType(ri.Category),
		}
		if ri.Date != "" {
			// Format already checked by ValidateRecord.
			item.Date, _ = generic.ParseDate(ri.Date)
		}
		if item.ID == "" || seen[item.ID] {
			item.ID = newID()
		}
		seen[item.ID] = true
		sheet.ReimbursementItems = append(sheet.ReimbursementItems, item)
	}
	return sheet, nil
}

// =============================================================================
// READS
// =============================================================================

// Timesheet returns a deep copy of the current draft.
func (s *Store) Timesheet() Timesheet { return s.sheet.clone() }

func (s *Store) ID() string                   { return s.sheet.ID }
func (s *Store) WeekStart() generic.TimePoint { return s.sheet.WeekStart }
func (s *Store) Status() Status               { return s.sheet.Status }
func (s *Store) PayPeriodLocked() bool        { return s.sheet.PayPeriodLocked }
func (s *Store) IsDirty() bool                { return s.sheet.Dirty }
func (s *Store) Has(ht HourType) bool         { return s.sheet.Has(ht) }

// IsEditable is a pure derivation of status and pay-period lock.
func (s *Store) IsEditable() bool { return s.sheet.Editable() }

// HourTypes returns the present rows in display order.
func (s *Store) HourTypes() []HourType {
	return append([]HourType(nil), s.sheet.HourTypes...)
}

func (s *Store) Row(ht HourType) (Row, bool) {
	row, ok := s.sheet.Entries[ht]
	if !ok {
		return Row{}, false
	}
	return *row, true
}

func (s *Store) Cell(ht HourType, day generic.Weekday) Cell {
	row, ok := s.sheet.Entries[ht]
	if !ok || !day.Valid() {
		return EmptyCell()
	}
	return row[day]
}

func (s *Store) ReimbursementItems() []ReimbursementItem {
	return append([]ReimbursementItem(nil), s.sheet.ReimbursementItems...)
}

// ReimbursementTotal sums item amounts. Items always hold a coerced amount,
// so the total is never poisoned by bad input.
func (s *Store) ReimbursementTotal() generic.Amount {
	total := generic.Zero(generic.UnitDollars)
	for _, item := range s.sheet.ReimbursementItems {
		total = total.Add(item.Amount)
	}
	return total
}

// =============================================================================
// DIRTY FLAG
// =============================================================================

// MarkChanged flags unsaved edits. A read-only sheet cannot become dirty.
func (s *Store) MarkChanged() error {
	if err := s.guard("markChanged"); err != nil {
		return err
	}
	s.markChanged()
	return nil
}

func (s *Store) markChanged() {
	if s.sheet.Dirty {
		return
	}
	s.sheet.Dirty = true
	s.bus.Emit(ChangedEvent{Dirty: true})
}

func (s *Store) ClearChanges() {
	if !s.sheet.Dirty {
		return
	}
	s.sheet.Dirty = false
	s.bus.Emit(ChangedEvent{Dirty: false})
}

// =============================================================================
// WORKFLOW SIGNALS
// =============================================================================

// SetStatus records a status decided by the external approval workflow.
func (s *Store) SetStatus(status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", generic.ErrInvalidTransition, status)
	}
	if s.sheet.Status == status {
		return nil
	}
	s.sheet.Status = status
	s.emitStatus()
	return nil
}

// SetPayPeriodLocked records the pay-period confirmation flag.
func (s *Store) SetPayPeriodLocked(locked bool) {
	if s.sheet.PayPeriodLocked == locked {
		return
	}
	s.sheet.PayPeriodLocked = locked
	s.emitStatus()
}

func (s *Store) emitStatus() {
	s.bus.Emit(StatusChangedEvent{
		Status:          s.sheet.Status,
		PayPeriodLocked: s.sheet.PayPeriodLocked,
		Editable:        s.sheet.Editable(),
	})
}

// SetID records the identifier assigned when a draft is first saved.
func (s *Store) SetID(id string) {
	s.sheet.ID = id
}

// =============================================================================
// ROWS AND CELLS
// =============================================================================

func (s *Store) guard(op string) error {
	if s.sheet.Editable() {
		return nil
	}
	err := &generic.ReadOnlyError{Operation: op, Reason: s.sheet.ReadOnlyReason()}
	s.logger.Warn("mutation refused", slog.String("operation", op), slog.String("reason", err.Reason))
	return err
}

// AddHourType adds an empty row. Adding a present row is a no-op.
func (s *Store) AddHourType(ht HourType) error {
	if err := s.guard("addHourType"); err != nil {
		return err
	}
	if s.sheet.Has(ht) {
		s.logger.Debug("hour type already present", slog.String("hour_type", string(ht)))
		return generic.ErrDuplicateHourType
	}
	row := NewRow()
	s.sheet.Entries[ht] = &row
	s.sheet.HourTypes = append(s.sheet.HourTypes, ht)
	s.bus.Emit(HourTypeAddedEvent{HourType: ht})
	s.markChanged()
	return nil
}

// RemoveHourType drops a row and its values.
func (s *Store) RemoveHourType(ht HourType) error {
	if err := s.guard("removeHourType"); err != nil {
		return err
	}
	row, ok := s.sheet.Entries[ht]
	if !ok {
		s.logger.Warn("hour type not present", slog.String("hour_type", string(ht)))
		return generic.ErrHourTypeNotPresent
	}
	removed := *row
	delete(s.sheet.Entries, ht)
	for i, h := range s.sheet.HourTypes {
		if h == ht {
			s.sheet.HourTypes = append(s.sheet.HourTypes[:i:i], s.sheet.HourTypes[i+1:]...)
			break
		}
	}
	s.bus.Emit(HourTypeRemovedEvent{HourType: ht, Row: removed})
	s.markChanged()
	return nil
}

// SetCell writes an already-normalized cell. Writing the value a cell
// already holds is not a change.
func (s *Store) SetCell(ht HourType, day generic.Weekday, cell Cell) error {
	if err := s.guard("setCell"); err != nil {
		return err
	}
	if !day.Valid() {
		return fmt.Errorf("%w: %d", generic.ErrInvalidDay, int(day))
	}
	row, ok := s.sheet.Entries[ht]
	if !ok {
		s.logger.Warn("hour type not present", slog.String("hour_type", string(ht)), slog.String("day", day.Key()))
		return generic.ErrHourTypeNotPresent
	}
	old := row[day]
	if old.Equal(cell) {
		return nil
	}
	row[day] = cell
	s.bus.Emit(EntryUpdatedEvent{HourType: ht, Day: day, Old: old, New: cell})
	s.markChanged()
	return nil
}

// =============================================================================
// REIMBURSEMENT ITEMS
// =============================================================================

// Reimbursement item fields accepted by UpdateReimbursementItem.
const (
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
)

// AddReimbursementItem appends a line item, minting an id when none is given
// or the given one is already taken.
func (s *Store) AddReimbursementItem(item ReimbursementItem) (ReimbursementItem, error) {
	if err := s.guard("addReimbursementItem"); err != nil {
		return ReimbursementItem{}, err
	}
	if item.ID == "" || s.itemIndex(item.ID) >= 0 {
		item.ID = s.newID()
	}
	item.Description = truncate(strings.TrimSpace(item.Description), MaxDescriptionLength)
	item.Amount = generic.NewAmountFromDecimal(item.Amount.Value, generic.UnitDollars).RoundCents()
	if item.Category == "" {
		item.Category = ExpenseOther
	} else {
		item.Category = NormalizeExpenseType(string(item.Category))
	}
	s.sheet.ReimbursementItems = append(s.sheet.ReimbursementItems, item)
	s.bus.Emit(ReimbursementItemAddedEvent{Item: item})
	s.markChanged()
	return item, nil
}

func (s *Store) RemoveReimbursementItem(id string) error {
	if err := s.guard("removeReimbursementItem"); err != nil {
		return err
	}
	i := s.itemIndex(id)
	if i < 0 {
		s.logger.Warn("reimbursement item not found", slog.String("item_id", id))
		return generic.ErrItemNotFound
	}
	removed := s.sheet.ReimbursementItems[i]
	items := s.sheet.ReimbursementItems
	s.sheet.ReimbursementItems = append(items[:i:i], items[i+1:]...)
	s.bus.Emit(ReimbursementItemRemovedEvent{Item: removed})
	s.markChanged()
	return nil
}

// UpdateReimbursementItem sets one field from raw input. A non-numeric amount
// becomes zero; an empty date clears it.
func (s *Store) UpdateReimbursementItem(id, field, value string) (ReimbursementItem, error) {
	if err := s.guard("updateReimbursementItem"); err != nil {
		return ReimbursementItem{}, err
	}
	i := s.itemIndex(id)
	if i < 0 {
		s.logger.Warn("reimbursement item not found", slog.String("item_id", id))
		return ReimbursementItem{}, generic.ErrItemNotFound
	}
	item := s.sheet.ReimbursementItems[i]
	switch field {
	case FieldDescription:
		item.Description = truncate(strings.TrimSpace(value), MaxDescriptionLength)
	case FieldAmount:
		amount, _ := generic.ParseAmount(value, generic.UnitDollars)
		item.Amount = amount.RoundCents()
	case FieldCategory:
		item.Category = NormalizeExpenseType(value)
	case FieldDate:
		if strings.TrimSpace(value) == "" {
			item.Date = generic.TimePoint{}
			break
		}
		date, err := generic.ParseDate(value)
		if err != nil {
			return ReimbursementItem{}, fmt.Errorf("%w: %v", generic.ErrInvalidField, err)
		}
		item.Date = date
	default:
		s.logger.Warn("unknown reimbursement field", slog.String("item_id", id), slog.String("field", field))
		return ReimbursementItem{}, fmt.Errorf("%w: %q", generic.ErrInvalidField, field)
	}
	s.sheet.ReimbursementItems[i] = item
	s.bus.Emit(ReimbursementItemUpdatedEvent{Item: item, Field: field})
	s.markChanged()
	return item, nil
}

func (s *Store) itemIndex(id string) int {
	for i, item := range s.sheet.ReimbursementItems {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
