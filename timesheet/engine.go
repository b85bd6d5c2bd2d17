/*
engine.go - Aggregation engine for the weekly grid

PURPOSE:
  Derives row, column and grand totals from the Store and enforces the
  entry-level rules the presentation layer relies on:
    - which hour types the caller's role may add
    - duplicate-row prevention
    - value normalization on commit (clamp to [0, 24], half-hour steps)
    - read-only enforcement for submitted or pay-period-locked sheets
    - advisory holiday notices

INCREMENTAL TOTALS:
  The engine subscribes to the Store and adjusts only what an event touches:

    EntryUpdatedEvent     row[ht] += delta, column[day] += delta, grand += delta
    HourTypeRemovedEvent  subtract the removed row everywhere
    InitEvent / Loaded    rebuild from scratch (whole sheet replaced)

  Because every cell value is a multiple of 0.5 held in decimal.Decimal, the
  running sums never drift: sum(rows) == sum(columns) == grand at all times.

ROLE:
  The caller's role is an explicit constructor parameter. The engine never
  reads ambient user state.

FAILURE SEMANTICS:
  Rejected mutations are logged and change nothing. They return a sentinel
  so adapters can report them, but nothing here panics.

SEE ALSO:
  - store.go: Mutations and events
  - catalog.go: Role restrictions
  - view.go: GridView snapshot for presentation layers
*/
package timesheet

import (
	"log/slog"

	"github.com/warp/timesheet-engine/generic"
)

type EngineConfig struct {
	Role     Role
	Catalog  *Catalog                // nil = DefaultCatalog()
	Calendar generic.HolidayCalendar // nil = no holidays
	Logger   *slog.Logger
}

// Engine computes totals for one Store. Like the Store it is not safe for
// concurrent use.
type Engine struct {
	store    *Store
	role     Role
	catalog  *Catalog
	calendar generic.HolidayCalendar
	logger   *slog.Logger

	rows    map[HourType]generic.Amount
	columns [generic.DaysPerWeek]generic.Amount
	grand   generic.Amount

	unsubscribe []func()
}

func NewEngine(store *Store, cfg EngineConfig) *Engine {
	if cfg.Catalog == nil {
		cfg.Catalog = DefaultCatalog()
	}
	if cfg.Calendar == nil {
		cfg.Calendar = generic.DefaultHolidayCalendar{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Role == "" {
		cfg.Role = RoleStaff
	}
	e := &Engine{
		store:    store,
		role:     cfg.Role,
		catalog:  cfg.Catalog,
		calendar: cfg.Calendar,
		logger:   cfg.Logger.With(slog.String("component", "timesheet.engine"), slog.String("role", string(cfg.Role))),
	}
	e.rebuild()
	e.unsubscribe = []func(){
		On(store, func(InitEvent) { e.rebuild() }),
		On(store, func(TimesheetLoadedEvent) { e.rebuild() }),
		On(store, e.onHourTypeAdded),
		On(store, e.onHourTypeRemoved),
		On(store, e.onEntryUpdated),
	}
	return e
}

// Close detaches the engine from its Store. Safe to call twice.
func (e *Engine) Close() {
	for _, unsub := range e.unsubscribe {
		unsub()
	}
	e.unsubscribe = nil
}

func (e *Engine) Store() *Store { return e.store }
func (e *Engine) Role() Role    { return e.role }

// =============================================================================
// TOTALS BOOKKEEPING
// =============================================================================

func (e *Engine) rebuild() {
	e.rows = make(map[HourType]generic.Amount)
	for i := range e.columns {
		e.columns[i] = generic.Zero(generic.UnitHours)
	}
	e.grand = generic.Zero(generic.UnitHours)
	for _, ht := range e.store.HourTypes() {
		row, _ := e.store.Row(ht)
		e.rows[ht] = row.Total()
		for d, c := range row {
			e.columns[d] = e.columns[d].Add(c.Value())
		}
		e.grand = e.grand.Add(row.Total())
	}
}

func (e *Engine) onHourTypeAdded(ev HourTypeAddedEvent) {
	e.rows[ev.HourType] = generic.Zero(generic.UnitHours)
}

func (e *Engine) onHourTypeRemoved(ev HourTypeRemovedEvent) {
	for d, c := range ev.Row {
		e.columns[d] = e.columns[d].Sub(c.Value())
	}
	e.grand = e.grand.Sub(ev.Row.Total())
	delete(e.rows, ev.HourType)
}

func (e *Engine) onEntryUpdated(ev EntryUpdatedEvent) {
	delta := ev.New.Value().Sub(ev.Old.Value())
	e.rows[ev.HourType] = e.RowTotal(ev.HourType).Add(delta)
	e.columns[ev.Day] = e.columns[ev.Day].Add(delta)
	e.grand = e.grand.Add(delta)
}

// RowTotal is the sum of one hour type's seven days; zero for an absent row.
func (e *Engine) RowTotal(ht HourType) generic.Amount {
	if t, ok := e.rows[ht]; ok {
		return t
	}
	return generic.Zero(generic.UnitHours)
}

// ColumnTotal is the sum of one day across every present row.
func (e *Engine) ColumnTotal(day generic.Weekday) generic.Amount {
	if !day.Valid() {
		return generic.Zero(generic.UnitHours)
	}
	return e.columns[day]
}

func (e *Engine) GrandTotal() generic.Amount { return e.grand }

// =============================================================================
// ROWS
// =============================================================================

// AvailableHourTypes returns the role's hour types that are not yet rows.
// Offering only absent types is how duplicates are kept out of the grid.
func (e *Engine) AvailableHourTypes() []HourType {
	var out []HourType
	for _, ht := range e.catalog.ForRole(e.role) {
		if !e.store.Has(ht) {
			out = append(out, ht)
		}
	}
	return out
}

func (e *Engine) AddHourType(ht HourType) error {
	if err := e.store.guard("addHourType"); err != nil {
		return err
	}
	if !e.catalog.Allows(e.role, ht) {
		e.logger.Warn("hour type not available for role", slog.String("hour_type", string(ht)))
		return generic.ErrHourTypeNotAllowed
	}
	if e.store.Has(ht) {
		e.logger.Warn("duplicate hour type ignored", slog.String("hour_type", string(ht)))
		return generic.ErrDuplicateHourType
	}
	return e.store.AddHourType(ht)
}

func (e *Engine) RemoveHourType(ht HourType) error {
	return e.store.RemoveHourType(ht)
}

// =============================================================================
// ENTRIES
// =============================================================================

// CommitHours normalizes finalized day input and writes it. On refusal the
// returned cell is the unchanged current value.
func (e *Engine) CommitHours(ht HourType, day generic.Weekday, input string) (Cell, error) {
	return e.commit(ht, day, NormalizeHours(input))
}

// SetHours is CommitHours for an already-numeric value.
func (e *Engine) SetHours(ht HourType, day generic.Weekday, hours float64) (Cell, error) {
	return e.commit(ht, day, NormalizeAmount(generic.Hours(hours)))
}

// ClearHours empties a cell.
func (e *Engine) ClearHours(ht HourType, day generic.Weekday) (Cell, error) {
	return e.commit(ht, day, EmptyCell())
}

func (e *Engine) commit(ht HourType, day generic.Weekday, cell Cell) (Cell, error) {
	if err := e.store.SetCell(ht, day, cell); err != nil {
		return e.store.Cell(ht, day), err
	}
	if n, ok := e.HolidayNotice(ht, day); ok {
		e.logger.Info("hours entered on holiday",
			slog.String("hour_type", string(ht)),
			slog.String("date", n.Date.String()),
			slog.String("holiday", n.Holiday))
	}
	return cell, nil
}

// =============================================================================
// HOLIDAYS - Advisory only
// =============================================================================

// Notice flags a positive value entered on a holiday. It never blocks saving.
type Notice struct {
	HourType HourType
	Day      generic.Weekday
	Date     generic.TimePoint
	Holiday  string
	Hours    generic.Amount
}

func (n Notice) Message() string {
	return FormatHours(n.Hours) + " " + string(n.HourType) + " hours entered on " + n.Holiday + " (" + n.Date.String() + ")"
}

// HolidayOn returns the holiday name for a day of the current week.
func (e *Engine) HolidayOn(day generic.Weekday) (string, bool) {
	weekStart := e.store.WeekStart()
	if weekStart.IsZero() || !day.Valid() {
		return "", false
	}
	return e.calendar.HolidayOn(generic.DateOf(weekStart, day))
}

func (e *Engine) HolidayNotice(ht HourType, day generic.Weekday) (Notice, bool) {
	cell := e.store.Cell(ht, day)
	if !cell.Value().IsPositive() {
		return Notice{}, false
	}
	name, ok := e.HolidayOn(day)
	if !ok {
		return Notice{}, false
	}
	return Notice{
		HourType: ht,
		Day:      day,
		Date:     generic.DateOf(e.store.WeekStart(), day),
		Holiday:  name,
		Hours:    cell.Value(),
	}, true
}

// Notices lists every holiday notice in row, then day order.
func (e *Engine) Notices() []Notice {
	var out []Notice
	for _, ht := range e.store.HourTypes() {
		for _, d := range generic.AllWeekdays {
			if n, ok := e.HolidayNotice(ht, d); ok {
				out = append(out, n)
			}
		}
	}
	return out
}

// =============================================================================
// EXPORT
// =============================================================================

// Collect returns the rows to persist: only those with a day above zero,
// in row order. Rows that are present but all zero or empty are dropped.
func (e *Engine) Collect() []CollectedEntry {
	var out []CollectedEntry
	for _, ht := range e.store.HourTypes() {
		row, _ := e.store.Row(ht)
		if !row.HasPositive() {
			continue
		}
		out = append(out, newCollectedEntry(ht, row))
	}
	return out
}

// Record builds the outbound record for the current draft.
func (e *Engine) Record() Record {
	r := Record{
		ID:                 e.store.ID(),
		WeekStart:          e.store.WeekStart().String(),
		Status:             e.store.Status(),
		PayPeriodConfirmed: e.store.PayPeriodLocked(),
	}
	for _, c := range e.Collect() {
		r.Entries = append(r.Entries, c.ToRecordEntry())
	}
	for _, item := range e.store.ReimbursementItems() {
		r.ReimbursementItems = append(r.ReimbursementItems, RecordItem{
			ID:          item.ID,
			Description: item.Description,
			Amount:      LooseNumber{Value: item.Amount.Value, Valid: true},
			Category:    string(item.Category),
			Date:        item.Date.String(),
		})
	}
	return r
}
