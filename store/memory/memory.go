// Package memory provides an in-memory timesheet.Repository.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	records    map[string]timesheet.StoredRecord
	byWeek     map[weekKey]string
	holidays   []generic.Holiday
	payPeriods []generic.PayPeriod
	audit      []generic.AuditEntry
	notes      []timesheet.Note
	now        func() time.Time
}

type weekKey struct {
	OwnerID   string
	WeekStart string
}

var _ timesheet.Repository = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		records: make(map[string]timesheet.StoredRecord),
		byWeek:  make(map[weekKey]string),
		now:     time.Now,
	}
}

// =============================================================================
// RECORDS
// =============================================================================

func (m *Memory) SaveRecord(_ context.Context, r timesheet.StoredRecord) (timesheet.StoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := weekKey{OwnerID: r.OwnerID, WeekStart: r.WeekStart}
	if existing, ok := m.byWeek[k]; ok && existing != r.ID {
		return timesheet.StoredRecord{}, fmt.Errorf("%w: owner %s already has a timesheet for %s", generic.ErrConflict, r.OwnerID, r.WeekStart)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	} else if old, ok := m.records[r.ID]; ok {
		if old.OwnerID != r.OwnerID {
			return timesheet.StoredRecord{}, fmt.Errorf("%w: timesheet %s belongs to another owner", generic.ErrConflict, r.ID)
		}
		r.AdminNotes = old.AdminNotes
		delete(m.byWeek, weekKey{OwnerID: old.OwnerID, WeekStart: old.WeekStart})
	}
	r.UpdatedAt = m.now().UTC()
	m.records[r.ID] = cloneRecord(r)
	m.byWeek[k] = r.ID
	return r, nil
}

func (m *Memory) GetRecord(_ context.Context, id string) (timesheet.StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return timesheet.StoredRecord{}, generic.ErrNotFound
	}
	return cloneRecord(r), nil
}

func (m *Memory) FindRecord(_ context.Context, ownerID string, weekStart generic.TimePoint) (timesheet.StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byWeek[weekKey{OwnerID: ownerID, WeekStart: weekStart.String()}]
	if !ok {
		return timesheet.StoredRecord{}, generic.ErrNotFound
	}
	return cloneRecord(m.records[id]), nil
}

func (m *Memory) ListRecords(_ context.Context, ownerID string) ([]timesheet.StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []timesheet.StoredRecord
	for _, r := range m.records {
		if r.OwnerID == ownerID {
			out = append(out, cloneRecord(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart > out[j].WeekStart })
	return out, nil
}

func (m *Memory) ListRecordsInPeriod(_ context.Context, p generic.Period) ([]timesheet.StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []timesheet.StoredRecord
	for _, r := range m.records {
		weekStart, err := generic.ParseDate(r.WeekStart)
		if err != nil || !p.Contains(weekStart) {
			continue
		}
		out = append(out, cloneRecord(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WeekStart != out[j].WeekStart {
			return out[i].WeekStart < out[j].WeekStart
		}
		return out[i].OwnerID < out[j].OwnerID
	})
	return out, nil
}

func (m *Memory) SetAdminNotes(_ context.Context, id, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return generic.ErrNotFound
	}
	r.AdminNotes = notes
	r.UpdatedAt = m.now().UTC()
	m.records[id] = r
	return nil
}

func cloneRecord(r timesheet.StoredRecord) timesheet.StoredRecord {
	r.Entries = append([]timesheet.RecordEntry(nil), r.Entries...)
	r.ReimbursementItems = append([]timesheet.RecordItem(nil), r.ReimbursementItems...)
	return r
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) ListHolidays(_ context.Context) ([]generic.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]generic.Holiday(nil), m.holidays...), nil
}

// SaveHoliday keeps the list ordered by date with a binary-search insert.
func (m *Memory) SaveHoliday(_ context.Context, h generic.Holiday) (generic.Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	} else {
		m.deleteHolidayLocked(h.ID)
	}
	i := sort.Search(len(m.holidays), func(i int) bool {
		return m.holidays[i].Date.After(h.Date)
	})
	m.holidays = append(m.holidays, generic.Holiday{})
	copy(m.holidays[i+1:], m.holidays[i:])
	m.holidays[i] = h
	return h, nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.deleteHolidayLocked(id) {
		return generic.ErrNotFound
	}
	return nil
}

func (m *Memory) deleteHolidayLocked(id string) bool {
	for i, h := range m.holidays {
		if h.ID == id {
			m.holidays = append(m.holidays[:i], m.holidays[i+1:]...)
			return true
		}
	}
	return false
}

// =============================================================================
// PAY PERIODS
// =============================================================================

func (m *Memory) ConfirmPayPeriod(_ context.Context, pp generic.PayPeriod) error {
	if err := generic.ValidatePayPeriod(pp.Period); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.payPeriods {
		if existing.Overlaps(pp.Period) {
			return fmt.Errorf("%w: pay period %s overlaps confirmed %s", generic.ErrConflict, pp.Period, existing.Period)
		}
	}
	if pp.ConfirmedAt.IsZero() {
		pp.ConfirmedAt = m.now().UTC()
	}
	m.payPeriods = append(m.payPeriods, pp)
	sort.Slice(m.payPeriods, func(i, j int) bool {
		return m.payPeriods[i].Start.Before(m.payPeriods[j].Start)
	})
	return nil
}

func (m *Memory) ConfirmedPayPeriods(_ context.Context) ([]generic.PayPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]generic.PayPeriod(nil), m.payPeriods...), nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (m *Memory) AppendAudit(_ context.Context, e generic.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = generic.TimePointOf(m.now())
	}
	m.audit = append(m.audit, e)
	return nil
}

func (m *Memory) QueryAudit(_ context.Context, f generic.AuditFilter) ([]generic.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []generic.AuditEntry
	for _, e := range m.audit {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// =============================================================================
// NOTES
// =============================================================================

func (m *Memory) AddNote(_ context.Context, n timesheet.Note) (timesheet.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[n.TimesheetID]; !ok {
		return timesheet.Note{}, fmt.Errorf("%w: timesheet %s", generic.ErrNotFound, n.TimesheetID)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = m.now().UTC()
	}
	m.notes = append(m.notes, n)
	return n, nil
}

func (m *Memory) ListNotes(_ context.Context, timesheetID string) ([]timesheet.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []timesheet.Note
	for _, n := range m.notes {
		if n.TimesheetID == timesheetID {
			out = append(out, n)
		}
	}
	return out, nil
}
