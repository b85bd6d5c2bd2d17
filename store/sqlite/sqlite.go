/*
Package sqlite provides a SQLite-backed implementation of timesheet.Repository.

PURPOSE:
  Persists what the timesheet core consumes and produces at its boundary:
  stored timesheet records, the holiday calendar, confirmed pay periods and
  the workflow audit trail. The core itself never touches the database.

INTERFACES IMPLEMENTED:
  timesheet.RecordStore:  Timesheet records (one per owner and week)
  timesheet.NoteStore:    Reviewer notes
  generic.HolidayStore:   Configured holidays
  generic.PayPeriodStore: Confirmed pay periods
  generic.AuditLog:       Append-only audit entries

KEY TABLES:
  timesheets:  One row per owner+week; entries and items stored as JSON
  holidays:    Exact-date and recurring holidays
  pay_periods: Confirmed 14-day periods (never deleted)
  audit_log:   Who submitted/approved/confirmed what
  notes:       Reviewer comments per timesheet

RECORD ENCODING:
  Entries and reimbursement items are stored in the inbound record shape
  (entries_json, items_json), so a stored row round-trips through
  Store.LoadTimesheet without a separate mapping layer.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/timesheets.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go: Holiday, pay period and audit interfaces
  - timesheet/repository.go: RecordStore
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// Store implements timesheet.Repository using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

var _ timesheet.Repository = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection; used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Timesheets (one per owner and week)
	CREATE TABLE IF NOT EXISTS timesheets (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		owner_role TEXT NOT NULL DEFAULT 'staff',
		week_start TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'NEW',
		pay_period_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		entries_json TEXT NOT NULL DEFAULT '[]',
		items_json TEXT NOT NULL DEFAULT '[]',
		admin_notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_timesheets_owner_week
		ON timesheets(owner_id, week_start);
	CREATE INDEX IF NOT EXISTS idx_timesheets_status
		ON timesheets(status);

	-- Holidays
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(date, name);

	-- Confirmed pay periods (never deleted)
	CREATE TABLE IF NOT EXISTS pay_periods (
		start_date TEXT PRIMARY KEY,
		end_date TEXT NOT NULL,
		confirmed_by TEXT,
		confirmed_at TEXT NOT NULL
	);

	-- Audit log (append-only)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		actor_id TEXT,
		action TEXT NOT NULL,
		timesheet_id TEXT,
		payload_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_timesheet
		ON audit_log(timesheet_id) WHERE timesheet_id IS NOT NULL;

	-- Reviewer notes
	CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		timesheet_id TEXT NOT NULL REFERENCES timesheets(id),
		author_id TEXT,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notes_timesheet
		ON notes(timesheet_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Databases created before admin_notes existed
	_, err := s.db.Exec(`ALTER TABLE timesheets ADD COLUMN admin_notes TEXT`)
	if err != nil && !strings.Contains(err.Error(), "duplicate column") {
		return err
	}
	return nil
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"notes", "timesheets", "holidays", "pay_periods", "audit_log"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// TIMESHEET RECORDS (timesheet.RecordStore interface)
// =============================================================================

// SaveRecord inserts or replaces a record inside one transaction.
func (s *Store) SaveRecord(ctx context.Context, r timesheet.StoredRecord) (timesheet.StoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entriesJSON, err := json.Marshal(nonNilEntries(r.Entries))
	if err != nil {
		return timesheet.StoredRecord{}, fmt.Errorf("failed to encode entries: %w", err)
	}
	itemsJSON, err := json.Marshal(nonNilItems(r.ReimbursementItems))
	if err != nil {
		return timesheet.StoredRecord{}, fmt.Errorf("failed to encode reimbursement items: %w", err)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.OwnerRole == "" {
		r.OwnerRole = timesheet.RoleStaff
	}
	if r.Status == "" {
		r.Status = timesheet.StatusNew
	}
	now := s.now().UTC()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return timesheet.StoredRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		INSERT INTO timesheets (id, owner_id, owner_role, week_start, status, pay_period_confirmed,
			entries_json, items_json, admin_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_role = excluded.owner_role,
			week_start = excluded.week_start,
			status = excluded.status,
			pay_period_confirmed = excluded.pay_period_confirmed,
			entries_json = excluded.entries_json,
			items_json = excluded.items_json,
			updated_at = excluded.updated_at
		WHERE timesheets.owner_id = excluded.owner_id
	`
	res, err := sqlTx.ExecContext(ctx, query,
		r.ID,
		r.OwnerID,
		string(r.OwnerRole),
		r.WeekStart,
		string(r.Status),
		r.PayPeriodConfirmed,
		string(entriesJSON),
		string(itemsJSON),
		nullString(r.AdminNotes),
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return timesheet.StoredRecord{}, fmt.Errorf("%w: owner %s already has a timesheet for %s", generic.ErrConflict, r.OwnerID, r.WeekStart)
		}
		return timesheet.StoredRecord{}, fmt.Errorf("failed to save timesheet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return timesheet.StoredRecord{}, fmt.Errorf("%w: timesheet %s belongs to another owner", generic.ErrConflict, r.ID)
	}
	var notes sql.NullString
	if err := sqlTx.QueryRowContext(ctx, `SELECT admin_notes FROM timesheets WHERE id = ?`, r.ID).Scan(&notes); err != nil {
		return timesheet.StoredRecord{}, err
	}
	r.AdminNotes = notes.String
	if err := sqlTx.Commit(); err != nil {
		return timesheet.StoredRecord{}, err
	}
	r.UpdatedAt = now
	return r, nil
}

const recordColumns = `id, owner_id, owner_role, week_start, status, pay_period_confirmed, entries_json, items_json, admin_notes, updated_at`

func (s *Store) GetRecord(ctx context.Context, id string) (timesheet.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM timesheets WHERE id = ?`, id)
	return scanRecord(row)
}

func (s *Store) FindRecord(ctx context.Context, ownerID string, weekStart generic.TimePoint) (timesheet.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM timesheets WHERE owner_id = ? AND week_start = ?`,
		ownerID, weekStart.String())
	return scanRecord(row)
}

func (s *Store) ListRecords(ctx context.Context, ownerID string) ([]timesheet.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM timesheets WHERE owner_id = ? ORDER BY week_start DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// ListRecordsInPeriod relies on ISO dates sorting lexically.
func (s *Store) ListRecordsInPeriod(ctx context.Context, p generic.Period) ([]timesheet.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM timesheets
		WHERE week_start >= ? AND week_start <= ?
		ORDER BY week_start, owner_id`,
		p.Start.String(), p.End.String())
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (s *Store) SetAdminNotes(ctx context.Context, id, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE timesheets SET admin_notes = ?, updated_at = ? WHERE id = ?`,
		nullString(notes), s.now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrNotFound
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]timesheet.StoredRecord, error) {
	defer rows.Close()

	var records []timesheet.StoredRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (timesheet.StoredRecord, error) {
	var (
		r                      timesheet.StoredRecord
		role, status, updated  string
		entriesJSON, itemsJSON string
		notes                  sql.NullString
	)
	err := sc.Scan(&r.ID, &r.OwnerID, &role, &r.WeekStart, &status, &r.PayPeriodConfirmed,
		&entriesJSON, &itemsJSON, &notes, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return timesheet.StoredRecord{}, generic.ErrNotFound
	}
	if err != nil {
		return timesheet.StoredRecord{}, err
	}
	r.OwnerRole = timesheet.Role(role)
	r.Status = timesheet.Status(status)
	r.AdminNotes = notes.String
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	if err := json.Unmarshal([]byte(entriesJSON), &r.Entries); err != nil {
		return timesheet.StoredRecord{}, fmt.Errorf("failed to decode entries of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &r.ReimbursementItems); err != nil {
		return timesheet.StoredRecord{}, fmt.Errorf("failed to decode reimbursement items of %s: %w", r.ID, err)
	}
	return r, nil
}

func nonNilEntries(e []timesheet.RecordEntry) []timesheet.RecordEntry {
	if e == nil {
		return []timesheet.RecordEntry{}
	}
	return e
}

func nonNilItems(items []timesheet.RecordItem) []timesheet.RecordItem {
	if items == nil {
		return []timesheet.RecordItem{}
	}
	return items
}

// =============================================================================
// HOLIDAY CALENDAR (generic.HolidayStore interface)
// =============================================================================

// SaveHoliday saves a holiday to the database. Saving the same date and name
// again updates the recurring flag of the existing row.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) (generic.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	query := `
		INSERT INTO holidays (id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date, name) DO UPDATE SET
			recurring = excluded.recurring
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		h.ID,
		h.Date.String(),
		h.Name,
		h.Recurring,
		s.now().UTC().Format(time.RFC3339),
	).Scan(&h.ID)
	if err != nil {
		return generic.Holiday{}, fmt.Errorf("failed to save holiday: %w", err)
	}
	return h, nil
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrNotFound
	}
	return nil
}

// ListHolidays returns all holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, date, name, recurring FROM holidays ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var h generic.Holiday
		var dateStr string
		if err := rows.Scan(&h.ID, &dateStr, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		h.Date, err = generic.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("holiday %s: %w", h.ID, err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// =============================================================================
// PAY PERIODS (generic.PayPeriodStore interface)
// =============================================================================

// ConfirmPayPeriod records a confirmed period. Periods may not overlap.
func (s *Store) ConfirmPayPeriod(ctx context.Context, pp generic.PayPeriod) error {
	if err := generic.ValidatePayPeriod(pp.Period); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var overlapping int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pay_periods WHERE start_date <= ? AND end_date >= ?`,
		pp.End.String(), pp.Start.String()).Scan(&overlapping)
	if err != nil {
		return err
	}
	if overlapping > 0 {
		return fmt.Errorf("%w: pay period %s overlaps a confirmed period", generic.ErrConflict, pp.Period)
	}

	confirmedAt := pp.ConfirmedAt
	if confirmedAt.IsZero() {
		confirmedAt = s.now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pay_periods (start_date, end_date, confirmed_by, confirmed_at) VALUES (?, ?, ?, ?)`,
		pp.Start.String(), pp.End.String(), nullString(pp.ConfirmedBy), confirmedAt.UTC().Format(time.RFC3339))
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: pay period %s already confirmed", generic.ErrConflict, pp.Period)
	}
	return err
}

func (s *Store) ConfirmedPayPeriods(ctx context.Context) ([]generic.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT start_date, end_date, confirmed_by, confirmed_at FROM pay_periods ORDER BY start_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []generic.PayPeriod
	for rows.Next() {
		var (
			pp             generic.PayPeriod
			start, end, at string
			by             sql.NullString
		)
		if err := rows.Scan(&start, &end, &by, &at); err != nil {
			return nil, err
		}
		if pp.Start, err = generic.ParseDate(start); err != nil {
			return nil, err
		}
		if pp.End, err = generic.ParseDate(end); err != nil {
			return nil, err
		}
		pp.ConfirmedBy = by.String
		pp.ConfirmedAt, _ = time.Parse(time.RFC3339, at)
		periods = append(periods, pp)
	}
	return periods, rows.Err()
}

// =============================================================================
// AUDIT LOG (generic.AuditLog interface)
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, e generic.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	ts := e.Timestamp.Time
	if e.Timestamp.IsZero() {
		ts = s.now()
	}
	var payload sql.NullString
	if len(e.Payload) > 0 {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode audit payload: %w", err)
		}
		payload = sql.NullString{String: string(b), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, timestamp, actor_id, action, timesheet_id, payload_json) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, ts.UTC().Format(time.RFC3339), nullString(e.ActorID), string(e.Action), nullString(e.TimesheetID), payload)
	return err
}

// QueryAudit loads every entry and filters in Go; the log is small and
// AuditFilter.Matches keeps the rules in one place.
func (s *Store) QueryAudit(ctx context.Context, f generic.AuditFilter) ([]generic.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, actor_id, action, timesheet_id, payload_json FROM audit_log ORDER BY timestamp ASC, rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []generic.AuditEntry
	for rows.Next() {
		var (
			e                     generic.AuditEntry
			ts, action            string
			actor, sheet, payload sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &actor, &action, &sheet, &payload); err != nil {
			return nil, err
		}
		t, _ := time.Parse(time.RFC3339, ts)
		e.Timestamp = generic.TimePointOf(t)
		e.ActorID = actor.String
		e.Action = generic.AuditAction(action)
		e.TimesheetID = sheet.String
		if payload.Valid {
			_ = json.Unmarshal([]byte(payload.String), &e.Payload)
		}
		if f.Matches(e) {
			entries = append(entries, e)
		}
	}
	return entries, rows.Err()
}

// =============================================================================
// NOTES (timesheet.NoteStore interface)
// =============================================================================

func (s *Store) AddNote(ctx context.Context, n timesheet.Note) (timesheet.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM timesheets WHERE id = ?`, n.TimesheetID).Scan(&exists); err != nil {
		return timesheet.Note{}, err
	}
	if exists == 0 {
		return timesheet.Note{}, fmt.Errorf("%w: timesheet %s", generic.ErrNotFound, n.TimesheetID)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, timesheet_id, author_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.TimesheetID, nullString(n.AuthorID), n.Content, n.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return timesheet.Note{}, fmt.Errorf("failed to add note: %w", err)
	}
	return n, nil
}

func (s *Store) ListNotes(ctx context.Context, timesheetID string) ([]timesheet.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timesheet_id, author_id, content, created_at FROM notes
		WHERE timesheet_id = ? ORDER BY created_at ASC, rowid ASC`, timesheetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []timesheet.Note
	for rows.Next() {
		var (
			n      timesheet.Note
			author sql.NullString
			at     string
		)
		if err := rows.Scan(&n.ID, &n.TimesheetID, &author, &n.Content, &at); err != nil {
			return nil, err
		}
		n.AuthorID = author.String
		n.CreatedAt, _ = time.Parse(time.RFC3339, at)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
