/*
handlers.go - HTTP API handlers for the timesheet engine

PURPOSE:
  Exposes the timesheet form over REST. A client opens a session for an
  owner's week, edits rows, cells and reimbursements through it, then
  saves or submits. Handlers parse and validate requests and delegate to
  the session's Store and Engine.

ENDPOINTS:
  Sessions:
    POST   /api/sessions                          Open a form (loads the stored week if any)
    GET    /api/sessions/{id}                     Current grid
    DELETE /api/sessions/{id}                     Close the form
    POST   /api/sessions/{id}/load                Replace the sheet with a record
    POST   /api/sessions/{id}/hour-types          Add a row
    DELETE /api/sessions/{id}/hour-types/{type}   Remove a row
    PUT    /api/sessions/{id}/entries/{type}/{day} Commit a cell
    POST   /api/sessions/{id}/reimbursements      Add an item
    PUT    /api/sessions/{id}/reimbursements/{itemID}    Update one field
    DELETE /api/sessions/{id}/reimbursements/{itemID}    Remove an item
    POST   /api/sessions/{id}/save                Persist the draft
    POST   /api/sessions/{id}/submit              Workflow transition

  Stored timesheets:
    GET    /api/timesheets?owner_id=              Owner's stored weeks
    GET    /api/timesheets/{id}/audit             Audit trail

  Calendar:
    GET    /api/holidays                          Configured holidays
    POST   /api/holidays                          Add a holiday
    DELETE /api/holidays/{id}                     Remove a holiday
    GET    /api/pay-periods                       Confirmed pay periods
    GET    /api/pay-periods/status?start=         Approval state and totals of a pay period
    POST   /api/pay-periods/confirm               Confirm and lock a pay period

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input, invalid day, field or transition, or a pay period
         with unapproved timesheets
  - 403: Actor may not perform the workflow step
  - 404: Unknown session, record, item or row
  - 409: Duplicate row, or a stored record collides with another
  - 423: Sheet is read-only (submitted or pay period locked)
  - 500: Internal errors

SECURITY NOTE:
  No authentication. Actor identity in workflow requests is trusted.

SEE ALSO:
  - dto.go: Request/response data structures
  - session.go: Session registry
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// errForbidden is returned when the actor may not perform a workflow step.
var errForbidden = errors.New("forbidden")

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Repo     timesheet.Repository
	Sessions *Registry
	Catalog  *timesheet.Catalog

	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewHandler creates a new handler over the given repository.
func NewHandler(repo timesheet.Repository, catalog *timesheet.Catalog, logger *slog.Logger) *Handler {
	if catalog == nil {
		catalog = timesheet.DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Repo:     repo,
		Sessions: NewRegistry(logger),
		Catalog:  catalog,
		logger:   logger.With(slog.String("component", "api")),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// OpenSession opens a form for an owner's week.
// POST /api/sessions
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req OpenSessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	role, _ := timesheet.ParseRole(req.Role)
	weekStart, err := generic.ParseDate(req.WeekStart)
	if err == nil && !weekStart.IsSunday() {
		err = &generic.MalformedRecordError{Problems: []string{"week_start: must be a Sunday"}}
	}
	if err != nil {
		writeDomainError(w, "Invalid week start", err)
		return
	}

	calendar, err := generic.LoadCalendar(ctx, h.Repo)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load holidays", err)
		return
	}

	sess := h.Sessions.Open(req.OwnerID, role, weekStart, h.Catalog, calendar)

	var dto SessionDTO
	err = h.Sessions.with(sess.ID, func(s *Session) error {
		stored, err := h.Repo.FindRecord(ctx, s.OwnerID, weekStart)
		switch {
		case err == nil:
			if err := h.loadRecord(ctx, s, stored.Record); err != nil {
				return err
			}
		case errors.Is(err, generic.ErrNotFound):
			if err := h.applyPayPeriodLock(ctx, s); err != nil {
				return err
			}
		default:
			return err
		}
		dto = sessionDTO(s)
		return nil
	})
	if err != nil {
		_ = h.Sessions.Close(sess.ID)
		writeDomainError(w, "Failed to open timesheet", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto)
}

// GetSession returns the current grid.
// GET /api/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	var dto SessionDTO
	err := h.Sessions.with(chi.URLParam(r, "id"), func(s *Session) error {
		dto = sessionDTO(s)
		return nil
	})
	if err != nil {
		writeDomainError(w, "Session not available", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// CloseSession disposes the form. Unsaved edits are discarded.
// DELETE /api/sessions/{id}
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Close(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Session not available", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadSession replaces the sheet with an inbound record or a stored one.
// An inbound record may only replace the owner's own editable sheet.
// POST /api/sessions/{id}/load
func (h *Handler) LoadSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req LoadRequest
	if !h.decode(w, r, &req) {
		return
	}

	var dto SessionDTO
	err := h.Sessions.with(chi.URLParam(r, "id"), func(s *Session) error {
		record := req.Record
		if record != nil {
			inline, err := h.reconcileInline(ctx, s, *record)
			if err != nil {
				return err
			}
			record = &inline
		} else {
			stored, err := h.Repo.GetRecord(ctx, req.TimesheetID)
			if err != nil {
				return err
			}
			if stored.OwnerID != s.OwnerID {
				return fmt.Errorf("%w: timesheet %s", generic.ErrNotFound, req.TimesheetID)
			}
			record = &stored.Record
		}
		if err := h.loadRecord(ctx, s, *record); err != nil {
			return err
		}
		dto = sessionDTO(s)
		return nil
	})
	if err != nil {
		writeDomainError(w, "Failed to load timesheet", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// reconcileInline binds a client-supplied record to what is stored for the
// session owner. Identity, week, status and pay-period flag always come from
// storage; only a stored sheet that is still editable may be replaced, and a
// sheet with no stored counterpart is a NEW draft.
func (h *Handler) reconcileInline(ctx context.Context, s *Session, record timesheet.Record) (timesheet.Record, error) {
	var (
		stored timesheet.StoredRecord
		err    error
	)
	if record.ID != "" {
		stored, err = h.Repo.GetRecord(ctx, record.ID)
		if err == nil && stored.OwnerID != s.OwnerID {
			err = fmt.Errorf("%w: timesheet %s", generic.ErrNotFound, record.ID)
		}
		if err != nil {
			return timesheet.Record{}, err
		}
	} else {
		weekStart, perr := generic.ParseDate(record.WeekStart)
		if perr != nil {
			// LoadTimesheet reports the malformed anchor.
			record.Status, record.PayPeriodConfirmed = timesheet.StatusNew, false
			return record, nil
		}
		stored, err = h.Repo.FindRecord(ctx, s.OwnerID, weekStart)
		if errors.Is(err, generic.ErrNotFound) {
			record.Status, record.PayPeriodConfirmed = timesheet.StatusNew, false
			return record, nil
		}
		if err != nil {
			return timesheet.Record{}, err
		}
	}

	if !stored.Status.AllowsEditing() || stored.PayPeriodConfirmed {
		reason := "status " + string(stored.Status)
		if stored.PayPeriodConfirmed {
			reason = "pay period locked"
		}
		return timesheet.Record{}, &generic.ReadOnlyError{Operation: "load", Reason: reason}
	}
	record.ID = stored.ID
	record.WeekStart = stored.WeekStart
	record.Status = stored.Status
	record.PayPeriodConfirmed = stored.PayPeriodConfirmed
	return record, nil
}

// loadRecord hands a record to the store and applies any confirmed pay
// period, which wins over the record's own flag.
func (h *Handler) loadRecord(ctx context.Context, s *Session, record timesheet.Record) error {
	if err := s.store.LoadTimesheet(record); err != nil {
		return err
	}
	return h.applyPayPeriodLock(ctx, s)
}

func (h *Handler) applyPayPeriodLock(ctx context.Context, s *Session) error {
	confirmed, err := h.Repo.ConfirmedPayPeriods(ctx)
	if err != nil {
		return err
	}
	if timesheet.PayPeriodLocked(s.store.WeekStart(), confirmed) {
		s.store.SetPayPeriodLocked(true)
	}
	return nil
}

// =============================================================================
// GRID HANDLERS
// =============================================================================

// AddHourType adds an empty row.
// POST /api/sessions/{id}/hour-types
func (h *Handler) AddHourType(w http.ResponseWriter, r *http.Request) {
	var req AddHourTypeRequest
	if !h.decode(w, r, &req) {
		return
	}

	var dto SessionDTO
	err := h.Sessions.with(chi.URLParam(r, "id"), func(s *Session) error {
		if err := s.engine.AddHourType(timesheet.HourType(req.HourType)); err != nil {
			return err
		}
		dto = sessionDTO(s)
		return nil
	})
	if err != nil {
		writeDomainError(w, "Failed to add hour type", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

// RemoveHourType removes a row and its values.
// DELETE /api/sessions/{id}/hour-types/{type}
func (h *Handler) RemoveHourType(w http.ResponseWriter, r *http.Request) {
	ht, err := hourTypeParam(r)
	if err != nil {
		writeDomainError(w, "Invalid hour type", err)
		return
	}

	var dto SessionDTO
	err = h.Sessions.with(chi.URLParam(r, "id"), func(s *Session) error {
		if err := s.engine.RemoveHourType(ht); err != nil {
			return err
		}
		dto = sessionDTO(s)
		return nil
	})
	if err != nil {
		writeDomainError(w, "Failed to remove hour type", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// CommitEntry quantizes and stores the typed value for one cell.
// PUT /api/sessions/{id}/entries/{type}/{day}
func (h *Handler) CommitEntry(w http.ResponseWriter, r *http.Request) {
	ht, err := hourTypeParam(r)
	if err != nil {
		writeDomainError(w, "Invalid hour type", err)
		return
	}
	day, err := generic.ParseWeekday(chi.URLParam(r, "day"))
	if err != nil {
		writeDomainError(w, "Invalid day", fmt.Errorf("%w: %v", generic.ErrInvalidDay, err))
		return
	}
	var req EntryRequest
	if !h.decode(w, r, &req) {
		return
	}

	var dto EntryDTO
	err = h.Sessions.with(chi.URLParam(r, "id"), func(s *Session) error {
		cell, err := s.engine.CommitHours(ht, day, req.Value)
		if err != nil {
			return err
		}
		dto = EntryDTO{
			HourType:    ht,
			Day:         day.Key(),
			Hours:       cell.Display(),
			RowTotal:    timesheet.FormatHours(s.engine.RowTotal(ht)),
			ColumnTotal: timesheet.FormatHours(s.engine.ColumnTotal(day)),
			GrandTotal:  timesheet.FormatHours(s.engine.GrandTotal()),
		}
		if n, ok := s.engine.HolidayNotice(ht, day); ok {
			dto.Notice = &timesheet.NoticeView{
				HourType: n.HourType,
				Day:      n.Day.Key(),
				Date:     n.Date.String(),
				Holiday:  n.Holiday,
				Message:  n.Message(),
			}
		}
		return nil
	})
	if err != nil {
		writeDomainError(w, "Failed to commit entry", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func hourTypeParam(r *http.Request) (timesheet.HourType, error) {
	raw, err := url.PathUnescape(chi.URLParam(r, "type"))
	if err != nil || raw == "" {
		return "", fmt.Errorf("%w: %q", generic.ErrHourTypeNotPresent, chi.URLParam(r, "type"))
	}
	return timesheet.HourType(raw), nil
}

// =============================================================================
// REIMBURSEMENT HANDLERS
// =============================================================================

// AddReimbursement appends an expense line.
// POST /api/sessions/{id}/reimbursements
func (h *Handler) AddReimbursement(w http.ResponseWriter, r *http.Request) {
	var req ReimbursementRequest
	if !h.decode(w, r, &req) {
		return
	}
	amount, _ := generic.ParseAmount(req.Amount, generic.UnitDollars)
	item := timesheet.ReimbursementItem{
		Description: req.Description,
		Amount:      amount,
		Category:    timesheet.ExpenseType(req.Category),
	}
	if req.Date != "" {
		item.Date, _ = generic.ParseDate(req.Date)
	}

	var dto ReimbursementDTO
	err := h.Sessions.with(chi.URLParam(r, "id"), func(s *Session) error {
		added, err := s.store.AddReimbursementItem(item)
		if err != nil {
			return err
		}
		dto = ReimbursementDTO{
			Item:  timesheet.ItemViewOf(added),
			Total: timesheet.FormatMoney(s.store.ReimbursementTotal()),
		}
		return nil
	})
	if err != nil {
		writeDomainError(w, "Failed to add reimbursement", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

// UpdateReimbursement sets one field of an item.
// PUT /api/sessions/{id}/reimbursements/{itemID}
func (h *Handler) UpdateReimbursement(w http.ResponseWriter, r *http.Request) {
	var req UpdateReimbursementRequest
	if !h.decode(w, r, &req) {
		return
	}

	var dto ReimbursementDTO
	err := h.Sessions.with(chi.URLParam(r, "id"), func(s *Session) error {
		item, err := s.store.UpdateReimbursementItem(chi.URLParam(r, "itemID"), req.Field, req.Value)
		if err != nil {
			return err
		}
		dto = ReimbursementDTO{
			Item:  timesheet.ItemViewOf(item),
			Total: timesheet.FormatMoney(s.store.ReimbursementTotal()),
		}
		return nil
	})
	if err != nil {
		writeDomainError(w, "Failed to update reimbursement", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// RemoveReimbursement deletes an item.
// DELETE /api/sessions/{id}/reimbursements/{itemID}
func (h *Handler) RemoveReimbursement(w http.ResponseWriter, r *http.Request) {
	err := h.Sessions.with(chi.URLParam(r, "id"), func(s *Session) error {
		return s.store.RemoveReimbursementItem(chi.URLParam(r, "itemID"))
	})
	if err != nil {
		writeDomainError(w, "Failed to remove reimbursement", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PERSISTENCE AND WORKFLOW HANDLERS
// =============================================================================

// SaveSession persists the draft and clears the dirty flag.
// POST /api/sessions/{id}/save
func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var dto SessionDTO
	err := h.Sessions.with(chi.URLParam(r, "id"), func(s *Session) error {
		if !s.store.IsEditable() {
			sheet := s.store.Timesheet()
			return &generic.ReadOnlyError{Operation: "save", Reason: sheet.ReadOnlyReason()}
		}
		stored, err := h.persist(ctx, s)
		if err != nil {
			return err
		}
		h.audit(ctx, generic.AuditEntry{
			ActorID:     s.OwnerID,
			Action:      generic.AuditTimesheetSaved,
			TimesheetID: stored.ID,
			Payload: map[string]any{
				"grand_total":         timesheet.FormatHours(s.engine.GrandTotal()),
				"reimbursement_total": timesheet.FormatMoney(s.store.ReimbursementTotal()),
			},
		})
		dto = sessionDTO(s)
		return nil
	})
	if err != nil {
		writeDomainError(w, "Failed to save timesheet", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// Transition moves the sheet through the approval workflow and persists it.
// Owners submit; reviewers approve, return or reopen.
// POST /api/sessions/{id}/submit
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req TransitionRequest
	if !h.decode(w, r, &req) {
		return
	}
	next := timesheet.StatusSubmitted
	if req.Status != "" {
		next = timesheet.Status(req.Status)
	}
	actorRole, _ := timesheet.ParseRole(req.ActorRole)

	var dto SessionDTO
	err := h.Sessions.with(chi.URLParam(r, "id"), func(s *Session) error {
		from := s.store.Status()
		reviewer := timesheet.CanReview(actorRole, s.OwnerRole)
		if timesheet.IsReviewStep(from, next) && !reviewer {
			return fmt.Errorf("%w: %s may not review a %s timesheet", errForbidden, actorRole, s.OwnerRole)
		}
		if !timesheet.IsReviewStep(from, next) && req.ActorID != s.OwnerID && !reviewer {
			return fmt.Errorf("%w: only the owner may submit", errForbidden)
		}

		if err := s.store.Transition(next); err != nil {
			return err
		}
		stored, err := h.persist(ctx, s)
		if err != nil {
			_ = s.store.SetStatus(from)
			return err
		}
		payload := map[string]any{"from": string(from), "to": string(next)}
		if next == timesheet.StatusNeedsApproval && req.Reason != "" {
			if err := h.sendBack(ctx, stored.ID, req.ActorID, req.Reason); err != nil {
				return err
			}
			payload["reason"] = req.Reason
		}
		h.audit(ctx, generic.AuditEntry{
			ActorID:     req.ActorID,
			Action:      timesheet.AuditAction(from, next),
			TimesheetID: stored.ID,
			Payload:     payload,
		})
		dto = sessionDTO(s)
		return nil
	})
	if err != nil {
		writeDomainError(w, "Failed to change status", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// sendBack records why a sheet was returned: the reason becomes the admin
// note and is kept in the notes history.
func (h *Handler) sendBack(ctx context.Context, id, actorID, reason string) error {
	if err := h.Repo.SetAdminNotes(ctx, id, reason); err != nil {
		return err
	}
	_, err := h.Repo.AddNote(ctx, timesheet.Note{
		TimesheetID: id,
		AuthorID:    actorID,
		Content:     "Needs approval: " + reason,
	})
	return err
}

func (h *Handler) persist(ctx context.Context, s *Session) (timesheet.StoredRecord, error) {
	stored, err := h.Repo.SaveRecord(ctx, timesheet.StoredRecord{
		Record:    s.engine.Record(),
		OwnerID:   s.OwnerID,
		OwnerRole: s.OwnerRole,
	})
	if err != nil {
		return timesheet.StoredRecord{}, err
	}
	s.store.SetID(stored.ID)
	s.store.ClearChanges()
	return stored, nil
}

// audit never fails the request; a lost audit line is logged.
func (h *Handler) audit(ctx context.Context, e generic.AuditEntry) {
	e.Timestamp = generic.TimePointOf(h.now())
	if err := h.Repo.AppendAudit(ctx, e); err != nil {
		h.logger.Error("failed to append audit entry",
			slog.String("action", string(e.Action)),
			slog.String("timesheet", e.TimesheetID),
			slog.Any("error", err))
	}
}

// =============================================================================
// STORED TIMESHEET HANDLERS
// =============================================================================

// ListTimesheets returns an owner's stored weeks, newest first.
// GET /api/timesheets?owner_id=
func (h *Handler) ListTimesheets(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required", nil)
		return
	}
	records, err := h.Repo.ListRecords(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list timesheets", err)
		return
	}
	dtos := make([]TimesheetDTO, len(records))
	for i, rec := range records {
		dtos[i] = toTimesheetDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAudit returns the audit trail of a stored timesheet.
// GET /api/timesheets/{id}/audit
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := h.Repo.QueryAudit(r.Context(), generic.AuditFilter{TimesheetID: &id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query audit log", err)
		return
	}
	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toAuditEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// reviewable loads a stored sheet a reviewer may annotate. Drafts that were
// never submitted are not visible to reviewers.
func (h *Handler) reviewable(ctx context.Context, id, actorRole string) (timesheet.StoredRecord, error) {
	stored, err := h.Repo.GetRecord(ctx, id)
	if err != nil {
		return timesheet.StoredRecord{}, err
	}
	if stored.Status == timesheet.StatusNew || stored.Status == "" {
		return timesheet.StoredRecord{}, fmt.Errorf("%w: timesheet %s has not been submitted", generic.ErrNotFound, id)
	}
	role, _ := timesheet.ParseRole(actorRole)
	if !timesheet.CanReview(role, stored.OwnerRole) {
		return timesheet.StoredRecord{}, fmt.Errorf("%w: %s may not review a %s timesheet", errForbidden, role, stored.OwnerRole)
	}
	return stored, nil
}

// UpdateAdminNotes replaces the reviewer note of a stored sheet.
// PUT /api/timesheets/{id}/admin-notes
func (h *Handler) UpdateAdminNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req AdminNotesRequest
	if !h.decode(w, r, &req) {
		return
	}
	stored, err := h.reviewable(ctx, chi.URLParam(r, "id"), req.ActorRole)
	if err != nil {
		writeDomainError(w, "Failed to update admin notes", err)
		return
	}
	if err := h.Repo.SetAdminNotes(ctx, stored.ID, req.AdminNotes); err != nil {
		writeDomainError(w, "Failed to update admin notes", err)
		return
	}
	stored.AdminNotes = req.AdminNotes
	h.audit(ctx, generic.AuditEntry{
		ActorID:     req.ActorID,
		Action:      generic.AuditNotesChanged,
		TimesheetID: stored.ID,
		Payload:     map[string]any{"admin_notes": req.AdminNotes},
	})
	writeJSON(w, http.StatusOK, toTimesheetDTO(stored))
}

// AddNote appends a reviewer comment to a stored sheet.
// POST /api/timesheets/{id}/notes
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req NoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	stored, err := h.reviewable(ctx, chi.URLParam(r, "id"), req.ActorRole)
	if err != nil {
		writeDomainError(w, "Failed to add note", err)
		return
	}
	note, err := h.Repo.AddNote(ctx, timesheet.Note{TimesheetID: stored.ID, AuthorID: req.ActorID, Content: req.Content})
	if err != nil {
		writeDomainError(w, "Failed to add note", err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteDTO(note))
}

// ListNotes returns a stored sheet's reviewer comments, oldest first.
// GET /api/timesheets/{id}/notes
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if _, err := h.Repo.GetRecord(ctx, id); err != nil {
		writeDomainError(w, "Failed to list notes", err)
		return
	}
	notes, err := h.Repo.ListNotes(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notes", err)
		return
	}
	dtos := make([]NoteDTO, len(notes))
	for i, n := range notes {
		dtos[i] = toNoteDTO(n)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ListHolidays returns all holidays.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Repo.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday. Open sessions keep the calendar they were
// opened with.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateHolidayRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, _ := generic.ParseDate(req.Date)

	saved, err := h.Repo.SaveHoliday(ctx, generic.Holiday{Date: date, Name: req.Name, Recurring: req.Recurring})
	if err != nil {
		writeDomainError(w, "Failed to save holiday", err)
		return
	}
	h.audit(ctx, generic.AuditEntry{
		ActorID: req.ActorID,
		Action:  generic.AuditHolidayChanged,
		Payload: map[string]any{"holiday_id": saved.ID, "date": saved.Date.String(), "name": saved.Name},
	})
	writeJSON(w, http.StatusCreated, toHolidayDTO(saved))
}

// DeleteHoliday removes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := h.Repo.DeleteHoliday(ctx, id); err != nil {
		writeDomainError(w, "Failed to delete holiday", err)
		return
	}
	h.audit(ctx, generic.AuditEntry{
		Action:  generic.AuditHolidayChanged,
		Payload: map[string]any{"holiday_id": id, "deleted": true},
	})
	w.WriteHeader(http.StatusNoContent)
}

// ListPayPeriods returns the confirmed pay periods.
// GET /api/pay-periods
func (h *Handler) ListPayPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Repo.ConfirmedPayPeriods(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pay periods", err)
		return
	}
	dtos := make([]PayPeriodDTO, len(periods))
	for i, pp := range periods {
		dtos[i] = toPayPeriodDTO(pp)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PayPeriodStatus summarizes the stored timesheets of the pay period starting
// at ?start= and whether it can be confirmed.
// GET /api/pay-periods/status?start=2026-01-04
func (h *Handler) PayPeriodStatus(w http.ResponseWriter, r *http.Request) {
	start, err := generic.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}
	period := generic.NewPayPeriod(start)
	if !start.IsSunday() {
		writeDomainError(w, "Invalid start date", &generic.PayPeriodError{Period: period})
		return
	}

	records, err := h.Repo.ListRecordsInPeriod(r.Context(), period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load pay period timesheets", err)
		return
	}
	dto := toPayPeriodStatusDTO(timesheet.SummarizePayPeriod(period, records))

	confirmed, err := h.Repo.ConfirmedPayPeriods(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pay periods", err)
		return
	}
	for _, pp := range confirmed {
		if pp.Start.Equal(period.Start) {
			c := toPayPeriodDTO(pp)
			dto.Confirmed = &c
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// ConfirmPayPeriod confirms a pay period and locks every open form whose
// week starts inside it. Every stored timesheet in the period must already
// be approved.
// POST /api/pay-periods/confirm
func (h *Handler) ConfirmPayPeriod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ConfirmPayPeriodRequest
	if !h.decode(w, r, &req) {
		return
	}
	start, _ := generic.ParseDate(req.Start)
	pp := generic.PayPeriod{
		Period:      generic.NewPayPeriod(start),
		ConfirmedBy: req.ConfirmedBy,
		ConfirmedAt: h.now().UTC(),
	}

	records, err := h.Repo.ListRecordsInPeriod(ctx, pp.Period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load pay period timesheets", err)
		return
	}
	if sum := timesheet.SummarizePayPeriod(pp.Period, records); !sum.Ready() {
		err := fmt.Errorf("%w: %d of %d pending", generic.ErrPayPeriodNotReady, sum.Pending, sum.Timesheets)
		writeJSON(w, http.StatusBadRequest, PayPeriodRejectedDTO{
			ErrorResponse: ErrorResponse{Error: "Pay period not ready", Details: err.Error()},
			Status:        toPayPeriodStatusDTO(sum),
		})
		return
	}

	if err := h.Repo.ConfirmPayPeriod(ctx, pp); err != nil {
		writeDomainError(w, "Failed to confirm pay period", err)
		return
	}

	locked := 0
	confirmed := []generic.PayPeriod{pp}
	h.Sessions.Each(func(s *Session) {
		if timesheet.PayPeriodLocked(s.store.WeekStart(), confirmed) && !s.store.PayPeriodLocked() {
			s.store.SetPayPeriodLocked(true)
			locked++
		}
	})

	h.audit(ctx, generic.AuditEntry{
		ActorID: req.ConfirmedBy,
		Action:  generic.AuditPayPeriodConfirmed,
		Payload: map[string]any{"start": pp.Start.String(), "end": pp.End.String()},
	})
	h.logger.Info("pay period confirmed",
		slog.String("period", pp.Period.String()),
		slog.Int("locked_sessions", locked))

	writeJSON(w, http.StatusCreated, ConfirmPayPeriodDTO{PayPeriod: toPayPeriodDTO(pp), LockedSessions: locked})
}

// =============================================================================
// HEALTH
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness and, when the repository supports it, database
// reachability.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Repo.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.Sessions.Len(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func sessionDTO(s *Session) SessionDTO {
	return SessionDTO{
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		Role:      s.OwnerRole,
		CreatedAt: s.CreatedAt,
		Grid:      s.engine.Grid(),
	}
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, generic.ErrReadOnly):
		return http.StatusLocked
	case errors.Is(err, generic.ErrDuplicateHourType), errors.Is(err, generic.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, generic.ErrHourTypeNotPresent):
		return http.StatusNotFound
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsClientError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
