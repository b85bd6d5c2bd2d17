/*
session.go - Registry of open timesheet forms

PURPOSE:
  An HTTP client edits one timesheet at a time through a session. Each
  session owns a timesheet.Store and the Engine subscribed to it, so the
  totals stay incremental across requests instead of being recomputed.

CONCURRENCY:
  Store and Engine are single-threaded. Every handler that touches a
  session holds Session.mu for the whole operation. The registry map has
  its own lock; when both are needed the registry lock is taken first.

LIFECYCLE:
  Open   -> NewStore + NewEngine, then Init or LoadTimesheet
  Close  -> Engine.Close + Store.Dispose, removed from the registry
  Evict  -> SessionJanitor closes sessions idle longer than the TTL

SEE ALSO:
  - janitor.go: idle eviction
  - handlers.go: session endpoints
*/
package api

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// Session is one open form.
type Session struct {
	ID        string
	OwnerID   string
	OwnerRole timesheet.Role
	CreatedAt time.Time

	mu       sync.Mutex
	store    *timesheet.Store
	engine   *timesheet.Engine
	lastUsed time.Time
	closed   bool
}

// Registry tracks the open sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
	now      func() time.Time
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logger.With(slog.String("component", "api.sessions")),
		now:      time.Now,
	}
}

// Open creates a session with an initialized, empty sheet for the week.
func (r *Registry) Open(ownerID string, role timesheet.Role, weekStart generic.TimePoint, catalog *timesheet.Catalog, calendar generic.HolidayCalendar) *Session {
	store := timesheet.NewStore(timesheet.WithLogger(r.logger))
	engine := timesheet.NewEngine(store, timesheet.EngineConfig{
		Role:     role,
		Catalog:  catalog,
		Calendar: calendar,
		Logger:   r.logger,
	})
	store.Init(weekStart)

	now := r.now()
	s := &Session{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		OwnerRole: role,
		CreatedAt: now,
		store:     store,
		engine:    engine,
		lastUsed:  now,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Info("session opened",
		slog.String("session", s.ID),
		slog.String("owner", ownerID),
		slog.String("week_start", weekStart.String()))
	return s
}

// Get returns ErrNotFound for an unknown or closed session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, generic.ErrNotFound
	}
	return s, nil
}

// Close disposes the session and forgets it.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return generic.ErrNotFound
	}

	s.mu.Lock()
	s.dispose()
	s.mu.Unlock()

	r.logger.Info("session closed", slog.String("session", id))
	return nil
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Each calls fn for every open session with its lock held.
func (r *Registry) Each(fn func(*Session)) {
	r.mu.RLock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.RUnlock()

	for _, s := range all {
		s.mu.Lock()
		if !s.closed {
			fn(s)
		}
		s.mu.Unlock()
	}
}

// EvictIdle closes every session unused since before the cutoff.
func (r *Registry) EvictIdle(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		s.mu.Lock()
		if s.lastUsed.Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
		s.mu.Unlock()
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.mu.Lock()
		s.dispose()
		s.mu.Unlock()
		r.logger.Info("session evicted", slog.String("session", s.ID))
	}
	return len(stale)
}

// CloseAll disposes every session, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range all {
		s.mu.Lock()
		s.dispose()
		s.mu.Unlock()
	}
}

// with runs fn under the session lock and marks the session used.
func (r *Registry) with(id string, fn func(*Session) error) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return generic.ErrNotFound
	}
	s.lastUsed = r.now()
	return fn(s)
}

func (s *Session) dispose() {
	if s.closed {
		return
	}
	s.engine.Close()
	s.store.Dispose()
	s.closed = true
}
