/*
events.go - Typed synchronous publish/subscribe

PURPOSE:
  Lets presentation fragments and the aggregation engine react to state
  changes without polling. Each event kind is its own Go type, so a handler
  registered with On[E] receives exactly the data that kind carries.

DISPATCH RULES:
  - Emit runs every current handler for the event's name, in registration
    order, on the calling goroutine, and returns when all have run.
  - A handler that panics is recovered and logged; the remaining handlers
    still run and the emitting mutation still completes.
  - No wildcard subscriptions, no queuing, no replay for late subscribers.

CONCURRENCY:
  A Bus belongs to one session and is driven from one goroutine at a time.
  Callers that share a session across goroutines serialize access themselves
  (see api/session.go).

USAGE:
  bus := generic.NewBus(logger)
  unsubscribe := generic.On(bus, func(e timesheet.HourTypeAddedEvent) { ... })
  bus.Emit(timesheet.HourTypeAddedEvent{HourType: "Work"})
  unsubscribe()
*/
package generic

import (
	"log/slog"
)

// Event is implemented by every event kind. EventName must use a value
// receiver and return a constant, so the name can be read from a zero value.
type Event interface {
	EventName() string
}

type subscription struct {
	id uint64
	fn func(Event)
}

// Bus dispatches events to handlers keyed by event name.
type Bus struct {
	logger   *slog.Logger
	nextID   uint64
	handlers map[string][]subscription
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		logger:   logger,
		handlers: make(map[string][]subscription),
	}
}

// Subscribe registers fn for the named event and returns its unsubscribe
// function. Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(name string, fn func(Event)) func() {
	b.nextID++
	id := b.nextID
	b.handlers[name] = append(b.handlers[name], subscription{id: id, fn: fn})
	return func() { b.remove(name, id) }
}

// On registers a handler typed by the event kind it accepts.
func On[E Event](b *Bus, fn func(E)) func() {
	var zero E
	return b.Subscribe(zero.EventName(), func(e Event) {
		if ev, ok := e.(E); ok {
			fn(ev)
		}
	})
}

// Emit delivers e to the handlers registered for its name.
func (b *Bus) Emit(e Event) {
	name := e.EventName()
	// Copy so handlers may unsubscribe (or subscribe) while being dispatched.
	subs := append([]subscription(nil), b.handlers[name]...)
	for _, s := range subs {
		b.dispatch(name, s, e)
	}
}

func (b *Bus) dispatch(name string, s subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler failed",
				slog.String("event", name),
				slog.Uint64("subscription", s.id),
				slog.Any("panic", r))
		}
	}()
	s.fn(e)
}

func (b *Bus) remove(name string, id uint64) {
	subs := b.handlers[name]
	for i, s := range subs {
		if s.id == id {
			b.handlers[name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[name]) == 0 {
		delete(b.handlers, name)
	}
}

// Count returns the number of handlers registered for the named event,
// or for all events when name is empty.
func (b *Bus) Count(name string) int {
	if name != "" {
		return len(b.handlers[name])
	}
	n := 0
	for _, subs := range b.handlers {
		n += len(subs)
	}
	return n
}

// Reset drops every subscription.
func (b *Bus) Reset() {
	b.handlers = make(map[string][]subscription)
}
