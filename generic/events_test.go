package generic_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
)

type pingEvent struct{ N int }

func (pingEvent) EventName() string { return "ping" }

type pongEvent struct{ S string }

func (pongEvent) EventName() string { return "pong" }

func newTestBus() (*generic.Bus, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return generic.NewBus(logger), &buf
}

// =============================================================================
// DISPATCH TESTS
// =============================================================================

func TestBus_Emit_RegistrationOrder(t *testing.T) {
	// GIVEN: Three handlers on the same event
	// WHEN: The event is emitted
	// THEN: They run synchronously, in registration order

	bus, _ := newTestBus()
	var calls []string
	generic.On(bus, func(e pingEvent) { calls = append(calls, "a") })
	generic.On(bus, func(e pingEvent) { calls = append(calls, "b") })
	generic.On(bus, func(e pingEvent) { calls = append(calls, "c") })

	bus.Emit(pingEvent{N: 1})

	assert.Equal(t, []string{"a", "b", "c"}, calls)
}

func TestBus_Emit_OnlyMatchingEvent(t *testing.T) {
	bus, _ := newTestBus()
	var pings, pongs int
	generic.On(bus, func(pingEvent) { pings++ })
	generic.On(bus, func(pongEvent) { pongs++ })

	bus.Emit(pingEvent{})
	bus.Emit(pingEvent{})
	bus.Emit(pongEvent{})

	assert.Equal(t, 2, pings)
	assert.Equal(t, 1, pongs)
}

func TestBus_Emit_TypedPayload(t *testing.T) {
	bus, _ := newTestBus()
	var got pingEvent
	generic.On(bus, func(e pingEvent) { got = e })

	bus.Emit(pingEvent{N: 42})

	assert.Equal(t, 42, got.N)
}

func TestBus_Emit_NoSubscribersIsNoop(t *testing.T) {
	bus, _ := newTestBus()
	assert.NotPanics(t, func() { bus.Emit(pingEvent{}) })
}

func TestBus_NilLoggerFallsBackToDefault(t *testing.T) {
	bus := generic.NewBus(nil)
	generic.On(bus, func(pingEvent) { panic("boom") })
	assert.NotPanics(t, func() { bus.Emit(pingEvent{}) })
}

// =============================================================================
// ISOLATION TESTS
// =============================================================================

func TestBus_PanickingHandler_IsolatedAndLogged(t *testing.T) {
	// GIVEN: A handler that panics between two healthy handlers
	// WHEN: The event is emitted
	// THEN: Both healthy handlers still run, Emit returns normally,
	//       and the failure is logged with the event name

	bus, logs := newTestBus()
	var ran []string
	generic.On(bus, func(pingEvent) { ran = append(ran, "first") })
	generic.On(bus, func(pingEvent) { panic("handler exploded") })
	generic.On(bus, func(pingEvent) { ran = append(ran, "last") })

	require.NotPanics(t, func() { bus.Emit(pingEvent{}) })

	assert.Equal(t, []string{"first", "last"}, ran)
	assert.Contains(t, logs.String(), "event handler failed")
	assert.Contains(t, logs.String(), "event=ping")
	assert.Contains(t, logs.String(), "handler exploded")
}

// =============================================================================
// SUBSCRIPTION LIFECYCLE TESTS
// =============================================================================

func TestBus_Unsubscribe(t *testing.T) {
	bus, _ := newTestBus()
	var a, b int
	unsubA := generic.On(bus, func(pingEvent) { a++ })
	generic.On(bus, func(pingEvent) { b++ })

	bus.Emit(pingEvent{})
	unsubA()
	unsubA() // second call is harmless
	bus.Emit(pingEvent{})

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, 1, bus.Count("ping"))
}

func TestBus_UnsubscribeDuringEmit(t *testing.T) {
	// GIVEN: A handler that unsubscribes itself while being dispatched
	// WHEN: The event is emitted twice
	// THEN: The sibling registered after it still runs both times

	bus, _ := newTestBus()
	var self, sibling int
	var unsub func()
	unsub = generic.On(bus, func(pingEvent) {
		self++
		unsub()
	})
	generic.On(bus, func(pingEvent) { sibling++ })

	bus.Emit(pingEvent{})
	bus.Emit(pingEvent{})

	assert.Equal(t, 1, self)
	assert.Equal(t, 2, sibling)
}

func TestBus_CountAndReset(t *testing.T) {
	bus, _ := newTestBus()
	generic.On(bus, func(pingEvent) {})
	generic.On(bus, func(pingEvent) {})
	generic.On(bus, func(pongEvent) {})

	assert.Equal(t, 2, bus.Count("ping"))
	assert.Equal(t, 1, bus.Count("pong"))
	assert.Equal(t, 3, bus.Count(""))

	bus.Reset()

	assert.Equal(t, 0, bus.Count(""))
}
