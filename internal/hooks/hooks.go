// Package hooks dispatches receptionist lifecycle events to in-process
// handlers and configured shell commands.
package hooks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soyeahso/frontdesk/internal/logging"
)

// Lifecycle events.
const (
	EventSessionStart     = "session_start"
	EventSessionEnd       = "session_end"
	EventTurnHandled      = "turn_handled"
	EventBookingCompleted = "booking_completed"
	EventGatewayStart     = "gateway_start"
	EventGatewayStop      = "gateway_stop"
)

// AllEvents lists every event the receptionist emits.
var AllEvents = []string{
	EventSessionStart,
	EventSessionEnd,
	EventTurnHandled,
	EventBookingCompleted,
	EventGatewayStart,
	EventGatewayStop,
}

// Payload is what a handler receives. Seq increases by one per emitted
// event across the manager, so consumers can order a call's events even
// when async handlers run out of order.
type Payload struct {
	Event string         `json:"event"`
	Seq   int64          `json:"seq"`
	At    time.Time      `json:"at"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler handles one event. An error is logged and never reaches the
// caller that emitted the event.
type Handler func(ctx context.Context, p Payload) error

// Manager holds handler registrations per event.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	log      *logging.Logger
	now      func() time.Time
	seq      atomic.Int64
	inflight sync.WaitGroup
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
		now:      time.Now,
	}
}

// On registers a handler for event. Handlers run in registration order.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// Off removes the handlers registered under name for event.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.handlers[event][:0:0]
	for _, h := range m.handlers[event] {
		if h.name != name {
			kept = append(kept, h)
		}
	}
	m.handlers[event] = kept
}

// Count returns the number of handlers registered for event.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}

// Emit runs the event's handlers one after another before returning.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	p, handlers := m.prepare(event, data)
	for _, h := range handlers {
		m.call(ctx, h, p)
	}
}

// EmitAsync starts each handler in its own goroutine and returns. Turn
// latency never waits on a booking email script.
func (m *Manager) EmitAsync(ctx context.Context, event string, data map[string]any) {
	p, handlers := m.prepare(event, data)
	for _, h := range handlers {
		m.inflight.Add(1)
		go func() {
			defer m.inflight.Done()
			m.call(ctx, h, p)
		}()
	}
}

// Wait blocks until every handler started by EmitAsync has returned.
func (m *Manager) Wait() {
	m.inflight.Wait()
}

// prepare numbers the event and snapshots its handlers. Events without
// handlers still consume a sequence number.
func (m *Manager) prepare(event string, data map[string]any) (Payload, []namedHandler) {
	p := Payload{Event: event, Seq: m.seq.Add(1), At: m.now().UTC(), Data: data}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return p, append([]namedHandler(nil), m.handlers[event]...)
}

// call runs one handler, turning a panic into a logged error so a broken
// subscriber cannot take down the call that emitted the event.
func (m *Manager) call(ctx context.Context, h namedHandler, p Payload) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return h.handler(ctx, p)
	}()
	if err != nil {
		m.log.Warn().
			Err(err).
			Str("event", p.Event).
			Int64("seq", p.Seq).
			Str("handler", h.name).
			Msg("hook handler failed")
	}
}
