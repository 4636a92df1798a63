// Package event provides the synchronous publish/subscribe bus that carries
// simulation state changes to the unlock, prestige and shop managers and to
// the external renderer.
package event

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Name identifies an event kind.
type Name string

// Handler receives the payload of an emitted event.
type Handler func(payload any)

// TapHandler observes every emitted event.
type TapHandler func(name Name, payload any)

// Bus dispatches events to registered handlers.
//
// Architecture:
//   - Emit runs every handler for the name synchronously on the caller's goroutine
//   - Handlers for one name run in registration order
//   - A panicking handler is logged and skipped; later handlers still run
//   - Emits from inside a handler are dispatched depth-first, before the outer emit resumes
//   - Taps observe every event after its named handlers ran
//
// Bus is not safe for concurrent use; it belongs to exactly one session, whose
// lock serializes every Emit.
type Bus struct {
	handlers map[Name][]Handler
	taps     []tap
	nextTap  int
	logger   *zap.Logger
}

type tap struct {
	id int
	h  TapHandler
}

// NewBus creates an empty Bus.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a Bus with no handlers.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[Name][]Handler),
		logger:   logger,
	}
}

// On registers h for events named name.
//
// Precondition: h must be non-nil.
// Postcondition: HandlerCount(name) is incremented by one.
func (b *Bus) On(name Name, h Handler) {
	b.handlers[name] = append(b.handlers[name], h)
}

// Off removes every handler registered for name.
//
// Postcondition: HandlerCount(name) == 0.
func (b *Bus) Off(name Name) {
	delete(b.handlers, name)
}

// Emit invokes every handler registered for name with payload, in registration order.
//
// Postcondition: Every handler registered at the time of the call has run to completion
// or panicked (and been logged) before Emit returns.
func (b *Bus) Emit(name Name, payload any) {
	// Copy so handlers registered during dispatch do not run for this emit.
	hs := append([]Handler(nil), b.handlers[name]...)
	for i, h := range hs {
		b.dispatch(name, i, h, payload)
	}
	for _, t := range append([]tap(nil), b.taps...) {
		b.dispatch(name, -1, func(p any) { t.h(name, p) }, payload)
	}
}

// Tap registers h to observe every event, whatever its name.
//
// Precondition: h must be non-nil.
// Postcondition: Calling the returned function removes h; calling it again is a no-op.
func (b *Bus) Tap(h TapHandler) func() {
	b.nextTap++
	id := b.nextTap
	b.taps = append(b.taps, tap{id: id, h: h})
	return func() {
		b.taps = slices.DeleteFunc(b.taps, func(t tap) bool { return t.id == id })
	}
}

// TapCount returns the number of registered taps.
func (b *Bus) TapCount() int { return len(b.taps) }

func (b *Bus) dispatch(name Name, index int, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event", string(name)),
				zap.Int("handler", index),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	h(payload)
}

// HandlerCount returns the number of handlers registered for name.
func (b *Bus) HandlerCount(name Name) int {
	return len(b.handlers[name])
}

// Notify emits a Notification with the given severity and message.
func (b *Bus) Notify(severity Severity, format string, args ...any) {
	b.Emit(NotificationRequested, Notification{
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
	})
}
