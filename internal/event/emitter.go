// Package event provides generic event emission utilities.
package event

import "sync"

// Emitter delivers events to registered handlers.
// The zero value is ready to use.
type Emitter[E any] struct {
	mu sync.RWMutex
	// +checklocks:mu
	handlers map[int]func(E)
	// +checklocks:mu
	next int
}

// OnEvent registers a handler and returns a function that removes it.
// Handlers are called synchronously, in no particular order.
func (e *Emitter[E]) OnEvent(handler func(E)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[int]func(E))
	}
	id := e.next
	e.next++
	e.handlers[id] = handler

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.handlers, id)
	}
}

// Emit sends an event to all registered handlers.
// Must not be called with a lock the handlers might take.
func (e *Emitter[E]) Emit(event E) {
	e.mu.RLock()
	handlers := make([]func(E), 0, len(e.handlers))
	for _, h := range e.handlers {
		handlers = append(handlers, h)
	}
	e.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// Len returns the number of registered handlers.
func (e *Emitter[E]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers)
}
