// Package event is a minimal in-process event bus. The notify sink fires a
// frame whenever a listing's visible state moves, and the listings service
// listens to invalidate its browse cache.
package event

import "sync"

// ListingChanged fires after any committed listing transition.
const ListingChanged = "listing.changed"

// Handler receives the payload fired with an event.
type Handler func(payload interface{})

var bus = struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}{handlers: map[string][]Handler{}}

// Listen subscribes handler to the named event.
func Listen(event string, handler Handler) {
	bus.mu.Lock()
	bus.handlers[event] = append(bus.handlers[event], handler)
	bus.mu.Unlock()
}

func subscribers(event string) []Handler {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	out := make([]Handler, len(bus.handlers[event]))
	copy(out, bus.handlers[event])
	return out
}

// Fire dispatches payload to every subscriber, synchronously and in
// registration order.
func Fire(event string, payload interface{}) {
	for _, h := range subscribers(event) {
		h(payload)
	}
}

// FireAsync dispatches payload to every subscriber on its own goroutine and
// returns without waiting.
func FireAsync(event string, payload interface{}) {
	for _, h := range subscribers(event) {
		go h(payload)
	}
}

// Flush drops all subscriptions. Tests use it between cases.
func Flush() {
	bus.mu.Lock()
	bus.handlers = map[string][]Handler{}
	bus.mu.Unlock()
}
