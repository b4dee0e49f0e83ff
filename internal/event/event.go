// Package event provides typed listener lists used by every component of a
// drawing session to publish state changes.
package event

import "sync"

// Handle unregisters a listener added with On.
type Handle struct {
	remove func()
}

// Remove stops the listener from firing. Removing twice is harmless.
func (h Handle) Remove() {
	if h.remove != nil {
		h.remove()
	}
}

type listener[T any] struct {
	id uint64
	fn func(T)
}

// Emitter fans a value out to its listeners in registration order.
// The zero value is ready to use.
type Emitter[T any] struct {
	mu        sync.Mutex
	listeners []listener[T]
	nextID    uint64
}

// On registers fn and returns a handle that removes it again.
func (e *Emitter[T]) On(fn func(T)) Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, listener[T]{id: id, fn: fn})
	return Handle{remove: func() { e.off(id) }}
}

func (e *Emitter[T]) off(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, l := range e.listeners {
		if l.id == id {
			e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
			return
		}
	}
}

// Emit calls every listener with v. Listeners added or removed during an emit
// take effect from the next emit.
func (e *Emitter[T]) Emit(v T) {
	e.mu.Lock()
	snapshot := make([]listener[T], len(e.listeners))
	copy(snapshot, e.listeners)
	e.mu.Unlock()

	for _, l := range snapshot {
		l.fn(v)
	}
}
