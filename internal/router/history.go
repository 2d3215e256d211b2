package router

import "sync"

// History stands in for the host environment that owns the location. It
// keeps a back/forward stack and notifies listeners when the current entry
// changes for reasons other than Push or Replace.
type History struct {
	mu        sync.Mutex
	entries   []Location
	index     int
	listeners map[int]func(Location)
	nextID    int
}

// NewHistory starts a history at initial.
func NewHistory(initial Location) *History {
	return &History{
		entries:   []Location{initial},
		listeners: make(map[int]func(Location)),
	}
}

// Current returns the current location.
func (h *History) Current() Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Push adds loc after the current entry and drops any forward entries.
// Pushing the current location again is a no-op.
func (h *History) Push(loc Location) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.entries[h.index].Equal(loc) {
		return
	}
	h.entries = append(h.entries[:h.index+1], loc)
	h.index++
}

// Replace overwrites the current entry.
func (h *History) Replace(loc Location) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = loc
}

// Back moves one entry back and notifies listeners. It reports false at
// the start of the history.
func (h *History) Back() bool {
	return h.move(-1)
}

// Forward moves one entry forward and notifies listeners.
func (h *History) Forward() bool {
	return h.move(1)
}

// CanBack reports whether Back would move.
func (h *History) CanBack() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index > 0
}

// CanForward reports whether Forward would move.
func (h *History) CanForward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index < len(h.entries)-1
}

func (h *History) move(delta int) bool {
	h.mu.Lock()
	next := h.index + delta
	if next < 0 || next >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = next
	h.mu.Unlock()
	h.Notify()
	return true
}

// Visit pushes loc and notifies listeners, as when the user enters a
// location directly.
func (h *History) Visit(loc Location) {
	h.Push(loc)
	h.Notify()
}

// Notify tells every listener that the location changed. Listeners read
// the location they are given, which is always the current one.
func (h *History) Notify() {
	h.mu.Lock()
	loc := h.entries[h.index]
	fns := make([]func(Location), 0, len(h.listeners))
	for id := 0; id < h.nextID; id++ {
		if fn, ok := h.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(loc)
	}
}

// Listen registers fn for location-changed notifications and returns a
// function that removes it.
func (h *History) Listen(fn func(Location)) (unlisten func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}
