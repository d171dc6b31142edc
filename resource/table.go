package resource

import (
	"slices"
	"sync"
)

// Table maps handles to live values and notifies observers of every
// insertion and removal. It is safe for concurrent use.
type Table struct {
	backend   Backend
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a table backed by a LocalBackend.
func NewTable() *Table {
	return &Table{backend: NewLocalBackend()}
}

// Insert adds a value and returns its handle, or 0 once the table is closed.
func (t *Table) Insert(kind Kind, value any) Handle {
	t.closeMu.RLock()
	closed := t.closed
	t.closeMu.RUnlock()
	if closed {
		return 0
	}

	handle, err := t.backend.Create(kind, value)
	if err != nil {
		return 0
	}

	t.notify(Event{Type: EventCreated, Handle: handle, Kind: kind, Value: value})
	return handle
}

// Get retrieves a value by handle.
func (t *Table) Get(handle Handle) (any, bool) {
	return t.backend.Get(handle)
}

// Remove drops an entry and returns its value.
func (t *Table) Remove(handle Handle) (any, bool) {
	kind, _ := t.backend.Kind(handle)
	value, ok := t.backend.Drop(handle)
	if !ok {
		return nil, false
	}

	t.notify(Event{Type: EventDropped, Handle: handle, Kind: kind, Value: value})
	return value, true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = slices.Delete(slices.Clone(t.observers), i, i+1)
			return
		}
	}
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Clear removes every entry, notifying observers for each.
func (t *Table) Clear() {
	var handles []Handle
	t.backend.Each(func(h Handle, _ Kind, _ any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		t.Remove(h)
	}
}

// Close discards all entries without notifying observers and stops
// accepting inserts. Call Clear first to report each removal.
func (t *Table) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	return t.backend.Close()
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	observers := t.observers
	t.obsMu.RUnlock()
	for _, o := range observers {
		o.OnResourceEvent(e)
	}
}
