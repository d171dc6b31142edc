package resource

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Create once the backend is closed.
var ErrClosed = errors.New("resource backend closed")

// LocalBackend is an in-memory Backend. Freed handles are reused.
type LocalBackend struct {
	entries  []entry
	freeList []Handle
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value any
	kind  Kind
	valid bool
}

// NewLocalBackend creates an empty backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Create stores a value and returns a handle.
func (b *LocalBackend) Create(kind Kind, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	e := entry{kind: kind, value: value, valid: true}
	if n := len(b.freeList); n > 0 {
		handle := b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		b.entries[handle-1] = e
		return handle, nil
	}

	b.entries = append(b.entries, e)
	return Handle(len(b.entries)), nil
}

// lookup returns the live entry for handle. Callers hold mu.
func (b *LocalBackend) lookup(handle Handle) (*entry, bool) {
	if handle == 0 || int(handle) > len(b.entries) {
		return nil, false
	}
	e := &b.entries[handle-1]
	return e, e.valid
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.lookup(handle)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Kind returns the kind a handle was created with.
func (b *LocalBackend) Kind(handle Handle) (Kind, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.lookup(handle)
	if !ok {
		return 0, false
	}
	return e.kind, true
}

// Drop removes an entry and returns its value.
func (b *LocalBackend) Drop(handle Handle) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.lookup(handle)
	if !ok {
		return nil, false
	}

	value := e.value
	*e = entry{}
	b.freeList = append(b.freeList, handle)
	return value, true
}

// Close drops every entry and refuses further creates.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.entries = nil
	b.freeList = nil
	return nil
}

// Len returns the number of live entries.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.entries) - len(b.freeList)
}

// Each visits live entries in handle order. fn runs without the lock held,
// on a snapshot taken at the start of the call.
func (b *LocalBackend) Each(fn func(Handle, Kind, any) bool) {
	b.mu.RLock()
	snapshot := make([]entry, len(b.entries))
	copy(snapshot, b.entries)
	b.mu.RUnlock()

	for i, e := range snapshot {
		if e.valid && !fn(Handle(i+1), e.kind, e.value) {
			return
		}
	}
}
