package resource

// Handle identifies a live entry in a table. Handle 0 is reserved and
// always invalid, so it can stand for "no handle" across the wasm boundary.
type Handle uint32

// Kind tags an entry with the category of value it holds. The meaning of
// each kind belongs to the caller.
type Kind uint8

// EventType is a lifecycle notification type.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Event describes one lifecycle change.
type Event struct {
	Value  any
	Handle Handle
	Kind   Kind
	Type   EventType
}

// Observer receives lifecycle events. Observers are compared by identity
// when unsubscribing, so implementations should be pointers.
type Observer interface {
	OnResourceEvent(Event)
}

// Backend stores entries behind handles.
type Backend interface {
	// Create stores a value and returns its handle.
	Create(kind Kind, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Kind reports the kind a handle was created with.
	Kind(handle Handle) (Kind, bool)

	// Drop removes an entry and returns its value.
	Drop(handle Handle) (any, bool)

	// Each visits live entries in handle order until fn returns false.
	Each(fn func(Handle, Kind, any) bool)

	// Len returns the number of live entries.
	Len() int

	// Close drops every entry and refuses further creates.
	Close() error
}
