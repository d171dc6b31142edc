package runtime

// Foreign is a host object with no behavior of its own. It carries host
// info and can be passed to wasm as an anyref.
type Foreign struct {
	refHeader
}

// NewForeign creates a foreign object. It returns nil once the store is
// deleted.
func NewForeign(store *Store) *Foreign {
	if store.isClosed() {
		return nil
	}
	return newForeignHandle(store.newObject())
}

func newForeignHandle(obj *object) *Foreign {
	f := &Foreign{}
	f.attach(RefForeign, obj, f)
	return f
}

func (f *Foreign) Foreign() *Foreign { return f }

// Copy returns a new handle to the same object.
func (f *Foreign) Copy() *Foreign {
	return newForeignHandle(f.live())
}

func (f *Foreign) CopyRef() Ref { return f.Copy() }
