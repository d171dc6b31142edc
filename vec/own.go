package vec

// Own is a single exclusively owned value. It is the one-element counterpart
// of Vec and follows the same policy. Own must not be copied; transfer it
// with Move or Release.
type Own[T any, P Policy[T]] struct {
	_    noCopy
	x    T
	held bool
}

// Ptr is an owned handle to an Object.
type Ptr[T Object[T]] = Own[T, OwnedPolicy[T]]

// NewOwn takes ownership of x.
func NewOwn[T any, P Policy[T]](x T) Own[T, P] {
	return Own[T, P]{x: x, held: true}
}

// NewPtr takes ownership of the handle x.
func NewPtr[T Object[T]](x T) Ptr[T] {
	return Own[T, OwnedPolicy[T]]{x: x, held: true}
}

// IsNull reports whether o holds nothing.
func (o *Own[T, P]) IsNull() bool {
	return !o.held
}

// Get returns a non-owning view of the held value.
func (o *Own[T, P]) Get() T {
	return o.x
}

// Release gives up ownership and returns the value. o becomes null.
func (o *Own[T, P]) Release() T {
	x := o.x
	var zero T
	o.x, o.held = zero, false
	return x
}

// Move transfers ownership into a new handle. o becomes null.
func (o *Own[T, P]) Move() Own[T, P] {
	held := o.held
	return Own[T, P]{x: o.Release(), held: held}
}

// Reset destructs the held value and takes ownership of x.
func (o *Own[T, P]) Reset(x T) {
	o.Delete()
	o.x, o.held = x, true
}

// Delete destructs the held value. o becomes null.
func (o *Own[T, P]) Delete() {
	if o.held {
		var p P
		cell := []T{o.x}
		p.Destruct(cell)
	}
	var zero T
	o.x, o.held = zero, false
}

// Copy returns an independent owned copy.
func (o *Own[T, P]) Copy() Own[T, P] {
	if !o.held {
		return Own[T, P]{}
	}
	var p P
	cell := make([]T, 1)
	p.Copy(cell, []T{o.x})
	return Own[T, P]{x: cell[0], held: true}
}
