package vec

// Slot mediates ownership of a single vector element. It is not an owner
// itself: it borrows the slot for the duration of the access.
type Slot[T any, P Policy[T]] struct {
	cell []T
}

// Get returns a non-owning view of the slot's content.
func (s Slot[T, P]) Get() T {
	return s.cell[0]
}

// Reset destructs the current occupant and installs x, taking ownership of it.
func (s Slot[T, P]) Reset(x T) {
	var p P
	p.Destruct(s.cell)
	s.cell[0] = x
}

// Release hands the occupant to the caller and leaves the slot null.
func (s Slot[T, P]) Release() T {
	x := s.cell[0]
	var zero T
	s.cell[0] = zero
	return x
}

// Move is Release wrapped in an owned handle.
func (s Slot[T, P]) Move() Own[T, P] {
	return Own[T, P]{x: s.Release(), held: true}
}
