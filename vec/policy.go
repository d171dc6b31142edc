package vec

// Policy describes how a vector treats its elements. The policy is a
// zero-size type chosen at compile time through the vector's type parameter.
type Policy[T any] interface {
	// Construct default-initializes a freshly allocated block.
	Construct(data []T)

	// Destruct releases everything the block owns. After Destruct every
	// slot is at its zero value.
	Destruct(data []T)

	// Move transfers ownership of src into dst, leaving src released.
	// len(dst) must equal len(src).
	Move(dst, src []T)

	// Copy fills dst with independent copies of src.
	// len(dst) must equal len(src).
	Copy(dst, src []T)
}

// Object is an exclusively owned handle: it can produce an independent deep
// copy of itself and must be deleted exactly once by its owner. The zero
// value of T is the null handle.
type Object[T any] interface {
	comparable
	Copy() T
	Delete()
}

// ValuePolicy stores plain values inline. Nothing is owned, so construction
// and destruction are no-ops and copies are by value.
type ValuePolicy[T any] struct{}

func (ValuePolicy[T]) Construct([]T) {}

func (ValuePolicy[T]) Destruct([]T) {}

func (ValuePolicy[T]) Move(dst, src []T) {
	copy(dst, src)
}

func (ValuePolicy[T]) Copy(dst, src []T) {
	copy(dst, src)
}

// OwnedPolicy stores exclusively owned handles. Slots start null, every
// non-null slot is deleted exactly once on destruction, and copies call the
// element's own Copy.
type OwnedPolicy[T Object[T]] struct{}

func (OwnedPolicy[T]) Construct(data []T) {
	clear(data)
}

func (OwnedPolicy[T]) Destruct(data []T) {
	var null T
	for i := range data {
		if data[i] != null {
			data[i].Delete()
			data[i] = null
		}
	}
}

func (OwnedPolicy[T]) Move(dst, src []T) {
	var null T
	for i := range dst {
		dst[i] = src[i]
		src[i] = null
	}
}

func (OwnedPolicy[T]) Copy(dst, src []T) {
	var null T
	for i := range dst {
		if src[i] != null {
			dst[i] = src[i].Copy()
		} else {
			dst[i] = null
		}
	}
}
