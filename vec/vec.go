package vec

import (
	"iter"
	"math"
)

// MaxLen is the largest element count a vector can be created with. Requests
// above it are treated as allocation failure and produce an invalid vector.
const MaxLen = math.MaxInt32

// noCopy lets go vet's copylocks check flag vectors copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Vec is a sized, contiguous sequence that exclusively owns its elements.
// Element behavior comes from the policy P.
//
// A Vec is either valid or invalid. An invalid vector means "no result" and
// is distinct from a valid vector of length zero. The zero Vec is invalid.
// Vectors move, they are never copied implicitly: use Move, Reset or Copy.
type Vec[T any, P Policy[T]] struct {
	_     noCopy
	data  []T
	valid bool
}

// Values is a vector of plain values.
type Values[T any] = Vec[T, ValuePolicy[T]]

// Owned is a vector of exclusively owned handles.
type Owned[T Object[T]] = Vec[T, OwnedPolicy[T]]

// Bytes is a byte vector, used for names and binaries.
type Bytes = Values[byte]

func alloc[T any](n int) ([]T, bool) {
	if n < 0 || n > MaxLen {
		return nil, false
	}
	if n == 0 {
		return nil, true
	}
	return make([]T, n), true
}

// MakeUninitialized returns a valid vector of n default-constructed elements,
// or an invalid vector when n cannot be allocated.
func MakeUninitialized[T any, P Policy[T]](n int) Vec[T, P] {
	data, ok := alloc[T](n)
	if !ok {
		return Vec[T, P]{}
	}
	var p P
	p.Construct(data)
	return Vec[T, P]{data: data, valid: true}
}

// MakeFrom takes ownership of every element of init. The source slots are
// released according to the policy (owned handles are nulled).
func MakeFrom[T any, P Policy[T]](init []T) Vec[T, P] {
	data, ok := alloc[T](len(init))
	if !ok {
		return Vec[T, P]{}
	}
	var p P
	p.Move(data, init)
	return Vec[T, P]{data: data, valid: true}
}

// MakeOf is the variadic form of MakeFrom.
func MakeOf[T any, P Policy[T]](elems ...T) Vec[T, P] {
	return MakeFrom[T, P](elems)
}

// MakeOwns takes ownership out of each handle in init, leaving them null.
func MakeOwns[T any, P Policy[T]](init []Own[T, P]) Vec[T, P] {
	data, ok := alloc[T](len(init))
	if !ok {
		return Vec[T, P]{}
	}
	for i := range init {
		data[i] = init[i].Release()
	}
	return Vec[T, P]{data: data, valid: true}
}

// Adopt claims data without copying. The caller must not touch data again.
func Adopt[T any, P Policy[T]](data []T) Vec[T, P] {
	if len(data) > MaxLen {
		return Vec[T, P]{}
	}
	if len(data) == 0 {
		data = nil
	}
	return Vec[T, P]{data: data, valid: true}
}

// Invalid returns the "no result" vector.
func Invalid[T any, P Policy[T]]() Vec[T, P] {
	return Vec[T, P]{}
}

// Convert moves from into a vector of a related element type, such as
// concrete handles into their interface family. Null slots stay null.
// Every non-null element must be assignable to T.
func Convert[T any, P Policy[T], U comparable, Q Policy[U]](from *Vec[U, Q]) Vec[T, P] {
	if !from.valid {
		from.data = nil
		return Vec[T, P]{}
	}
	src := from.Release()
	data, _ := alloc[T](len(src))
	var null U
	for i, u := range src {
		if u == null {
			continue
		}
		data[i] = any(u).(T)
	}
	return Vec[T, P]{data: data, valid: true}
}

// Valid reports whether v holds a result.
func (v *Vec[T, P]) Valid() bool {
	return v.valid
}

// Len returns the element count. Invalid vectors have length zero.
func (v *Vec[T, P]) Len() int {
	return len(v.data)
}

// Data returns a non-owning view of the backing storage.
func (v *Vec[T, P]) Data() []T {
	return v.data
}

// At returns a direct reference to slot i. No bounds beyond Go's own are checked.
func (v *Vec[T, P]) At(i int) *T {
	return &v.data[i]
}

// Get returns a non-owning view of element i.
func (v *Vec[T, P]) Get(i int) T {
	return v.data[i]
}

// Slot returns the ownership-mediating proxy for element i.
func (v *Vec[T, P]) Slot(i int) Slot[T, P] {
	return Slot[T, P]{cell: v.data[i : i+1 : i+1]}
}

// Set installs x at i, destructing whatever the slot held.
func (v *Vec[T, P]) Set(i int, x T) {
	v.Slot(i).Reset(x)
}

// All iterates over index/element pairs without transferring ownership.
func (v *Vec[T, P]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, x := range v.data {
			if !yield(i, x) {
				return
			}
		}
	}
}

// Copy returns a deep copy. Copying an invalid vector yields an invalid vector.
func (v *Vec[T, P]) Copy() Vec[T, P] {
	if !v.valid {
		return Vec[T, P]{}
	}
	data, ok := alloc[T](len(v.data))
	if !ok {
		return Vec[T, P]{}
	}
	var p P
	p.Copy(data, v.data)
	return Vec[T, P]{data: data, valid: true}
}

// Move transfers the contents into a new vector. v becomes invalid.
func (v *Vec[T, P]) Move() Vec[T, P] {
	data, valid := v.data, v.valid
	v.data, v.valid = nil, false
	return Vec[T, P]{data: data, valid: valid}
}

// Reset destructs the current contents and takes over the storage of that.
// that becomes invalid.
func (v *Vec[T, P]) Reset(that *Vec[T, P]) {
	if v == that {
		return
	}
	v.Delete()
	v.data, v.valid = that.data, that.valid
	that.data, that.valid = nil, false
}

// Release hands the backing storage and every element it owns to the caller.
// v becomes invalid.
func (v *Vec[T, P]) Release() []T {
	data := v.data
	v.data, v.valid = nil, false
	return data
}

// Delete destructs every element and releases the storage. It is safe to
// call on an invalid or already deleted vector.
func (v *Vec[T, P]) Delete() {
	if v.data != nil {
		var p P
		p.Destruct(v.data)
	}
	v.data, v.valid = nil, false
}

// Uninitialized returns n zero values.
func Uninitialized[T any](n int) Values[T] {
	return MakeUninitialized[T, ValuePolicy[T]](n)
}

// Of builds a value vector from its arguments.
func Of[T any](elems ...T) Values[T] {
	return MakeFrom[T, ValuePolicy[T]](elems)
}

// AdoptValues claims a value slice without copying.
func AdoptValues[T any](data []T) Values[T] {
	return Adopt[T, ValuePolicy[T]](data)
}

// InvalidValues returns the invalid value vector.
func InvalidValues[T any]() Values[T] {
	return Vec[T, ValuePolicy[T]]{}
}

// OwnedUninitialized returns n null handles.
func OwnedUninitialized[T Object[T]](n int) Owned[T] {
	return MakeUninitialized[T, OwnedPolicy[T]](n)
}

// OwnedOf takes ownership of each argument.
func OwnedOf[T Object[T]](elems ...T) Owned[T] {
	return MakeFrom[T, OwnedPolicy[T]](elems)
}

// AdoptOwned claims a handle slice without copying.
func AdoptOwned[T Object[T]](data []T) Owned[T] {
	return Adopt[T, OwnedPolicy[T]](data)
}

// InvalidOwned returns the invalid handle vector.
func InvalidOwned[T Object[T]]() Owned[T] {
	return Vec[T, OwnedPolicy[T]]{}
}

// FromString copies s into a byte vector.
func FromString(s string) Bytes {
	return Adopt[byte, ValuePolicy[byte]]([]byte(s))
}

// String returns the contents of a byte vector as a string.
func String(b *Bytes) string {
	return string(b.data)
}
