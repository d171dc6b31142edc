package runtime

import (
	"fmt"
	"math"

	"github.com/wippyai/wasm-embed/types"
	"github.com/wippyai/wasm-embed/vec"
)

// Val is a tagged runtime value: a number or an owned reference.
//
// The zero Val is a null anyref. A Val holding a reference owns it; use
// Copy to duplicate the handle and Delete (or Reset) to release it. The
// typed accessors panic when the kind does not match.
type Val struct {
	ref  Ref
	bits uint64
	// kind is stored XOR AnyRef so that the zero Val is a null anyref.
	kind types.ValKind
}

func newVal(k types.ValKind, bits uint64, ref Ref) Val {
	return Val{kind: k ^ types.AnyRef, bits: bits, ref: ref}
}

// I32 returns an i32 value.
func I32(v int32) Val { return newVal(types.I32, uint64(uint32(v)), nil) }

// I64 returns an i64 value.
func I64(v int64) Val { return newVal(types.I64, uint64(v), nil) }

// F32 returns an f32 value.
func F32(v float32) Val { return newVal(types.F32, uint64(math.Float32bits(v)), nil) }

// F64 returns an f64 value.
func F64(v float64) Val { return newVal(types.F64, math.Float64bits(v), nil) }

// RefVal returns an anyref value taking ownership of r, which may be nil.
func RefVal(r Ref) Val { return newVal(types.AnyRef, 0, r) }

// FuncRefVal returns a funcref value taking ownership of f, which may be nil.
func FuncRefVal(f *Func) Val {
	if f == nil {
		return newVal(types.FuncRef, 0, nil)
	}
	return newVal(types.FuncRef, 0, f)
}

// NullRef returns a null anyref.
func NullRef() Val { return Val{} }

// Kind returns the value's kind.
func (v Val) Kind() types.ValKind {
	return v.kind ^ types.AnyRef
}

func (v Val) expect(k types.ValKind) {
	if got := v.Kind(); got != k {
		panic(fmt.Sprintf("runtime: %s accessor on %s value", k, got))
	}
}

// I32 returns the value of an i32. It panics for other kinds.
func (v Val) I32() int32 {
	v.expect(types.I32)
	return int32(uint32(v.bits))
}

// I64 returns the value of an i64. It panics for other kinds.
func (v Val) I64() int64 {
	v.expect(types.I64)
	return int64(v.bits)
}

// F32 returns the value of an f32. It panics for other kinds.
func (v Val) F32() float32 {
	v.expect(types.F32)
	return math.Float32frombits(uint32(v.bits))
}

// F64 returns the value of an f64. It panics for other kinds.
func (v Val) F64() float64 {
	v.expect(types.F64)
	return math.Float64frombits(v.bits)
}

// Ref returns a non-owning view of the reference, or nil for a null
// reference. It panics for numeric kinds.
func (v Val) Ref() Ref {
	if !v.Kind().IsRef() {
		panic(fmt.Sprintf("runtime: ref accessor on %s value", v.Kind()))
	}
	return v.ref
}

// IsNull reports whether v is a null reference.
func (v Val) IsNull() bool {
	return v.Kind().IsRef() && v.ref == nil
}

// Move returns v and leaves the source without a reference.
func (v *Val) Move() Val {
	out := *v
	v.ref = nil
	return out
}

// ReleaseRef hands the reference to the caller and clears it from v.
// It panics for numeric kinds.
func (v *Val) ReleaseRef() Ref {
	r := v.Ref()
	v.ref = nil
	return r
}

// Reset deletes any held reference and makes v a null anyref.
func (v *Val) Reset() {
	v.Delete()
	*v = Val{}
}

// Copy returns a value holding an independent handle to the same object.
func (v Val) Copy() Val {
	if v.ref != nil {
		v.ref = v.ref.CopyRef()
	}
	return v
}

// Delete releases the held reference, if any.
func (v Val) Delete() {
	if v.ref != nil {
		v.ref.Delete()
	}
}

func (v Val) String() string {
	switch k := v.Kind(); k {
	case types.I32:
		return fmt.Sprintf("i32:%d", v.I32())
	case types.I64:
		return fmt.Sprintf("i64:%d", v.I64())
	case types.F32:
		return fmt.Sprintf("f32:%g", v.F32())
	case types.F64:
		return fmt.Sprintf("f64:%g", v.F64())
	default:
		if v.ref == nil {
			return k.String() + ":null"
		}
		return fmt.Sprintf("%s:%s", k, v.ref.RefKind())
	}
}

// Vals is an owning vector of values.
type Vals = vec.Owned[Val]

// MakeVals returns a vector taking ownership of vals.
func MakeVals(vals ...Val) Vals {
	return vec.OwnedOf(vals...)
}
