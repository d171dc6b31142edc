package types

import (
	"fmt"
	"math"
)

// ValKind enumerates the value kinds that can cross the embedding boundary.
type ValKind uint8

const (
	I32 ValKind = iota
	I64
	F32
	F64
	AnyRef
	FuncRef
)

// IsNum reports whether k is a numeric kind.
func (k ValKind) IsNum() bool {
	return k < AnyRef
}

// IsRef reports whether k is a reference kind.
func (k ValKind) IsRef() bool {
	return k == AnyRef || k == FuncRef
}

// Valid reports whether k is one of the defined kinds.
func (k ValKind) Valid() bool {
	return k <= FuncRef
}

func (k ValKind) String() string {
	switch k {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case AnyRef:
		return "anyref"
	case FuncRef:
		return "funcref"
	default:
		return fmt.Sprintf("valkind(%d)", uint8(k))
	}
}

// ParseValKind maps a wasm text type name to its kind. "externref" is
// accepted as an alias for anyref.
func ParseValKind(s string) (ValKind, bool) {
	switch s {
	case "i32":
		return I32, true
	case "i64":
		return I64, true
	case "f32":
		return F32, true
	case "f64":
		return F64, true
	case "anyref", "externref":
		return AnyRef, true
	case "funcref":
		return FuncRef, true
	}
	return 0, false
}

// ValType describes a single value type.
type ValType struct {
	kind ValKind
}

// NewValType returns a value type of kind k, or nil when k is not a defined kind.
func NewValType(k ValKind) *ValType {
	if !k.Valid() {
		return nil
	}
	return &ValType{kind: k}
}

func (t *ValType) Kind() ValKind {
	return t.kind
}

func (t *ValType) IsNum() bool {
	return t.kind.IsNum()
}

func (t *ValType) IsRef() bool {
	return t.kind.IsRef()
}

// Copy returns an independent value type of the same kind.
func (t *ValType) Copy() *ValType {
	return &ValType{kind: t.kind}
}

// Delete releases the value type. Value types own nothing else.
func (t *ValType) Delete() {}

// Equal reports structural equality.
func (t *ValType) Equal(o *ValType) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.kind == o.kind
}

func (t *ValType) String() string {
	return t.kind.String()
}

// Mutability of a global.
type Mutability uint8

const (
	Const Mutability = iota
	Var
)

func (m Mutability) String() string {
	if m == Var {
		return "var"
	}
	return "const"
}

// MaxLimit is the implicit maximum of a Limits without an explicit bound.
const MaxLimit = math.MaxUint32

// Limits bounds the size of a table (in elements) or memory (in pages).
type Limits struct {
	Min uint32
	Max uint32
}

// NewLimits returns limits with the given minimum and no maximum.
func NewLimits(min uint32) Limits {
	return Limits{Min: min, Max: MaxLimit}
}

// NewLimitsMax returns limits with both bounds.
func NewLimitsMax(min, max uint32) Limits {
	return Limits{Min: min, Max: max}
}

// HasMax reports whether an explicit maximum was given.
func (l Limits) HasMax() bool {
	return l.Max != MaxLimit
}

// Contains reports whether n lies within the limits.
func (l Limits) Contains(n uint32) bool {
	return n >= l.Min && n <= l.Max
}

func (l Limits) String() string {
	if l.HasMax() {
		return fmt.Sprintf("%d..%d", l.Min, l.Max)
	}
	return fmt.Sprintf("%d..", l.Min)
}
