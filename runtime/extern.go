package runtime

import (
	"github.com/wippyai/wasm-embed/types"
	"github.com/wippyai/wasm-embed/vec"
)

// Extern is a handle to an importable or exportable object. The family is
// sealed: the only implementations are *Func, *Global, *Table and *Memory.
//
// The downcast methods return the receiver typed as the requested variant
// when Kind matches, and nil otherwise.
type Extern interface {
	Ref
	Kind() types.ExternKind
	Func() *Func
	Global() *Global
	Table() *Table
	Memory() *Memory
	CopyExtern() Extern
	Type() types.ExternType
}

type externHeader struct {
	refHeader
	ekind types.ExternKind
}

func (h *externHeader) Kind() types.ExternKind { return h.ekind }
func (*externHeader) Func() *Func              { return nil }
func (*externHeader) Global() *Global          { return nil }
func (*externHeader) Table() *Table            { return nil }
func (*externHeader) Memory() *Memory          { return nil }

func (h *externHeader) attachExtern(kind types.ExternKind, obj *object, self Extern) {
	h.ekind = kind
	h.attach(RefExtern, obj, self)
}

// ExternPolicy stores owned Extern handles of any variant.
type ExternPolicy struct{}

func (ExternPolicy) Construct(data []Extern) {
	clear(data)
}

func (ExternPolicy) Destruct(data []Extern) {
	for i := range data {
		if data[i] != nil {
			data[i].Delete()
			data[i] = nil
		}
	}
}

func (ExternPolicy) Move(dst, src []Extern) {
	for i := range dst {
		dst[i], src[i] = src[i], nil
	}
}

func (ExternPolicy) Copy(dst, src []Extern) {
	for i := range dst {
		if src[i] != nil {
			dst[i] = src[i].CopyExtern()
		} else {
			dst[i] = nil
		}
	}
}

// Externs is a vector of owned externs.
type Externs = vec.Vec[Extern, ExternPolicy]

// MakeExterns returns a vector taking ownership of elems.
func MakeExterns(elems ...Extern) Externs {
	return vec.MakeOf[Extern, ExternPolicy](elems...)
}

// AsExterns moves a vector of one concrete variant into an Externs.
func AsExterns[U interface {
	Extern
	vec.Object[U]
}](from *vec.Owned[U]) Externs {
	return vec.Convert[Extern, ExternPolicy](from)
}
