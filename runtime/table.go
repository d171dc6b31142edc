package runtime

import (
	"context"

	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/types"
	"github.com/wippyai/wasm-embed/wasm"
)

// Table is a handle to a table of references.
//
// Host tables are fully accessible. Tables exported from wasm report their
// type and size, but element access and growth are not supported by the
// engine.
type Table struct {
	externHeader
	t *tableObject
}

type tableObject struct {
	typ      *types.TableType
	elems    []Ref
	size     uint32
	exported bool
}

func newTableHandle(obj *object, t *tableObject) *Table {
	h := &Table{t: t}
	h.attachExtern(types.ExternTable, obj, h)
	return h
}

// NewTable creates a host table with the minimum size of typ, every element
// holding a copy of init. init is borrowed and may be nil.
func NewTable(store *Store, typ *types.TableType, init Ref) (*Table, error) {
	if err := store.checkOpen(errors.PhaseHost); err != nil {
		return nil, err
	}
	if typ == nil {
		return nil, errors.NilPointer(errors.PhaseHost, []string{"table"}, "*types.TableType")
	}
	lim := typ.Limits()
	if lim.Min > lim.Max {
		return nil, errors.OutOfBounds(errors.PhaseHost, []string{"table", "min"}, int(lim.Min), int(lim.Max))
	}
	if lim.Min > wasm.MaxTableElems {
		return nil, errors.OutOfBounds(errors.PhaseHost, []string{"table", "min"}, int(lim.Min), wasm.MaxTableElems)
	}

	t := &tableObject{typ: typ.Copy(), size: lim.Min}
	if err := t.checkElem(errors.PhaseHost, store, init); err != nil {
		return nil, err
	}
	t.elems = make([]Ref, lim.Min)
	t.fill(t.elems, init)

	obj := store.newObject()
	obj.onFinalize(func(context.Context) {
		for _, r := range t.elems {
			if r != nil {
				r.Delete()
			}
		}
		t.elems = nil
	})
	return newTableHandle(obj, t), nil
}

func (t *tableObject) checkElem(phase errors.Phase, s *Store, r Ref) error {
	if r == nil {
		return nil
	}
	if r.Store() != s {
		return errors.InvalidInput(phase, "reference belongs to another store")
	}
	if t.typ.Element().Kind() == types.FuncRef {
		if e := r.Extern(); e == nil || e.Func() == nil {
			return errors.TypeMismatch(phase, []string{"element"}, "funcref", r.RefKind().String())
		}
	}
	return nil
}

func (t *tableObject) fill(dst []Ref, init Ref) {
	for i := range dst {
		if init != nil {
			dst[i] = init.CopyRef()
		}
	}
}

func (t *Table) Table() *Table  { return t }
func (t *Table) Extern() Extern { return t }

// Copy returns a new handle to the same table.
func (t *Table) Copy() *Table {
	return newTableHandle(t.live(), t.t)
}

func (t *Table) CopyRef() Ref       { return t.Copy() }
func (t *Table) CopyExtern() Extern { return t.Copy() }

// Type returns the table's type with its current size as minimum.
func (t *Table) Type() types.ExternType {
	return t.TableType()
}

// TableType returns the table's type with its current size as minimum.
func (t *Table) TableType() *types.TableType {
	lim := t.t.typ.Limits()
	lim.Min = t.Size()
	return types.NewTableType(t.t.typ.Element().Copy(), lim)
}

// Size returns the number of elements.
func (t *Table) Size() uint32 {
	t.live()
	return t.t.size
}

// Get returns a new handle to element i, or nil for a null element, an
// index out of range, or a table exported from wasm.
func (t *Table) Get(i uint32) Ref {
	t.live()
	if t.t.exported || i >= t.t.size || t.t.elems[i] == nil {
		return nil
	}
	return t.t.elems[i].CopyRef()
}

// Set stores a copy of r, which may be nil, at index i.
func (t *Table) Set(i uint32, r Ref) error {
	obj := t.live()
	if err := obj.store.checkOpen(errors.PhaseCall); err != nil {
		return err
	}
	if t.t.exported {
		return errors.Unsupported(errors.PhaseCall, "element access on tables exported from wasm")
	}
	if i >= t.t.size {
		return errors.OutOfBounds(errors.PhaseCall, []string{"table"}, int(i), int(t.t.size))
	}
	if err := t.t.checkElem(errors.PhaseCall, obj.store, r); err != nil {
		return err
	}

	old := t.t.elems[i]
	t.t.elems[i] = nil
	if r != nil {
		t.t.elems[i] = r.CopyRef()
	}
	if old != nil {
		old.Delete()
	}
	return nil
}

// Grow appends delta elements holding copies of init and returns the
// previous size. It reports false, leaving the table unchanged, when the
// maximum or MaxTableElems would be exceeded, or the table was exported
// from wasm.
func (t *Table) Grow(delta uint32, init Ref) (uint32, bool) {
	obj := t.live()
	old := t.t.size
	if t.t.exported || obj.store.isClosed() {
		return old, false
	}
	limit := min(uint64(t.t.typ.Limits().Max), wasm.MaxTableElems)
	if uint64(old)+uint64(delta) > limit {
		return old, false
	}
	if t.t.checkElem(errors.PhaseCall, obj.store, init) != nil {
		return old, false
	}

	grown := make([]Ref, delta)
	t.t.fill(grown, init)
	t.t.elems = append(t.t.elems, grown...)
	t.t.size += delta
	return old, true
}
