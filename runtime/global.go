package runtime

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/types"
)

// Global is a handle to a host or wasm global variable.
type Global struct {
	externHeader
	g *globalObject
}

type globalObject struct {
	typ  *types.GlobalType
	wasm api.Global
	val  Val
}

func newGlobalHandle(obj *object, g *globalObject) *Global {
	h := &Global{g: g}
	h.attachExtern(types.ExternGlobal, obj, h)
	return h
}

// NewGlobal creates a host global of type typ holding a copy of val. Both
// are borrowed.
func NewGlobal(store *Store, typ *types.GlobalType, val Val) (*Global, error) {
	if err := store.checkOpen(errors.PhaseHost); err != nil {
		return nil, err
	}
	if typ == nil {
		return nil, errors.NilPointer(errors.PhaseHost, []string{"global"}, "*types.GlobalType")
	}
	if err := checkValue(errors.PhaseHost, store, typ.Content().Kind(), val); err != nil {
		return nil, err
	}

	obj := store.newObject()
	g := &globalObject{typ: typ.Copy(), val: val.Copy()}
	obj.onFinalize(func(context.Context) { g.val.Delete() })
	return newGlobalHandle(obj, g), nil
}

// checkValue verifies v can be stored where kind k is expected.
func checkValue(phase errors.Phase, s *Store, k types.ValKind, v Val) error {
	if v.Kind() != k {
		return errors.TypeMismatch(phase, []string{"value"}, k.String(), v.Kind().String())
	}
	if v.ref != nil && v.ref.Store() != s {
		return errors.InvalidInput(phase, "reference belongs to another store")
	}
	return nil
}

func (g *Global) Global() *Global { return g }
func (g *Global) Extern() Extern  { return g }

// Copy returns a new handle to the same global.
func (g *Global) Copy() *Global {
	return newGlobalHandle(g.live(), g.g)
}

func (g *Global) CopyRef() Ref       { return g.Copy() }
func (g *Global) CopyExtern() Extern { return g.Copy() }

// Type returns an owned copy of the global's type.
func (g *Global) Type() types.ExternType {
	return g.GlobalType()
}

// GlobalType returns an owned copy of the global's type.
func (g *Global) GlobalType() *types.GlobalType {
	g.live()
	return g.g.typ.Copy()
}

// Get returns a copy of the current value. Funcref globals exported from
// wasm read as null.
func (g *Global) Get() Val {
	obj := g.live()
	if g.g.wasm == nil {
		return g.g.val.Copy()
	}
	return obj.store.decodeVal(g.g.typ.Content().Kind(), g.g.wasm.Get())
}

// Set stores a copy of v. It fails for immutable globals and kind
// mismatches.
func (g *Global) Set(v Val) error {
	obj := g.live()
	if err := obj.store.checkOpen(errors.PhaseCall); err != nil {
		return err
	}
	if g.g.typ.Mutability() != types.Var {
		return errors.Immutable(errors.PhaseCall, "global")
	}
	if err := checkValue(errors.PhaseCall, obj.store, g.g.typ.Content().Kind(), v); err != nil {
		return err
	}

	if g.g.wasm == nil {
		old := g.g.val
		g.g.val = v.Copy()
		old.Delete()
		return nil
	}

	mg, ok := g.g.wasm.(api.MutableGlobal)
	if !ok {
		return errors.Immutable(errors.PhaseCall, "global")
	}
	raw, err := obj.store.encodeVal(v)
	if err != nil {
		return err
	}
	mg.Set(raw)
	return nil
}
