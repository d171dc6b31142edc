package runtime

import (
	"strconv"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/resource"
	"github.com/wippyai/wasm-embed/types"
	"github.com/wippyai/wasm-embed/vec"
	"github.com/wippyai/wasm-embed/wasm"
)

func valKindOf(t wasm.ValType) types.ValKind {
	switch t {
	case wasm.ValI32:
		return types.I32
	case wasm.ValI64:
		return types.I64
	case wasm.ValF32:
		return types.F32
	case wasm.ValF64:
		return types.F64
	case wasm.ValFuncRef:
		return types.FuncRef
	default:
		return types.AnyRef
	}
}

func valKindsOf(ts []wasm.ValType) []types.ValKind {
	kinds := make([]types.ValKind, len(ts))
	for i, t := range ts {
		kinds[i] = valKindOf(t)
	}
	return kinds
}

// valueType maps a kind to its wazero stack type. Funcref has none.
func valueType(k types.ValKind) (api.ValueType, bool) {
	switch k {
	case types.I32:
		return api.ValueTypeI32, true
	case types.I64:
		return api.ValueTypeI64, true
	case types.F32:
		return api.ValueTypeF32, true
	case types.F64:
		return api.ValueTypeF64, true
	case types.AnyRef:
		return api.ValueTypeExternref, true
	default:
		return 0, false
	}
}

func valueTypes(kinds []types.ValKind) ([]api.ValueType, bool) {
	out := make([]api.ValueType, len(kinds))
	for i, k := range kinds {
		vt, ok := valueType(k)
		if !ok {
			return nil, false
		}
		out[i] = vt
	}
	return out, true
}

func limitsOf(l wasm.Limits) types.Limits {
	if l.Max != nil {
		return types.NewLimitsMax(l.Min, *l.Max)
	}
	return types.NewLimits(l.Min)
}

func funcTypeOf(ft *wasm.FuncType) *types.FuncType {
	return types.FuncTypeOf(valKindsOf(ft.Params), valKindsOf(ft.Results))
}

func globalTypeOf(gt *wasm.GlobalType) *types.GlobalType {
	mut := types.Const
	if gt.Mutable {
		mut = types.Var
	}
	return types.NewGlobalType(types.NewValType(valKindOf(gt.ValType)), mut)
}

func tableTypeOf(tt *wasm.TableType) *types.TableType {
	return types.NewTableType(types.NewValType(valKindOf(tt.ElemType)), limitsOf(tt.Limits))
}

func memoryTypeOf(mt *wasm.MemoryType) *types.MemoryType {
	return types.NewMemoryType(limitsOf(mt.Limits))
}

func importTypeOf(m *wasm.Module, imp *wasm.Import) types.ExternType {
	switch imp.Desc.Kind {
	case wasm.KindFunc:
		return funcTypeOf(&m.Types[imp.Desc.TypeIdx])
	case wasm.KindTable:
		return tableTypeOf(imp.Desc.Table)
	case wasm.KindMemory:
		return memoryTypeOf(imp.Desc.Memory)
	default:
		return globalTypeOf(imp.Desc.Global)
	}
}

func exportTypeOf(m *wasm.Module, exp *wasm.Export) types.ExternType {
	switch exp.Kind {
	case wasm.KindFunc:
		ft, _ := m.FuncTypeAt(exp.Idx)
		return funcTypeOf(ft)
	case wasm.KindTable:
		tt, _ := m.TableAt(exp.Idx)
		return tableTypeOf(tt)
	case wasm.KindMemory:
		mt, _ := m.MemoryAt(exp.Idx)
		return memoryTypeOf(mt)
	default:
		gt, _ := m.GlobalAt(exp.Idx)
		return globalTypeOf(gt)
	}
}

func externKindOf(k byte) types.ExternKind {
	switch k {
	case wasm.KindFunc:
		return types.ExternFunc
	case wasm.KindTable:
		return types.ExternTable
	case wasm.KindMemory:
		return types.ExternMemory
	default:
		return types.ExternGlobal
	}
}

// encodeVal lowers v to a wazero stack slot. References are pinned in s.
func (s *Store) encodeVal(v Val) (uint64, error) {
	switch v.Kind() {
	case types.I32:
		return api.EncodeI32(v.I32()), nil
	case types.I64:
		return api.EncodeI64(v.I64()), nil
	case types.F32:
		return api.EncodeF32(v.F32()), nil
	case types.F64:
		return api.EncodeF64(v.F64()), nil
	case types.AnyRef:
		r := v.Ref()
		if r == nil {
			return 0, nil
		}
		if r.Store() != s {
			return 0, errors.InvalidInput(errors.PhaseCall, "reference belongs to another store")
		}
		return uint64(s.pin(r)), nil
	default:
		return 0, errors.Unsupported(errors.PhaseCall, "funcref values in wasm calls")
	}
}

// decodeVal lifts a wazero stack slot of kind k. Externrefs resolve to a
// new handle to the pinned object.
func (s *Store) decodeVal(k types.ValKind, raw uint64) Val {
	switch k {
	case types.I32:
		return I32(api.DecodeI32(raw))
	case types.I64:
		return I64(int64(raw))
	case types.F32:
		return F32(api.DecodeF32(raw))
	case types.F64:
		return F64(api.DecodeF64(raw))
	case types.AnyRef:
		return RefVal(s.resolve(resource.Handle(raw)))
	default:
		return FuncRefVal(nil)
	}
}

// checkVals verifies that vals matches kinds in arity and per-element kind.
func checkVals(phase errors.Phase, what string, kinds []types.ValKind, vals *Vals) error {
	if vals == nil || !vals.Valid() {
		if len(kinds) == 0 && vals == nil {
			return nil
		}
		return errors.InvalidInput(phase, what+" vector is invalid")
	}
	if vals.Len() != len(kinds) {
		return errors.Arity(phase, what, len(kinds), vals.Len())
	}
	for i, v := range vals.All() {
		if v.Kind() != kinds[i] {
			return errors.TypeMismatch(phase, []string{what, strconv.Itoa(i)}, kinds[i].String(), v.Kind().String())
		}
	}
	return nil
}

func invalidVals() Vals {
	return vec.InvalidOwned[Val]()
}
