package runtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-embed/engine"
	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/types"
	"github.com/wippyai/wasm-embed/vec"
	"github.com/wippyai/wasm-embed/wasm"
)

// Instance is a handle to an instantiated module.
type Instance struct {
	refHeader
	i *instanceObject
}

type instanceObject struct {
	inst    *engine.WazeroInstance
	decoded *wasm.Module
	obj     *object
	// exports caches the object behind each export while any handle to it
	// is alive, so repeated Exports calls yield handles that are Same.
	exports []*object
	payload []any
	mu      sync.Mutex
}

func newInstanceHandle(obj *object, io *instanceObject) *Instance {
	h := &Instance{i: io}
	h.attach(RefInstance, obj, h)
	return h
}

// NewInstance instantiates module. imports is borrowed and must supply one
// extern per module import, in declaration order. Only function imports are
// supported.
func NewInstance(ctx context.Context, store *Store, module *Module, imports *Externs) (*Instance, error) {
	if err := store.checkOpen(errors.PhaseInstantiate); err != nil {
		return nil, err
	}
	if module == nil {
		return nil, errors.NilPointer(errors.PhaseInstantiate, []string{"module"}, "*runtime.Module")
	}
	module.live()
	decoded := module.m.Decoded()

	var given []Extern
	if imports != nil {
		given = imports.Data()
	}
	if len(given) > len(decoded.Imports) {
		return nil, errors.Arity(errors.PhaseInstantiate, "imports", len(decoded.Imports), len(given))
	}

	var missing []errors.MissingImport
	for i := range decoded.Imports {
		if i >= len(given) || given[i] == nil {
			imp := &decoded.Imports[i]
			missing = append(missing, errors.MissingImport{
				Module: imp.Module,
				Name:   imp.Name,
				Kind:   externKindOf(imp.Desc.Kind).String(),
			})
		}
	}
	if len(missing) > 0 {
		return nil, &errors.MissingImportsError{Imports: missing}
	}

	hostFuncs := make([]engine.HostFunc, 0, len(given))
	retained := make([]*object, 0, len(given))
	releaseAll := func() {
		for _, o := range retained {
			o.release()
		}
	}
	for i, ext := range given {
		hf, err := bindImport(store, decoded, &decoded.Imports[i], ext)
		if err != nil {
			releaseAll()
			return nil, err
		}
		obj := ext.header().obj
		obj.retain()
		retained = append(retained, obj)
		hostFuncs = append(hostFuncs, hf)
	}

	inst, err := store.engine.wazero.Instantiate(ctx, module.m, hostFuncs)
	if err != nil {
		releaseAll()
		return nil, err
	}

	obj := store.newObject()
	io := &instanceObject{
		inst:    inst,
		decoded: decoded,
		obj:     obj,
		exports: make([]*object, len(decoded.Exports)),
		payload: make([]any, len(decoded.Exports)),
	}
	obj.onFinalize(func(ctx context.Context) {
		if err := inst.Close(ctx); err != nil {
			Logger().Warn("close instance", zap.String("instance", inst.ID()), zap.Error(err))
		}
		releaseAll()
	})

	Logger().Debug("instance created", zap.String("instance", inst.ID()), zap.Int("imports", len(given)))
	return newInstanceHandle(obj, io), nil
}

// bindImport checks ext against the declared import and adapts it to a
// wazero host function.
func bindImport(s *Store, m *wasm.Module, imp *wasm.Import, ext Extern) (engine.HostFunc, error) {
	path := []string{imp.Module, imp.Name}
	want := externKindOf(imp.Desc.Kind)
	if ext.Kind() != want {
		return engine.HostFunc{}, errors.TypeMismatch(errors.PhaseInstantiate, path, want.String(), ext.Kind().String())
	}
	if want != types.ExternFunc {
		return engine.HostFunc{}, errors.Unsupported(errors.PhaseInstantiate, want.String()+" import "+imp.Module+"."+imp.Name)
	}
	if ext.Store() != s {
		return engine.HostFunc{}, errors.InvalidInput(errors.PhaseInstantiate, "import "+imp.Module+"."+imp.Name+" belongs to another store")
	}

	f := ext.Func()
	declared := funcTypeOf(&m.Types[imp.Desc.TypeIdx])
	if !declared.Equal(f.fn.typ) {
		return engine.HostFunc{}, errors.TypeMismatch(errors.PhaseInstantiate, path, declared.String(), f.fn.typ.String())
	}

	params, ok := valueTypes(declared.ParamKinds())
	if !ok {
		return engine.HostFunc{}, errors.Unsupported(errors.PhaseInstantiate, "funcref parameters in import "+imp.Module+"."+imp.Name)
	}
	results, ok := valueTypes(declared.ResultKinds())
	if !ok {
		return engine.HostFunc{}, errors.Unsupported(errors.PhaseInstantiate, "funcref results in import "+imp.Module+"."+imp.Name)
	}

	return engine.HostFunc{
		Fn:      f.fn.hostModuleFunc(s),
		Module:  imp.Module,
		Name:    imp.Name,
		Params:  params,
		Results: results,
	}, nil
}

func (i *Instance) Instance() *Instance { return i }

// Copy returns a new handle to the same instance.
func (i *Instance) Copy() *Instance {
	return newInstanceHandle(i.live(), i.i)
}

func (i *Instance) CopyRef() Ref { return i.Copy() }

// Exports returns a handle per module export, in export order.
func (i *Instance) Exports() Externs {
	obj := i.live()
	out := vec.MakeUninitialized[Extern, ExternPolicy](len(i.i.decoded.Exports))
	for idx := range i.i.decoded.Exports {
		out.Set(idx, i.i.export(obj.store, idx))
	}
	return out.Move()
}

// Export returns a handle to the named export, or nil.
func (i *Instance) Export(name string) Extern {
	obj := i.live()
	for idx := range i.i.decoded.Exports {
		if i.i.decoded.Exports[idx].Name == name {
			return i.i.export(obj.store, idx)
		}
	}
	return nil
}

func (io *instanceObject) export(s *Store, idx int) Extern {
	io.mu.Lock()
	defer io.mu.Unlock()

	if obj := io.exports[idx]; obj != nil {
		return wrapExtern(obj, io.payload[idx])
	}

	exp := &io.decoded.Exports[idx]
	var payload any
	switch exp.Kind {
	case wasm.KindFunc:
		ft, _ := io.decoded.FuncTypeAt(exp.Idx)
		payload = &funcObject{typ: funcTypeOf(ft), wasm: io.inst.Function(exp.Name), name: exp.Name}
	case wasm.KindGlobal:
		gt, _ := io.decoded.GlobalAt(exp.Idx)
		payload = &globalObject{typ: globalTypeOf(gt), wasm: io.inst.Global(exp.Name)}
	case wasm.KindMemory:
		mt, _ := io.decoded.MemoryAt(exp.Idx)
		payload = &memoryObject{typ: memoryTypeOf(mt), wasm: io.inst.Memory(exp.Name)}
	default:
		tt, _ := io.decoded.TableAt(exp.Idx)
		payload = &tableObject{typ: tableTypeOf(tt), size: tt.Limits.Min, exported: true}
	}

	obj := s.newObject()
	io.obj.retain()
	obj.onFinalize(func(context.Context) {
		io.mu.Lock()
		io.exports[idx] = nil
		io.payload[idx] = nil
		io.mu.Unlock()
		io.obj.release()
	})
	io.exports[idx] = obj
	io.payload[idx] = payload
	return wrapExtern(obj, payload)
}

func wrapExtern(obj *object, payload any) Extern {
	switch p := payload.(type) {
	case *funcObject:
		return newFuncHandle(obj, p)
	case *globalObject:
		return newGlobalHandle(obj, p)
	case *memoryObject:
		return newMemoryHandle(obj, p)
	default:
		return newTableHandle(obj, p.(*tableObject))
	}
}
