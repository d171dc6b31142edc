package runtime

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/types"
	"github.com/wippyai/wasm-embed/vec"
)

// Callback implements a host function. args holds one value per parameter.
// results arrives sized to the result arity with every slot a null anyref;
// the callback fills it. A non-nil error traps the caller.
type Callback func(ctx context.Context, args *Vals, results *Vals) error

// CallbackWithEnv is a Callback that receives the environment given to
// NewFuncWithEnv.
type CallbackWithEnv func(ctx context.Context, env any, args *Vals, results *Vals) error

// Func is a handle to a host or wasm function.
type Func struct {
	externHeader
	fn *funcObject
}

type funcObject struct {
	typ      *types.FuncType
	callback CallbackWithEnv
	env      any
	wasm     api.Function
	name     string
}

func newFuncHandle(obj *object, fo *funcObject) *Func {
	f := &Func{fn: fo}
	f.attachExtern(types.ExternFunc, obj, f)
	return f
}

// NewFunc creates a host function of type typ. typ is borrowed. It returns
// nil when typ or cb is nil or the store is deleted.
func NewFunc(store *Store, typ *types.FuncType, cb Callback) *Func {
	if cb == nil {
		return nil
	}
	return NewFuncWithEnv(store, typ, func(ctx context.Context, _ any, args, results *Vals) error {
		return cb(ctx, args, results)
	}, nil, nil)
}

// NewFuncWithEnv creates a host function whose callback receives env.
// finalizer, if not nil, is called with env when the function's last
// handle is deleted.
func NewFuncWithEnv(store *Store, typ *types.FuncType, cb CallbackWithEnv, env any, finalizer func(any)) *Func {
	if typ == nil || cb == nil || store.isClosed() {
		return nil
	}
	obj := store.newObject()
	if finalizer != nil {
		obj.onFinalize(func(context.Context) { finalizer(env) })
	}
	return newFuncHandle(obj, &funcObject{
		typ:      typ.Copy(),
		callback: cb,
		env:      env,
		name:     "host function",
	})
}

func (f *Func) Func() *Func    { return f }
func (f *Func) Extern() Extern { return f }

// Copy returns a new handle to the same function.
func (f *Func) Copy() *Func {
	return newFuncHandle(f.live(), f.fn)
}

func (f *Func) CopyRef() Ref       { return f.Copy() }
func (f *Func) CopyExtern() Extern { return f.Copy() }

// Type returns an owned copy of the function's type.
func (f *Func) Type() types.ExternType {
	return f.FuncType()
}

// FuncType returns an owned copy of the function's type.
func (f *Func) FuncType() *types.FuncType {
	f.live()
	return f.fn.typ.Copy()
}

// ParamArity returns the number of parameters.
func (f *Func) ParamArity() int {
	return f.fn.typ.Params().Len()
}

// ResultArity returns the number of results.
func (f *Func) ResultArity() int {
	return f.fn.typ.Results().Len()
}

// Call invokes the function. args is borrowed; the caller owns the returned
// results. On error the results vector is invalid.
func (f *Func) Call(ctx context.Context, args *Vals) (Vals, error) {
	obj := f.live()
	if err := obj.store.checkOpen(errors.PhaseCall); err != nil {
		return invalidVals(), err
	}
	return f.fn.call(ctx, obj.store, args)
}

// CallValues calls the function with args, taking ownership of them.
func (f *Func) CallValues(ctx context.Context, args ...Val) (Vals, error) {
	vals := MakeVals(args...)
	defer vals.Delete()
	return f.Call(ctx, &vals)
}

func (fo *funcObject) call(ctx context.Context, s *Store, args *Vals) (Vals, error) {
	if err := checkVals(errors.PhaseCall, "params", fo.typ.ParamKinds(), args); err != nil {
		return invalidVals(), err
	}
	if fo.wasm != nil {
		return fo.callWasm(ctx, s, args)
	}

	results := vec.OwnedUninitialized[Val](fo.typ.Results().Len())
	if err := fo.callback(ctx, fo.env, args, &results); err != nil {
		results.Delete()
		Logger().Debug("host function trapped", zap.String("func", fo.name), zap.Error(err))
		return invalidVals(), errors.Trap(fo.name, err)
	}
	if err := checkVals(errors.PhaseCall, "results", fo.typ.ResultKinds(), &results); err != nil {
		results.Delete()
		return invalidVals(), err
	}
	return results.Move(), nil
}

func (fo *funcObject) callWasm(ctx context.Context, s *Store, args *Vals) (Vals, error) {
	kinds := fo.typ.ResultKinds()
	if _, ok := valueTypes(kinds); !ok {
		return invalidVals(), errors.Unsupported(errors.PhaseCall, "funcref results from wasm")
	}

	var params []uint64
	if args != nil {
		params = make([]uint64, args.Len())
		for i, a := range args.All() {
			raw, err := s.encodeVal(a)
			if err != nil {
				return invalidVals(), err
			}
			params[i] = raw
		}
	}

	raw, err := fo.wasm.Call(ctx, params...)
	if err != nil {
		Logger().Debug("wasm call trapped", zap.String("func", fo.name), zap.Error(err))
		return invalidVals(), errors.Trap(fo.name, err)
	}

	results := vec.OwnedUninitialized[Val](len(kinds))
	for i, k := range kinds {
		results.Set(i, s.decodeVal(k, raw[i]))
	}
	return results.Move(), nil
}

// hostModuleFunc adapts fo to a raw wazero host function. Traps are raised
// by panicking with the error, which wazero returns from the wasm call.
func (fo *funcObject) hostModuleFunc(s *Store) api.GoModuleFunc {
	params := fo.typ.ParamKinds()
	results := fo.typ.ResultKinds()
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		args := vec.OwnedUninitialized[Val](len(params))
		defer args.Delete()
		for i, k := range params {
			args.Set(i, s.decodeVal(k, stack[i]))
		}

		out, err := fo.call(ctx, s, &args)
		if err != nil {
			panic(err)
		}
		defer out.Delete()

		for i := range results {
			raw, err := s.encodeVal(out.Get(i))
			if err != nil {
				panic(err)
			}
			stack[i] = raw
		}
	}
}
