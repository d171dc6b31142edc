// Package runtime is the embedding API: stores, modules, instances and the
// host objects that cross into wasm.
//
// # Quick Start
//
//	ctx := context.Background()
//	eng, err := runtime.NewEngine(ctx, os.Args[1:], nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Delete(ctx)
//
//	store := runtime.NewStore(eng)
//	defer store.Delete(ctx)
//
//	binary := vec.AdoptValues(wasmBytes)
//	mod, err := runtime.NewModule(ctx, store, &binary)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mod.Delete()
//
//	hello := runtime.NewFunc(store, types.FuncTypeOf(nil, nil),
//	    func(ctx context.Context, args, results *runtime.Vals) error {
//	        fmt.Println("hello")
//	        return nil
//	    })
//	imports := runtime.MakeExterns(hello)
//	defer imports.Delete()
//
//	inst, err := runtime.NewInstance(ctx, store, mod, &imports)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Delete()
//
//	exports := inst.Exports()
//	defer exports.Delete()
//	results, err := exports.Get(0).Func().CallValues(ctx, runtime.I32(1))
//
// # Ownership
//
// Every Ref is an owning handle: exactly one owner must call Delete once.
// Copies made with Copy or CopyRef are independent handles to the same
// object, and the object's finalizers run when the last handle is deleted.
// Values and vectors follow the same rule: a Val holding a reference owns
// it, and deleting a Vals vector deletes its elements.
//
// Arguments documented as borrowed are only read during the call. Vectors
// and values documented as consumed are left invalid or null.
//
// # References in wasm
//
// An anyref crosses into wasm as an externref carrying the handle id of a
// pin the store keeps for the object. Externrefs coming back resolve to a
// new handle. Pins last until Store.Unpin or Store.Delete. Funcref values
// cannot cross the boundary.
//
// # Engine limits
//
// Imports must be functions. Memories, globals and tables created on the
// host are usable from Go but cannot be imported by wasm. Tables exported
// from wasm expose their type and size only.
package runtime
