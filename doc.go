// Package wasmembed is a host-embedding API for WebAssembly in Go, backed by
// wazero.
//
// Values, types and runtime handles cross the boundary between embedding
// code and the engine with explicit ownership. Every constructor returns an
// owned handle that must be deleted exactly once; vectors of handles own
// their elements.
//
// # Architecture Overview
//
//	wasmembed/           Root package with the Memory interface and typed accessors
//	├── vec/             Generic owning vectors with element policies
//	├── types/           Value, extern, import and export type descriptors
//	├── runtime/         Engine, Store, Module, Instance and the Ref/Extern families
//	├── engine/          wazero integration, configuration and logging
//	├── wasm/            Core WASM binary descriptor reader and writer
//	├── resource/        Live handle table with lifecycle observers
//	├── errors/          Structured error types for debugging
//	└── cmd/wasm-run/    Inspect modules and call their exports
//
// # Quick Start
//
//	e, err := runtime.NewEngine(ctx, os.Args[1:], nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Delete(ctx)
//
//	store := runtime.NewStore(e)
//	defer store.Delete(ctx)
//
//	binary := vec.AdoptValues(wasmBytes)
//	mod, err := runtime.NewModule(ctx, store, &binary)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mod.Delete()
//
//	inst, err := runtime.NewInstance(ctx, store, mod, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Delete()
//
//	add := inst.Export("add")
//	defer add.Delete()
//	results, err := add.Func().CallValues(ctx, runtime.I32(2), runtime.I32(3))
//
// # Memory Access
//
// runtime.Memory implements Memory. The helpers in this package read and
// write little-endian integers with bounds checks:
//
//	mem := inst.Export("memory").Memory()
//	defer mem.Delete()
//	n, err := wasmembed.ReadU32(mem, ptr)
//
// WASM linear memory can only grow, never shrink. Views returned by Data are
// invalidated by Grow.
//
// # Thread Safety
//
// Engine is safe for concurrent use. A Store and everything created in it
// should be used by a single goroutine, or access must be synchronized.
package wasmembed
