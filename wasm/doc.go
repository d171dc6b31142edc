// Package wasm reads and writes the descriptor sections of WebAssembly
// binary modules.
//
// ParseModule decodes the header and the type, import, function, table,
// memory, global, export, start and code sections. Element, data and data
// count sections are kept verbatim so that Encode reproduces them. The
// decoded Module resolves index spaces (FuncTypeAt, TableAt, MemoryAt,
// GlobalAt) the way imports and exports are described to an embedder.
//
// # Parsing
//
//	m, err := wasm.ParseModuleValidate(data)
//	if err != nil {
//	    return err
//	}
//	for _, imp := range m.Imports {
//	    fmt.Println(imp.Module, imp.Name)
//	}
//
// # Encoding
//
// Modules can be assembled directly, which is how tests build binaries:
//
//	m := &wasm.Module{
//	    Types: []wasm.FuncType{{
//	        Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32},
//	        Results: []wasm.ValType{wasm.ValI32},
//	    }},
//	    Funcs:   []uint32{0},
//	    Exports: []wasm.Export{{Name: "add", Kind: wasm.KindFunc, Idx: 0}},
//	    Code: []wasm.FuncBody{{Code: []byte{
//	        wasm.OpLocalGet, 0, wasm.OpLocalGet, 1, wasm.OpI32Add, wasm.OpEnd,
//	    }}},
//	}
//	bin := m.Encode()
//
// Function bodies are not decoded or type-checked here; the engine does
// that when it compiles the module.
package wasm
