// Package types describes values and externals at the embedding boundary.
//
// Value types (ValType) are assembled into function, global, table and memory
// types, which form the closed ExternType family. Each variant is stamped
// with its ExternKind by its constructor, and the downcast methods on
// ExternType return the variant only when the kind matches:
//
//	params := vec.OwnedOf(types.NewValType(types.I32), types.NewValType(types.I32))
//	results := vec.OwnedOf(types.NewValType(types.I32))
//	ft := types.NewFuncType(&params, &results)
//	defer ft.Delete()
//
//	var et types.ExternType = ft
//	et.Func()   // ft
//	et.Memory() // nil
//
// Descriptors are exclusively owned. Constructors take ownership of their
// arguments, accessors return non-owning views, and Copy produces an
// independent deep copy.
package types
