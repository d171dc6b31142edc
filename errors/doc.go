// Package errors provides structured error types for the embedding API.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries a field path, the Go and wasm type names
// involved, and a cause chain.
//
// Only recoverable conditions are reported through this package: failed
// compilation, instantiation, traps, bad configuration. Resource exhaustion
// in constructors is signaled by an invalid vector or a nil handle, and
// contract violations (wrong-kind accessors, double delete) panic.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCall, errors.KindTypeMismatch).
//		Path("add", "arg0").
//		GoType("float64").
//		WasmType("i32").
//		Detail("argument kind does not match the signature").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Arity(errors.PhaseCall, "add", 2, 1)
//	err := errors.Trap("add", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
