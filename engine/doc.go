// Package engine is the wazero layer underneath the embedding API.
//
// # Architecture
//
//	WazeroEngine   - configuration, shared compilation cache, live instance set
//	WazeroModule   - a validated, compiled module plus its decoded descriptors
//	WazeroInstance - one instantiation, owning its own wazero runtime
//
// Import names resolve inside a single wazero runtime, so two instances of
// the same module cannot bind "env" differently within one runtime. Each
// instance therefore gets its own runtime; compiled code is shared through
// the engine's compilation cache.
//
// # Configuration
//
// Config can be built in code, decoded from TOML, or parsed from flags:
//
//	cfg, err := engine.ParseArgs([]string{"--memory-limit-pages=256"}, nil)
//	cfg, err := engine.LoadConfig("engine.toml")
//
// TOML keys:
//
//	memory_limit_pages    = 256
//	threads               = false
//	cache_dir             = "/var/cache/wasm"
//	close_on_context_done = true
//	debug                 = false
//
// # Host functions
//
// Function imports are bound with HostFunc, a raw stack-based wazero
// callback. Memory, table and global imports are not supported.
package engine
