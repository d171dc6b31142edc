package engine

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/wasm"
)

// WazeroEngine compiles modules and creates instances on top of wazero.
//
// Import names are resolved per wazero runtime, so every instance gets its
// own runtime. All runtimes share one compilation cache, which makes
// recompiling a module for a new instance cheap.
type WazeroEngine struct {
	cache     wazero.CompilationCache
	runtime   wazero.Runtime
	instances map[string]*WazeroInstance
	cfg       Config
	mu        sync.Mutex
	closed    bool
}

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cache, err := c.compilationCache()
	if err != nil {
		return nil, err
	}

	e := &WazeroEngine{
		cfg:       c,
		cache:     cache,
		instances: make(map[string]*WazeroInstance),
	}
	e.runtime = wazero.NewRuntimeWithConfig(ctx, c.runtimeConfig(cache))

	e.debug("engine created",
		zap.Uint32("memory_limit_pages", c.MemoryLimitPages),
		zap.Bool("threads", c.EnableThreads),
		zap.String("cache_dir", c.CacheDir))
	return e, nil
}

// Config returns the configuration the engine was created with.
func (e *WazeroEngine) Config() Config {
	return e.cfg
}

func (e *WazeroEngine) debug(msg string, fields ...zap.Field) {
	if e.cfg.Debug {
		Logger().Debug(msg, fields...)
	}
}

func (e *WazeroEngine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Validate compiles binary and discards the result.
func (e *WazeroEngine) Validate(ctx context.Context, binary []byte) error {
	m, err := e.Compile(ctx, binary)
	if err != nil {
		return err
	}
	return m.Close(ctx)
}

// Compile validates and compiles a core module binary.
func (e *WazeroEngine) Compile(ctx context.Context, binary []byte) (*WazeroModule, error) {
	if e.isClosed() {
		return nil, errors.Closed(errors.PhaseLoad, "engine")
	}

	compiled, err := e.runtime.CompileModule(ctx, binary)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	decoded, err := wasm.ParseModule(binary)
	if err != nil {
		compiled.Close(ctx)
		return nil, errors.New(errors.PhaseLoad, errors.KindUnsupported).
			Detail("module uses features outside the embedding type system").
			Cause(err).
			Build()
	}

	e.debug("module compiled",
		zap.Int("size", len(binary)),
		zap.Int("imports", len(decoded.Imports)),
		zap.Int("exports", len(decoded.Exports)))

	return &WazeroModule{
		engine:   e,
		compiled: compiled,
		decoded:  decoded,
		binary:   bytes.Clone(binary),
	}, nil
}

// Close closes every live instance, then the engine's runtime and cache.
func (e *WazeroEngine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	instances := make([]*WazeroInstance, 0, len(e.instances))
	for _, inst := range e.instances {
		instances = append(instances, inst)
	}
	e.mu.Unlock()

	var firstErr error
	for _, inst := range instances {
		if err := inst.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := e.runtime.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.cache.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	e.debug("engine closed", zap.Int("instances", len(instances)))
	return firstErr
}

// LiveInstances returns the number of instances not yet closed.
func (e *WazeroEngine) LiveInstances() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.instances)
}

// WazeroModule is a compiled WASM module
type WazeroModule struct {
	engine   *WazeroEngine
	compiled wazero.CompiledModule
	decoded  *wasm.Module
	binary   []byte
}

// Binary returns the module's original bytes.
func (m *WazeroModule) Binary() []byte {
	return m.binary
}

// Decoded returns the module's import, export and definition descriptors.
func (m *WazeroModule) Decoded() *wasm.Module {
	return m.decoded
}

// Close releases the compiled code. Instances already created are unaffected.
func (m *WazeroModule) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// HostFunc binds one function import to Go code.
type HostFunc struct {
	Fn      api.GoModuleFunc
	Module  string
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// Instantiate creates an instance of m in a fresh runtime with the given
// function imports defined as host modules.
func (e *WazeroEngine) Instantiate(ctx context.Context, m *WazeroModule, imports []HostFunc) (*WazeroInstance, error) {
	if e.isClosed() {
		return nil, errors.Closed(errors.PhaseInstantiate, "engine")
	}

	rt := wazero.NewRuntimeWithConfig(ctx, e.cfg.runtimeConfig(e.cache))

	builders := make(map[string]wazero.HostModuleBuilder)
	var order []string
	for _, f := range imports {
		b, ok := builders[f.Module]
		if !ok {
			b = rt.NewHostModuleBuilder(f.Module)
			order = append(order, f.Module)
		}
		builders[f.Module] = b.NewFunctionBuilder().
			WithGoModuleFunction(f.Fn, f.Params, f.Results).
			WithName(f.Name).
			Export(f.Name)
	}
	for _, name := range order {
		if _, err := builders[name].Instantiate(ctx); err != nil {
			rt.Close(ctx)
			return nil, errors.Instantiation(err)
		}
	}

	compiled, err := rt.CompileModule(ctx, m.binary)
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Load("compile module", err)
	}

	id := uuid.NewString()
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName(id).
		WithStartFunctions())
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Instantiation(err)
	}

	inst := &WazeroInstance{
		engine:  e,
		runtime: rt,
		module:  mod,
		id:      id,
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		rt.Close(ctx)
		return nil, errors.Closed(errors.PhaseInstantiate, "engine")
	}
	e.instances[id] = inst
	e.mu.Unlock()

	e.debug("module instantiated", zap.String("instance", id), zap.Int("host_funcs", len(imports)))
	return inst, nil
}

// WazeroInstance is an instantiated module together with its runtime.
type WazeroInstance struct {
	engine  *WazeroEngine
	runtime wazero.Runtime
	module  api.Module
	id      string
	once    sync.Once
}

// ID returns the unique name the instance was registered under.
func (i *WazeroInstance) ID() string {
	return i.id
}

// Module returns the underlying wazero module.
func (i *WazeroInstance) Module() api.Module {
	return i.module
}

// Function returns an exported function or nil.
func (i *WazeroInstance) Function(name string) api.Function {
	return i.module.ExportedFunction(name)
}

// Memory returns an exported memory or nil.
func (i *WazeroInstance) Memory(name string) api.Memory {
	return i.module.ExportedMemory(name)
}

// Global returns an exported global or nil.
func (i *WazeroInstance) Global(name string) api.Global {
	return i.module.ExportedGlobal(name)
}

// Close tears down the instance's runtime. Calling Close more than once is
// a no-op.
func (i *WazeroInstance) Close(ctx context.Context) error {
	var err error
	i.once.Do(func() {
		i.engine.mu.Lock()
		delete(i.engine.instances, i.id)
		i.engine.mu.Unlock()

		err = i.runtime.Close(ctx)
		i.engine.debug("instance closed", zap.String("instance", i.id))
	})
	return err
}
