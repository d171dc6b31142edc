package engine

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/wasm"
)

// logModule imports env.log(i32) and exports add(i32, i32) -> i32 and
// run(i32), which forwards its argument to env.log.
func logModule() []byte {
	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{wasm.ValI32}},
			{Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		},
		Imports:  []wasm.Import{{Module: "env", Name: "log", Desc: wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: 0}}},
		Funcs:    []uint32{1, 0},
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1}}},
		Exports: []wasm.Export{
			{Name: "add", Kind: wasm.KindFunc, Idx: 1},
			{Name: "run", Kind: wasm.KindFunc, Idx: 2},
			{Name: "memory", Kind: wasm.KindMemory, Idx: 0},
		},
		Code: []wasm.FuncBody{
			{Code: []byte{wasm.OpLocalGet, 0, wasm.OpLocalGet, 1, wasm.OpI32Add, wasm.OpEnd}},
			{Code: []byte{wasm.OpLocalGet, 0, wasm.OpCall, 0, wasm.OpEnd}},
		},
	}
	return m.Encode()
}

func logImport(sink *[]uint32) HostFunc {
	return HostFunc{
		Module: "env",
		Name:   "log",
		Params: []api.ValueType{api.ValueTypeI32},
		Fn: func(_ context.Context, _ api.Module, stack []uint64) {
			*sink = append(*sink, api.DecodeU32(stack[0]))
		},
	}
}

func newTestEngine(t *testing.T) *WazeroEngine {
	t.Helper()
	e, err := NewWazeroEngine(context.Background())
	if err != nil {
		t.Fatalf("NewWazeroEngine failed: %v", err)
	}
	t.Cleanup(func() { e.Close(context.Background()) })
	return e
}

func TestNewWazeroEngineWithConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		cfg  *Config
		name string
	}{
		{nil, "nil config"},
		{&Config{}, "default config"},
		{&Config{MemoryLimitPages: 256}, "16MB limit"},
		{&Config{MemoryLimitPages: 1024, CloseOnContextDone: true}, "64MB limit"},
		{&Config{CacheDir: t.TempDir()}, "cache dir"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine, err := NewWazeroEngineWithConfig(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("NewWazeroEngineWithConfig failed: %v", err)
			}
			defer engine.Close(ctx)

			if engine.runtime == nil {
				t.Error("engine runtime should not be nil")
			}
		})
	}

	if _, err := NewWazeroEngineWithConfig(ctx, &Config{MemoryLimitPages: MaxMemoryLimitPages + 1}); err == nil {
		t.Error("expected error for oversized memory limit")
	}
}

func TestCompile(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	m, err := e.Compile(ctx, logModule())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	defer m.Close(ctx)

	if len(m.Decoded().Imports) != 1 || len(m.Decoded().Exports) != 3 {
		t.Errorf("unexpected descriptors: %d imports, %d exports",
			len(m.Decoded().Imports), len(m.Decoded().Exports))
	}

	_, err = e.Compile(ctx, []byte{0x00, 0x61, 0x73, 0x6D, 0x01})
	if !stderrors.Is(err, errors.New(errors.PhaseLoad, errors.KindInvalidData).Build()) {
		t.Errorf("expected load error, got %v", err)
	}

	if err := e.Validate(ctx, logModule()); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestInstantiate_HostImport(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	m, err := e.Compile(ctx, logModule())
	if err != nil {
		t.Fatal(err)
	}

	var logged []uint32
	inst, err := e.Instantiate(ctx, m, []HostFunc{logImport(&logged)})
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	defer inst.Close(ctx)

	if _, err := inst.Function("run").Call(ctx, 42); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(logged) != 1 || logged[0] != 42 {
		t.Errorf("host saw %v, want [42]", logged)
	}

	res, err := inst.Function("add").Call(ctx, api.EncodeI32(2), api.EncodeI32(3))
	if err != nil || api.DecodeI32(res[0]) != 5 {
		t.Errorf("add = %v, %v", res, err)
	}

	if mem := inst.Memory("memory"); mem == nil || mem.Size() != 65536 {
		t.Error("expected one page of exported memory")
	}
	if inst.Function("missing") != nil {
		t.Error("missing export should be nil")
	}
}

func TestInstantiate_SeparateNamespaces(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	m, err := e.Compile(ctx, logModule())
	if err != nil {
		t.Fatal(err)
	}

	var a, b []uint32
	instA, err := e.Instantiate(ctx, m, []HostFunc{logImport(&a)})
	if err != nil {
		t.Fatal(err)
	}
	instB, err := e.Instantiate(ctx, m, []HostFunc{logImport(&b)})
	if err != nil {
		t.Fatal(err)
	}
	if instA.ID() == instB.ID() {
		t.Error("instances should have distinct ids")
	}

	instA.Function("run").Call(ctx, 1)
	instB.Function("run").Call(ctx, 2)
	if len(a) != 1 || a[0] != 1 || len(b) != 1 || b[0] != 2 {
		t.Errorf("imports crossed: a=%v b=%v", a, b)
	}

	if e.LiveInstances() != 2 {
		t.Errorf("expected 2 live instances, got %d", e.LiveInstances())
	}
	instA.Close(ctx)
	instA.Close(ctx)
	if e.LiveInstances() != 1 {
		t.Errorf("expected 1 live instance, got %d", e.LiveInstances())
	}
}

func TestInstantiate_MissingImport(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	m, err := e.Compile(ctx, logModule())
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.Instantiate(ctx, m, nil)
	if !stderrors.Is(err, errors.Instantiation(nil)) {
		t.Errorf("expected instantiation error, got %v", err)
	}
	if e.LiveInstances() != 0 {
		t.Error("failed instantiation should not register an instance")
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	e, err := NewWazeroEngine(ctx)
	if err != nil {
		t.Fatal(err)
	}
	m, err := e.Compile(ctx, logModule())
	if err != nil {
		t.Fatal(err)
	}
	var logged []uint32
	if _, err := e.Instantiate(ctx, m, []HostFunc{logImport(&logged)}); err != nil {
		t.Fatal(err)
	}

	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if e.LiveInstances() != 0 {
		t.Error("Close should close live instances")
	}
	if err := e.Close(ctx); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}

	_, err = e.Compile(ctx, logModule())
	if !stderrors.Is(err, errors.Closed(errors.PhaseLoad, "engine")) {
		t.Errorf("expected closed error, got %v", err)
	}
}
