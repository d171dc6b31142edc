package wasm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func u32(v uint32) *uint32 { return &v }

func sampleModule() *Module {
	return &Module{
		Types: []FuncType{
			{Params: []ValType{ValI32, ValI32}, Results: []ValType{ValI32}},
			{},
			{Params: []ValType{ValI32}},
		},
		Imports: []Import{
			{Module: "env", Name: "log", Desc: ImportDesc{Kind: KindFunc, TypeIdx: 2}},
		},
		Funcs:    []uint32{0, 1},
		Tables:   []TableType{{ElemType: ValFuncRef, Limits: Limits{Min: 1, Max: u32(4)}}},
		Memories: []MemoryType{{Limits: Limits{Min: 1}}},
		Globals: []Global{
			{Type: GlobalType{ValType: ValI32, Mutable: true}, Init: ConstI32(7)},
			{Type: GlobalType{ValType: ValF64}, Init: ConstF64(1.5)},
		},
		Exports: []Export{
			{Name: "add", Kind: KindFunc, Idx: 1},
			{Name: "nop", Kind: KindFunc, Idx: 2},
			{Name: "log", Kind: KindFunc, Idx: 0},
			{Name: "mem", Kind: KindMemory, Idx: 0},
			{Name: "tbl", Kind: KindTable, Idx: 0},
			{Name: "counter", Kind: KindGlobal, Idx: 0},
		},
		Code: []FuncBody{
			{Code: []byte{OpLocalGet, 0, OpLocalGet, 1, OpI32Add, OpEnd}},
			{Locals: []LocalEntry{{Count: 1, ValType: ValI64}}, Code: []byte{OpEnd}},
		},
		Raw: []RawSection{
			{ID: SectionData, Data: []byte{0x01, 0x00, OpI32Const, 0x00, OpEnd, 0x02, 'h', 'i'}},
		},
		Custom: []CustomSection{{Name: "note", Data: []byte("x")}},
	}
}

func TestEncodeParse_RoundTrip(t *testing.T) {
	want := sampleModule()
	got, err := ParseModuleValidate(want.Encode())
	if err != nil {
		t.Fatalf("ParseModuleValidate: %v", err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestIndexSpaces(t *testing.T) {
	m := sampleModule()

	tests := []struct {
		idx    uint32
		params int
		ok     bool
	}{
		{0, 1, true},  // imported env.log
		{1, 2, true},  // add
		{2, 0, true},  // nop
		{3, 0, false}, // out of range
	}
	for _, tt := range tests {
		ft, ok := m.FuncTypeAt(tt.idx)
		if ok != tt.ok {
			t.Errorf("FuncTypeAt(%d) ok=%v", tt.idx, ok)
			continue
		}
		if ok && len(ft.Params) != tt.params {
			t.Errorf("FuncTypeAt(%d) has %d params, want %d", tt.idx, len(ft.Params), tt.params)
		}
	}

	if g, ok := m.GlobalAt(1); !ok || g.ValType != ValF64 {
		t.Errorf("GlobalAt(1) = %+v, %v", g, ok)
	}
	if _, ok := m.TableAt(1); ok {
		t.Error("TableAt(1) should not exist")
	}
	if m.NumImported(KindFunc) != 1 || m.NumImported(KindMemory) != 0 {
		t.Error("unexpected import counts")
	}
}

func TestParseModule_Errors(t *testing.T) {
	header := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

	tests := []struct {
		name string
		data []byte
		is   error
	}{
		{"bad magic", []byte{0x00, 0x61, 0x73, 0x00, 0x01, 0x00, 0x00, 0x00}, ErrInvalidMagic},
		{"bad version", []byte{0x00, 0x61, 0x73, 0x6D, 0x02, 0x00, 0x00, 0x00}, ErrInvalidVersion},
		{"truncated header", header[:6], nil},
		{"out of order", append(append([]byte{}, header...), SectionFunction, 1, 0, SectionType, 1, 0), nil},
		{"unknown section", append(append([]byte{}, header...), 0x0E, 0), nil},
		{"truncated section", append(append([]byte{}, header...), SectionType, 5, 1), nil},
		{"bad value type", append(append([]byte{}, header...), SectionType, 4, 1, FuncTypeByte, 1, 0x55), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseModule(tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestParseModule_Empty(t *testing.T) {
	m, err := ParseModule((&Module{}).Encode())
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Imports) != 0 || len(m.Exports) != 0 {
		t.Error("empty module should have no imports or exports")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Module)
	}{
		{"duplicate export", func(m *Module) {
			m.Exports = append(m.Exports, Export{Name: "add", Kind: KindFunc, Idx: 2})
		}},
		{"bad type index", func(m *Module) { m.Funcs[0] = 9 }},
		{"bad import type index", func(m *Module) { m.Imports[0].Desc.TypeIdx = 9 }},
		{"code count", func(m *Module) { m.Code = m.Code[:1] }},
		{"bad export index", func(m *Module) { m.Exports[3].Idx = 1 }},
		{"start with params", func(m *Module) { m.Start = u32(1) }},
		{"memory too large", func(m *Module) { m.Memories[0].Limits.Min = MaxPages + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sampleModule()
			tt.mutate(m)
			if err := m.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	m := sampleModule()
	m.Start = u32(2)
	if err := m.Validate(); err != nil {
		t.Errorf("nullary start should validate: %v", err)
	}
}

func TestConstExprs(t *testing.T) {
	m := &Module{Globals: []Global{
		{Type: GlobalType{ValType: ValI64}, Init: ConstI64(-1)},
		{Type: GlobalType{ValType: ValF32}, Init: ConstF32(2.5)},
		{Type: GlobalType{ValType: ValExtern, Mutable: true}, Init: ConstNull(ValExtern)},
	}}
	got, err := ParseModule(m.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(m.Globals, got.Globals); diff != "" {
		t.Errorf("globals (-want +got):\n%s", diff)
	}
}

func TestAppendImmediates(t *testing.T) {
	code := AppendU32([]byte{OpCall}, 300)
	if diff := cmp.Diff([]byte{OpCall, 0xAC, 0x02}, code); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	code = AppendS32([]byte{OpI32Const}, -1)
	if diff := cmp.Diff([]byte{OpI32Const, 0x7F}, code); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
