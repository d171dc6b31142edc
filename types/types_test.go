package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/vec"
)

func TestValKind(t *testing.T) {
	tests := []struct {
		kind  ValKind
		name  string
		isNum bool
	}{
		{I32, "i32", true},
		{I64, "i64", true},
		{F32, "f32", true},
		{F64, "f64", true},
		{AnyRef, "anyref", false},
		{FuncRef, "funcref", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.kind.String() != tt.name {
				t.Errorf("String() = %q", tt.kind.String())
			}
			if tt.kind.IsNum() != tt.isNum || tt.kind.IsRef() == tt.isNum {
				t.Errorf("IsNum=%v IsRef=%v", tt.kind.IsNum(), tt.kind.IsRef())
			}
			k, ok := ParseValKind(tt.name)
			if !ok || k != tt.kind {
				t.Errorf("ParseValKind(%q) = %v, %v", tt.name, k, ok)
			}
		})
	}

	if k, ok := ParseValKind("externref"); !ok || k != AnyRef {
		t.Error("externref should parse as anyref")
	}
	if _, ok := ParseValKind("v128"); ok {
		t.Error("v128 should not parse")
	}
	if NewValType(ValKind(42)) != nil {
		t.Error("unknown kind should produce nil")
	}
}

func TestLimits(t *testing.T) {
	l := NewLimits(1)
	if l.HasMax() || l.Max != MaxLimit {
		t.Errorf("expected implicit max, got %+v", l)
	}
	if !l.Contains(1 << 20) {
		t.Error("unbounded limits should contain large sizes")
	}

	b := NewLimitsMax(1, 4)
	if !b.HasMax() || b.Contains(5) || b.Contains(0) || !b.Contains(4) {
		t.Errorf("bounded limits misbehave: %+v", b)
	}
	if b.String() != "1..4" || l.String() != "1.." {
		t.Errorf("got %q and %q", b.String(), l.String())
	}
}

func newSig() *FuncType {
	params := vec.OwnedOf(NewValType(I32), NewValType(F64))
	results := vec.OwnedOf(NewValType(I64))
	return NewFuncType(&params, &results)
}

func TestFuncType_ParamsAndResults(t *testing.T) {
	params := vec.OwnedOf(NewValType(I32), NewValType(F64))
	results := vec.OwnedOf(NewValType(I64))
	ft := NewFuncType(&params, &results)
	defer ft.Delete()

	if params.Valid() || results.Valid() {
		t.Error("NewFuncType should take ownership of its vectors")
	}
	if ft.Params().Len() != 2 || ft.Results().Len() != 1 {
		t.Fatalf("got %d params, %d results", ft.Params().Len(), ft.Results().Len())
	}
	if diff := cmp.Diff([]ValKind{I32, F64}, ft.ParamKinds()); diff != "" {
		t.Errorf("params (-want +got):\n%s", diff)
	}
	if ft.String() != "func(i32, f64) -> (i64)" {
		t.Errorf("String() = %q", ft.String())
	}
}

func TestFuncType_CopyIsDeep(t *testing.T) {
	ft := newSig()
	defer ft.Delete()

	cp := ft.Copy()
	defer cp.Delete()

	if !cp.Equal(ft) {
		t.Fatal("copy should be structurally equal")
	}
	for i := range ft.Params().Len() {
		if cp.Params().Get(i) == ft.Params().Get(i) {
			t.Errorf("param %d shares its ValType with the source", i)
		}
	}
	if cp.Results().Get(0) == ft.Results().Get(0) {
		t.Error("result shares its ValType with the source")
	}
}

func TestNewFuncType_InvalidInput(t *testing.T) {
	params := vec.InvalidOwned[*ValType]()
	results := vec.OwnedUninitialized[*ValType](0)
	if NewFuncType(&params, &results) != nil {
		t.Error("invalid params should produce nil")
	}
	if !results.Valid() {
		t.Error("results must not be consumed on failure")
	}
}

func TestExternType_Downcasts(t *testing.T) {
	ft := newSig()
	gt := NewGlobalType(NewValType(I32), Var)
	tt := NewTableType(NewValType(FuncRef), NewLimitsMax(1, 10))
	mt := NewMemoryType(NewLimits(1))

	tests := []struct {
		et   ExternType
		kind ExternKind
	}{
		{ft, ExternFunc},
		{gt, ExternGlobal},
		{tt, ExternTable},
		{mt, ExternMemory},
	}

	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			et := tc.et
			if et.Kind() != tc.kind {
				t.Fatalf("Kind() = %v", et.Kind())
			}
			hits := 0
			if f := et.Func(); f != nil {
				hits++
				if tc.kind != ExternFunc || ExternType(f) != et {
					t.Error("Func() returned a miscast view")
				}
			}
			if g := et.Global(); g != nil {
				hits++
				if tc.kind != ExternGlobal || ExternType(g) != et {
					t.Error("Global() returned a miscast view")
				}
			}
			if tb := et.Table(); tb != nil {
				hits++
				if tc.kind != ExternTable || ExternType(tb) != et {
					t.Error("Table() returned a miscast view")
				}
			}
			if m := et.Memory(); m != nil {
				hits++
				if tc.kind != ExternMemory || ExternType(m) != et {
					t.Error("Memory() returned a miscast view")
				}
			}
			if hits != 1 {
				t.Errorf("expected exactly one matching downcast, got %d", hits)
			}
		})
	}

	externs := vec.MakeOf[ExternType, ExternPolicy](ft, gt, tt, mt)
	cp := externs.Copy()
	for i, et := range cp.All() {
		if et == externs.Get(i) || et.Kind() != externs.Get(i).Kind() {
			t.Errorf("copy %d should be a distinct %v", i, externs.Get(i).Kind())
		}
	}
	cp.Delete()
	externs.Delete()
}

func TestGlobalAndTableTypes(t *testing.T) {
	gt := NewGlobalType(NewValType(F32), Const)
	defer gt.Delete()
	if gt.Content().Kind() != F32 || gt.Mutability() != Const {
		t.Errorf("got %s", gt)
	}

	if NewGlobalType(nil, Var) != nil {
		t.Error("nil content should produce nil")
	}
	if NewTableType(NewValType(I32), NewLimits(0)) != nil {
		t.Error("numeric table element should be refused")
	}

	tt := NewTableType(NewValType(AnyRef), NewLimitsMax(2, 8))
	defer tt.Delete()
	cp := tt.Copy()
	defer cp.Delete()
	if cp.Element() == tt.Element() || !cp.Element().Equal(tt.Element()) {
		t.Error("table copy should own an equal element type")
	}
	if diff := cmp.Diff(tt.Limits(), cp.Limits()); diff != "" {
		t.Errorf("limits (-want +got):\n%s", diff)
	}
}

func TestAsExternTypes(t *testing.T) {
	funcs := vec.OwnedOf(newSig(), nil)
	ets := AsExternTypes(&funcs)
	defer ets.Delete()

	if funcs.Valid() {
		t.Error("source should be consumed")
	}
	if ets.Get(0).Func() == nil {
		t.Error("element 0 should downcast to a FuncType")
	}
	if ets.Get(1) != nil {
		t.Error("null slot should stay nil")
	}
}

func TestImportExportTypes(t *testing.T) {
	it := ImportOf("env", "log", newSig())
	defer it.Delete()

	if vec.String(it.Module()) != "env" || vec.String(it.Name()) != "log" {
		t.Errorf("got %s", it)
	}
	if it.Type().Func() == nil {
		t.Error("import type should be a function")
	}

	cp := it.Copy()
	if cp.Type() == it.Type() {
		t.Error("copy should own its type")
	}
	cp.Delete()

	name := vec.FromString("memory")
	et := NewExportType(&name, NewMemoryType(NewLimits(1)))
	defer et.Delete()
	if name.Valid() {
		t.Error("NewExportType should take the name")
	}
	if et.String() != "memory: memory 1.." {
		t.Errorf("String() = %q", et.String())
	}

	imports := vec.OwnedOf(it.Copy(), ImportOf("env", "tick", FuncTypeOf(nil, nil)))
	defer imports.Delete()
	if imports.Get(1).Type().Func().Params().Len() != 0 {
		t.Error("FuncTypeOf(nil, nil) should have no params")
	}
}

func TestParseFuncType(t *testing.T) {
	tests := []struct {
		sig     string
		params  []ValKind
		results []ValKind
	}{
		{"func()", []ValKind{}, []ValKind{}},
		{"func(a: s32, b: s32) -> s32", []ValKind{I32, I32}, []ValKind{I32}},
		{"func(flag: bool, c: char) -> u64", []ValKind{I32, I32}, []ValKind{I64}},
		{"func(x: f32) -> (f64, u8)", []ValKind{F32}, []ValKind{F64, I32}},
		{"func() -> (a: u32, b: s64)", []ValKind{}, []ValKind{I32, I64}},
	}

	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			ft, err := ParseFuncType(tt.sig)
			if err != nil {
				t.Fatalf("ParseFuncType: %v", err)
			}
			defer ft.Delete()
			if diff := cmp.Diff(tt.params, ft.ParamKinds()); diff != "" {
				t.Errorf("params (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.results, ft.ResultKinds()); diff != "" {
				t.Errorf("results (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFuncType_Errors(t *testing.T) {
	for _, sig := range []string{"s32", "func(s: string)", "func() -> list<u8>"} {
		if _, err := ParseFuncType(sig); err == nil {
			t.Errorf("%q: expected error", sig)
		}
	}
}

func TestParseFuncTypes(t *testing.T) {
	text := `
interface calc {
	add: func(a: s32, b: s32) -> s32;
	export reset: func();
}`
	funcs, err := ParseFuncTypes(text)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		for _, ft := range funcs {
			ft.Delete()
		}
	}()

	if len(funcs) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(funcs))
	}
	if funcs["add"].Params().Len() != 2 || funcs["reset"].Results().Len() != 0 {
		t.Error("unexpected signatures")
	}

	_, err = ParseFuncTypes("nothing here")
	werr, ok := err.(*errors.Error)
	if !ok || werr.Phase != errors.PhaseParse || werr.Kind != errors.KindInvalidInput {
		t.Errorf("expected parse/invalid_input error, got %v", err)
	}
}
