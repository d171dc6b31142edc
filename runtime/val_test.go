package runtime

import (
	"testing"

	"github.com/wippyai/wasm-embed/types"
)

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

func TestVal_Numbers(t *testing.T) {
	tests := []struct {
		val  Val
		kind types.ValKind
		str  string
	}{
		{I32(-7), types.I32, "i32:-7"},
		{I64(1 << 40), types.I64, "i64:1099511627776"},
		{F32(1.5), types.F32, "f32:1.5"},
		{F64(-0.25), types.F64, "f64:-0.25"},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			if tt.val.Kind() != tt.kind {
				t.Errorf("Kind = %s, want %s", tt.val.Kind(), tt.kind)
			}
			if tt.val.String() != tt.str {
				t.Errorf("String = %q, want %q", tt.val.String(), tt.str)
			}
			if tt.val.IsNull() {
				t.Error("numbers are never null")
			}
		})
	}

	if I32(-7).I32() != -7 || I64(-1).I64() != -1 || F32(2.5).F32() != 2.5 || F64(3.25).F64() != 3.25 {
		t.Error("accessors do not round trip")
	}
}

func TestVal_ZeroIsNullRef(t *testing.T) {
	var v Val
	if v.Kind() != types.AnyRef || !v.IsNull() || v.Ref() != nil {
		t.Errorf("zero Val = %s", v)
	}
	if NullRef() != v {
		t.Error("NullRef should equal the zero Val")
	}
	if I32(0) == v {
		t.Error("I32(0) must differ from the zero Val")
	}
	if f := FuncRefVal(nil); f.Kind() != types.FuncRef || !f.IsNull() || f.String() != "funcref:null" {
		t.Errorf("null funcref = %s", f)
	}
}

func TestVal_AccessorPanics(t *testing.T) {
	mustPanic(t, "I64 on i32", func() { I32(1).I64() })
	mustPanic(t, "F32 on f64", func() { F64(1).F32() })
	mustPanic(t, "I32 on anyref", func() { NullRef().I32() })
	mustPanic(t, "Ref on i32", func() { I32(1).Ref() })
	mustPanic(t, "ReleaseRef on f32", func() {
		v := F32(1)
		v.ReleaseRef()
	})
}

func TestVal_RefOwnership(t *testing.T) {
	s := newTestStore(t)
	f := NewForeign(s)

	v := RefVal(f)
	if v.Ref() != Ref(f) || v.String() != "anyref:foreign" {
		t.Fatalf("RefVal = %s", v)
	}

	c := v.Copy()
	if !c.Ref().Same(f) || c.Ref() == Ref(f) {
		t.Error("Copy should hold a distinct handle to the same object")
	}
	if s.LiveRefs() != 2 {
		t.Errorf("expected 2 live refs, got %d", s.LiveRefs())
	}

	moved := c.Move()
	if c.Ref() != nil || moved.Ref() == nil {
		t.Error("Move should transfer the handle")
	}
	moved.Delete()

	r := v.ReleaseRef()
	if v.Ref() != nil || r != Ref(f) {
		t.Error("ReleaseRef should clear the source")
	}
	v.Reset()
	if !v.IsNull() {
		t.Error("Reset should leave a null ref")
	}
	if s.LiveRefs() != 1 {
		t.Errorf("expected 1 live ref, got %d", s.LiveRefs())
	}

	r.Delete()
	if s.LiveRefs() != 0 {
		t.Errorf("expected no live refs, got %d", s.LiveRefs())
	}
}

func TestVals(t *testing.T) {
	s := newTestStore(t)

	vals := MakeVals(I32(1), RefVal(NewForeign(s)), NullRef())
	if vals.Len() != 3 || vals.Get(0).I32() != 1 {
		t.Fatalf("unexpected vals %v", vals.Data())
	}

	cp := vals.Copy()
	if !cp.Get(1).Ref().Same(vals.Get(1).Ref()) {
		t.Error("copied vector should reference the same object")
	}
	if s.LiveRefs() != 2 {
		t.Errorf("expected 2 live refs, got %d", s.LiveRefs())
	}

	vals.Delete()
	cp.Delete()
	if s.LiveRefs() != 0 {
		t.Errorf("deleting the vectors should delete their refs, %d left", s.LiveRefs())
	}
}
