package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseCall,
				Kind:     KindTypeMismatch,
				Path:     []string{"add", "arg0"},
				GoType:   "float64",
				WasmType: "i32",
				Detail:   "cannot convert",
			},
			contains: []string{"[call]", "type_mismatch", "add.arg0", "float64", "i32", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseLoad,
				Kind:  KindInvalidData,
			},
			contains: []string{"[load]", "invalid_data"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseInstantiate,
				Kind:   KindInstantiation,
				Detail: "start function failed",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[instantiate]", "instantiation", "start function failed", "caused by", "underlying error"},
		},
		{
			name: "wasm type only",
			err: &Error{
				Phase:    PhaseHost,
				Kind:     KindTypeMismatch,
				WasmType: "funcref",
			},
			contains: []string{"wasm type funcref"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Trap("run", cause)

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseCall,
		Kind:  KindArity,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseCall, Kind: KindArity}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseHost, Kind: KindArity}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseCall, Kind: KindTrap}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, &Error{Phase: PhaseCall, Kind: KindArity}) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseCall, KindTypeMismatch).
		Path("add", "arg1").
		GoType("string").
		WasmType("i64").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "i64", "f32").
		Build()

	if err.Phase != PhaseCall {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseCall)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "add" || err.Path[1] != "arg1" {
		t.Errorf("Path = %v, want [add arg1]", err.Path)
	}
	if err.GoType != "string" || err.WasmType != "i64" {
		t.Errorf("GoType=%v WasmType=%v", err.GoType, err.WasmType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected i64, got f32" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		err  *Error
		name string
		kind Kind
	}{
		{TypeMismatch(PhaseCall, []string{"arg0"}, "i32", "f64"), "TypeMismatch", KindTypeMismatch},
		{Arity(PhaseCall, "add", 2, 3), "Arity", KindArity},
		{Unsupported(PhaseInstantiate, "memory imports"), "Unsupported", KindUnsupported},
		{OutOfBounds(PhaseHost, []string{"table"}, 10, 5), "OutOfBounds", KindOutOfBounds},
		{NilPointer(PhaseHost, nil, "*FuncType"), "NilPointer", KindNilPointer},
		{Immutable(PhaseHost, "global"), "Immutable", KindImmutable},
		{InvalidData(PhaseSerialize, nil, "bad magic"), "InvalidData", KindInvalidData},
		{NotFound(PhaseCall, "export", "run"), "NotFound", KindNotFound},
		{InvalidInput(PhaseConfig, "negative limit"), "InvalidInput", KindInvalidInput},
		{Instantiation(errors.New("x")), "Instantiation", KindInstantiation},
		{Trap("run", errors.New("unreachable")), "Trap", KindTrap},
		{Load("compile", errors.New("x")), "Load", KindInvalidData},
		{Closed(PhaseHost, "store"), "Closed", KindClosed},
		{ParseFailed("WIT", errors.New("x")), "ParseFailed", KindInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("empty message")
			}
		})
	}

	if v := OutOfBounds(PhaseHost, nil, 10, 5).Value; v != 10 {
		t.Errorf("Value = %v, want 10", v)
	}
}

func TestMissingImportsError(t *testing.T) {
	t.Run("grouped by module", func(t *testing.T) {
		err := &MissingImportsError{Imports: []MissingImport{
			{Module: "env", Name: "log", Kind: "func"},
			{Module: "wasi", Name: "clock", Kind: "func"},
			{Module: "env", Name: "mem", Kind: "memory"},
		}}
		msg := err.Error()
		for _, s := range []string{"missing 3 import(s)", "env:", "wasi:", "log (func)", "mem (memory)"} {
			if !strings.Contains(msg, s) {
				t.Errorf("message %q does not contain %q", msg, s)
			}
		}
	})

	t.Run("empty imports", func(t *testing.T) {
		err := &MissingImportsError{}
		if !strings.Contains(err.Error(), "no imports specified") {
			t.Errorf("unexpected message: %s", err.Error())
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		var err error = &MissingImportsError{Imports: []MissingImport{{Module: "env", Name: "f"}}}
		if !errors.Is(err, &MissingImportsError{}) {
			t.Error("errors.Is should match MissingImportsError")
		}
	})
}
