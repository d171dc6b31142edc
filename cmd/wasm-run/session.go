package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/runtime"
	"github.com/wippyai/wasm-embed/types"
	"github.com/wippyai/wasm-embed/vec"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type funcInfo struct {
	name    string
	params  []types.ValKind
	results []types.ValKind
}

func (f funcInfo) signature() string {
	return "(" + joinKinds(f.params) + ") -> (" + joinKinds(f.results) + ")"
}

type entry struct {
	kind string
	name string
	typ  string
}

// session holds one instantiated module and the handles needed to tear it
// down again.
type session struct {
	engine   *runtime.Engine
	store    *runtime.Store
	module   *runtime.Module
	instance *runtime.Instance
	imports  []entry
	exports  []entry
	funcs    []funcInfo
	file     string
	// trace receives a line for every stub import call.
	trace func(string)
}

func openSession(ctx context.Context, opts *options) (*session, error) {
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	e, err := runtime.NewEngine(ctx, opts.engineArgs, nil)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	s := &session{
		engine: e,
		store:  runtime.NewStore(e),
		file:   opts.file,
		trace:  func(line string) { fmt.Fprintln(os.Stderr, line) },
	}

	binary := vec.AdoptValues(data)
	s.module, err = runtime.NewModule(ctx, s.store, &binary)
	if err != nil {
		s.close(ctx)
		return nil, fmt.Errorf("load module: %w", err)
	}
	s.inspect()

	imports := s.stubImports()
	defer imports.Delete()
	s.instance, err = runtime.NewInstance(ctx, s.store, s.module, &imports)
	if err != nil {
		s.close(ctx)
		return nil, fmt.Errorf("instantiate: %w", err)
	}
	return s, nil
}

func (s *session) inspect() {
	imports := s.module.Imports()
	defer imports.Delete()
	for _, imp := range imports.All() {
		s.imports = append(s.imports, entry{
			kind: imp.Type().Kind().String(),
			name: vec.String(imp.Module()) + "." + vec.String(imp.Name()),
			typ:  typeString(imp.Type()),
		})
	}

	exports := s.module.Exports()
	defer exports.Delete()
	for _, exp := range exports.All() {
		name := vec.String(exp.Name())
		s.exports = append(s.exports, entry{
			kind: exp.Type().Kind().String(),
			name: name,
			typ:  typeString(exp.Type()),
		})
		if ft := exp.Type().Func(); ft != nil {
			s.funcs = append(s.funcs, funcInfo{
				name:    name,
				params:  ft.ParamKinds(),
				results: ft.ResultKinds(),
			})
		}
	}
}

// stubImports satisfies every function import with a stub returning zero
// values. Other imports are left empty and reported by NewInstance.
func (s *session) stubImports() runtime.Externs {
	imports := s.module.Imports()
	defer imports.Delete()

	stubs := runtime.MakeExterns(make([]runtime.Extern, imports.Len())...)
	for i, imp := range imports.All() {
		ft := imp.Type().Func()
		if ft == nil {
			continue
		}
		name := vec.String(imp.Module()) + "." + vec.String(imp.Name())
		results := ft.ResultKinds()
		stubs.Set(i, runtime.NewFunc(s.store, ft, func(_ context.Context, args, out *runtime.Vals) error {
			s.trace(fmt.Sprintf("host call %s(%s)", name, joinVals(args)))
			for j, k := range results {
				out.Set(j, zeroVal(k))
			}
			return nil
		}))
	}
	return stubs.Move()
}

func (s *session) close(ctx context.Context) {
	if s.instance != nil {
		s.instance.Delete()
	}
	if s.module != nil {
		s.module.Delete()
	}
	s.store.Delete(ctx)
	s.engine.Delete(ctx)
}

// entryPoint picks a conventional export to call when none was named.
func (s *session) entryPoint() string {
	for _, name := range []string{"_start", "run", "main"} {
		for _, f := range s.funcs {
			if f.name == name {
				return name
			}
		}
	}
	if len(s.funcs) == 1 {
		return s.funcs[0].name
	}
	return ""
}

func (s *session) call(ctx context.Context, name string, args []string) (string, error) {
	ext := s.instance.Export(name)
	if ext == nil {
		return "", errors.NotFound(errors.PhaseCall, "export", name)
	}
	defer ext.Delete()
	fn := ext.Func()
	if fn == nil {
		return "", errors.InvalidInput(errors.PhaseCall, name+" is a "+ext.Kind().String()+", not a function")
	}

	ft := fn.FuncType()
	defer ft.Delete()
	vals, err := parseArgs(ft.ParamKinds(), args)
	if err != nil {
		return "", err
	}
	defer vals.Delete()

	results, err := fn.Call(ctx, &vals)
	if err != nil {
		return "", err
	}
	defer results.Delete()
	return joinVals(&results), nil
}

func (s *session) describe(styled bool) string {
	render := func(st lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return st.Render(text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", render(headerStyle, "Module:"), s.file)
	section := func(title string, entries []entry) {
		fmt.Fprintf(&b, "\n%s\n", render(headerStyle, fmt.Sprintf("%s (%d):", title, len(entries))))
		for _, e := range entries {
			fmt.Fprintf(&b, "  %-6s %s %s\n", render(kindStyle, e.kind), render(funcStyle, e.name), render(typeStyle, e.typ))
		}
	}
	section("Imports", s.imports)
	section("Exports", s.exports)
	return b.String()
}

func typeString(t types.ExternType) string {
	if ft := t.Func(); ft != nil {
		return "(" + joinKinds(ft.ParamKinds()) + ") -> (" + joinKinds(ft.ResultKinds()) + ")"
	}
	return fmt.Sprint(t)
}

func parseArgs(kinds []types.ValKind, args []string) (runtime.Vals, error) {
	if len(args) != len(kinds) {
		return vec.InvalidOwned[runtime.Val](), errors.Arity(errors.PhaseCall, "arguments", len(kinds), len(args))
	}
	vals := vec.OwnedUninitialized[runtime.Val](len(args))
	for i, k := range kinds {
		v, err := parseArg(k, args[i])
		if err != nil {
			vals.Delete()
			return vec.InvalidOwned[runtime.Val](), errors.New(errors.PhaseCall, errors.KindInvalidInput).
				Path("arguments", strconv.Itoa(i)).
				GoType("string").
				WasmType(k.String()).
				Cause(err).
				Build()
		}
		vals.Set(i, v)
	}
	return vals.Move(), nil
}

func parseArg(k types.ValKind, s string) (runtime.Val, error) {
	s = strings.TrimSpace(s)
	switch k {
	case types.I32:
		n, err := strconv.ParseInt(s, 0, 32)
		return runtime.I32(int32(n)), err
	case types.I64:
		n, err := strconv.ParseInt(s, 0, 64)
		return runtime.I64(n), err
	case types.F32:
		f, err := strconv.ParseFloat(s, 32)
		return runtime.F32(float32(f)), err
	case types.F64:
		f, err := strconv.ParseFloat(s, 64)
		return runtime.F64(f), err
	}
	if s != "" && s != "null" {
		return runtime.NullRef(), fmt.Errorf("only null is accepted for %s, got %q", k, s)
	}
	if k == types.FuncRef {
		return runtime.FuncRefVal(nil), nil
	}
	return runtime.NullRef(), nil
}

func zeroVal(k types.ValKind) runtime.Val {
	switch k {
	case types.I32:
		return runtime.I32(0)
	case types.I64:
		return runtime.I64(0)
	case types.F32:
		return runtime.F32(0)
	case types.F64:
		return runtime.F64(0)
	case types.FuncRef:
		return runtime.FuncRefVal(nil)
	default:
		return runtime.NullRef()
	}
}

func joinKinds(kinds []types.ValKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = k.String()
	}
	return strings.Join(parts, ", ")
}

func joinVals(vals *runtime.Vals) string {
	parts := make([]string, 0, vals.Len())
	for _, v := range vals.All() {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, ", ")
}

func joinArgs(args []string) string {
	return strings.Join(args, ", ")
}
