package types

import (
	"fmt"
	"regexp"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-embed/errors"
)

var (
	sigPattern  = regexp.MustCompile(`^\s*func\s*\(([^)]*)\)(?:\s*->\s*(.+?))?\s*;?\s*$`)
	funcPattern = regexp.MustCompile(`(?:export\s+)?([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*(func\s*\([^)]*\)(?:\s*->\s*[^;]+)?)`)
)

// ParseFuncType converts a WIT function signature such as
// "func(a: s32, b: f64) -> u64" into a core wasm function type.
// Only WIT types with a single flat core representation are accepted.
func ParseFuncType(sig string) (*FuncType, error) {
	m := sigPattern.FindStringSubmatch(sig)
	if m == nil {
		return nil, errors.InvalidInput(errors.PhaseParse, fmt.Sprintf("not a function signature: %q", sig))
	}

	params, err := fieldKinds(m[1])
	if err != nil {
		return nil, err
	}
	res := strings.TrimSpace(m[2])
	if strings.HasPrefix(res, "(") && strings.HasSuffix(res, ")") {
		res = res[1 : len(res)-1]
	}
	results, err := fieldKinds(res)
	if err != nil {
		return nil, err
	}
	return FuncTypeOf(params, results), nil
}

// fieldKinds maps a comma separated list of types, each optionally
// prefixed with "name:", to core value kinds.
func fieldKinds(list string) ([]ValKind, error) {
	var out []ValKind
	for _, f := range splitList(list) {
		if idx := strings.LastIndex(f, ":"); idx != -1 {
			f = f[idx+1:]
		}
		k, err := witKind(f)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// ParseFuncTypes extracts every "name: func(...)" declaration from WIT text.
func ParseFuncTypes(witText string) (map[string]*FuncType, error) {
	out := make(map[string]*FuncType)
	for _, match := range funcPattern.FindAllStringSubmatch(witText, -1) {
		ft, err := ParseFuncType(match[2])
		if err != nil {
			for _, t := range out {
				t.Delete()
			}
			return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "function "+match[1])
		}
		out[match[1]] = ft
	}
	if len(out) == 0 {
		return nil, errors.InvalidInput(errors.PhaseParse, "no functions found in WIT text")
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func witKind(s string) (ValKind, error) {
	s = strings.TrimSpace(s)
	t, err := wit.ParseType(s)
	if err != nil {
		return 0, errors.ParseFailed("type "+s, err)
	}
	switch t.(type) {
	case wit.Bool, wit.S8, wit.U8, wit.S16, wit.U16, wit.S32, wit.U32, wit.Char:
		return I32, nil
	case wit.S64, wit.U64:
		return I64, nil
	case wit.F32:
		return F32, nil
	case wit.F64:
		return F64, nil
	}
	return 0, errors.New(errors.PhaseParse, errors.KindUnsupported).
		WasmType(s).
		Detail("no single core value type").
		Build()
}
