package wasm

import "fmt"

// Validate checks the index spaces and export table of a decoded module.
// It does not type-check function bodies; the engine does that on compile.
func (m *Module) Validate() error {
	numTypes := uint32(len(m.Types))
	for i, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc && imp.Desc.TypeIdx >= numTypes {
			return fmt.Errorf("import %d (%s.%s) references invalid type index %d", i, imp.Module, imp.Name, imp.Desc.TypeIdx)
		}
	}
	for i, idx := range m.Funcs {
		if idx >= numTypes {
			return fmt.Errorf("function %d references invalid type index %d", i, idx)
		}
	}
	if len(m.Funcs) != len(m.Code) {
		return fmt.Errorf("function count %d does not match code count %d", len(m.Funcs), len(m.Code))
	}

	seen := make(map[string]struct{}, len(m.Exports))
	for _, e := range m.Exports {
		if _, dup := seen[e.Name]; dup {
			return fmt.Errorf("duplicate export name %q", e.Name)
		}
		seen[e.Name] = struct{}{}

		var ok bool
		switch e.Kind {
		case KindFunc:
			_, ok = m.FuncTypeAt(e.Idx)
		case KindTable:
			_, ok = m.TableAt(e.Idx)
		case KindMemory:
			_, ok = m.MemoryAt(e.Idx)
		case KindGlobal:
			_, ok = m.GlobalAt(e.Idx)
		}
		if !ok {
			return fmt.Errorf("export %q references invalid index %d", e.Name, e.Idx)
		}
	}

	if m.Start != nil {
		ft, ok := m.FuncTypeAt(*m.Start)
		if !ok {
			return fmt.Errorf("start function %d does not exist", *m.Start)
		}
		if len(ft.Params) != 0 || len(ft.Results) != 0 {
			return fmt.Errorf("start function %d must have type [] -> []", *m.Start)
		}
	}

	if len(m.Memories)+m.NumImported(KindMemory) > 1 {
		return fmt.Errorf("multiple memories are not supported")
	}
	for i, mem := range m.Memories {
		if mem.Limits.Min > MaxPages || (mem.Limits.Max != nil && *mem.Limits.Max > MaxPages) {
			return fmt.Errorf("memory %d limits exceed %d pages", i, MaxPages)
		}
	}
	return nil
}

// ParseModuleValidate parses and validates a binary module.
func ParseModuleValidate(data []byte) (*Module, error) {
	m, err := ParseModule(data)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
