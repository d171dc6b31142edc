package wasm

// Module is the descriptor view of a binary module: everything needed to
// enumerate imports and exports and to re-encode the module. Sections that
// carry no descriptor information are kept verbatim in Raw.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // type index per defined function
	Tables   []TableType
	Memories []MemoryType
	Globals  []Global
	Exports  []Export
	Start    *uint32
	Code     []FuncBody
	Raw      []RawSection
	Custom   []CustomSection
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// ValType is a value type byte.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValFuncRef:
		return "funcref"
	case ValExtern:
		return "externref"
	default:
		return "unknown"
	}
}

// IsRef reports whether v is a reference type.
func (v ValType) IsRef() bool {
	return v == ValFuncRef || v == ValExtern
}

// Import is one entry of the import section.
type Import struct {
	Desc   ImportDesc
	Module string
	Name   string
}

// ImportDesc describes what is imported. Kind is one of the Kind* constants
// and selects which of the other fields is meaningful.
type ImportDesc struct {
	Table   *TableType
	Memory  *MemoryType
	Global  *GlobalType
	TypeIdx uint32
	Kind    byte
}

// Limits of a table or memory. A nil Max means unbounded.
type Limits struct {
	Max *uint32
	Min uint32
}

type TableType struct {
	Limits   Limits
	ElemType ValType
}

type MemoryType struct {
	Limits Limits
}

type GlobalType struct {
	ValType ValType
	Mutable bool
}

// Global is a defined global with its constant initializer, including the
// trailing end opcode.
type Global struct {
	Init []byte
	Type GlobalType
}

// Export is one entry of the export section.
type Export struct {
	Name string
	Idx  uint32
	Kind byte
}

// FuncBody is a function body. Code excludes the local declarations and
// ends with OpEnd.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte
}

// LocalEntry declares Count locals of one type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// RawSection is a section the decoder does not interpret.
type RawSection struct {
	Data []byte
	ID   byte
}

type CustomSection struct {
	Name string
	Data []byte
}

// NumImported counts imports of the given kind. Imported entities precede
// defined ones in their index space.
func (m *Module) NumImported(kind byte) int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == kind {
			n++
		}
	}
	return n
}

func (m *Module) importedAt(kind byte, idx uint32) (ImportDesc, bool) {
	var n uint32
	for _, imp := range m.Imports {
		if imp.Desc.Kind != kind {
			continue
		}
		if n == idx {
			return imp.Desc, true
		}
		n++
	}
	return ImportDesc{}, false
}

// FuncTypeAt resolves the signature of function idx in the function index space.
func (m *Module) FuncTypeAt(idx uint32) (*FuncType, bool) {
	typeIdx, ok := uint32(0), false
	if d, found := m.importedAt(KindFunc, idx); found {
		typeIdx, ok = d.TypeIdx, true
	} else if local := int(idx) - m.NumImported(KindFunc); local >= 0 && local < len(m.Funcs) {
		typeIdx, ok = m.Funcs[local], true
	}
	if !ok || int(typeIdx) >= len(m.Types) {
		return nil, false
	}
	return &m.Types[typeIdx], true
}

// TableAt resolves table idx in the table index space.
func (m *Module) TableAt(idx uint32) (*TableType, bool) {
	if d, found := m.importedAt(KindTable, idx); found {
		return d.Table, d.Table != nil
	}
	local := int(idx) - m.NumImported(KindTable)
	if local < 0 || local >= len(m.Tables) {
		return nil, false
	}
	return &m.Tables[local], true
}

// MemoryAt resolves memory idx in the memory index space.
func (m *Module) MemoryAt(idx uint32) (*MemoryType, bool) {
	if d, found := m.importedAt(KindMemory, idx); found {
		return d.Memory, d.Memory != nil
	}
	local := int(idx) - m.NumImported(KindMemory)
	if local < 0 || local >= len(m.Memories) {
		return nil, false
	}
	return &m.Memories[local], true
}

// GlobalAt resolves global idx in the global index space.
func (m *Module) GlobalAt(idx uint32) (*GlobalType, bool) {
	if d, found := m.importedAt(KindGlobal, idx); found {
		return d.Global, d.Global != nil
	}
	local := int(idx) - m.NumImported(KindGlobal)
	if local < 0 || local >= len(m.Globals) {
		return nil, false
	}
	return &m.Globals[local].Type, true
}
