package wasm

import (
	"errors"
	"fmt"
	"io"

	"github.com/wippyai/wasm-embed/wasm/internal/binary"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
)

// ParseModule decodes the descriptor sections of a binary module. Function
// bodies are split into locals and code but not decoded further.
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}
	version, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{}
	var last int
	for {
		id, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, r.WrapError("section header", err)
		}

		if id != SectionCustom {
			order := sectionOrder(id)
			if order == 0 {
				return nil, fmt.Errorf("unknown section ID: 0x%02x", id)
			}
			if order <= last {
				return nil, fmt.Errorf("section %d appears out of order", id)
			}
			last = order
		}

		size, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}
		body, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, r.WrapError("section data", err)
		}

		sr := binary.NewReader(body)
		if err := parseSection(sr, id, m); err != nil {
			return nil, sr.WrapError(sectionName(id), err)
		}
		if sr.Len() != 0 && id != SectionCustom {
			return nil, sr.WrapError(sectionName(id), errors.New("section size mismatch"))
		}
	}

	return m, nil
}

func parseSection(r *binary.Reader, id byte, m *Module) error {
	switch id {
	case SectionCustom:
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		m.Custom = append(m.Custom, CustomSection{Name: name, Data: r.ReadRemaining()})
		return nil
	case SectionType:
		return parseVector(r, func() error {
			ft, err := readFuncType(r)
			m.Types = append(m.Types, ft)
			return err
		})
	case SectionImport:
		return parseVector(r, func() error {
			imp, err := readImport(r)
			m.Imports = append(m.Imports, imp)
			return err
		})
	case SectionFunction:
		return parseVector(r, func() error {
			idx, err := r.ReadU32()
			m.Funcs = append(m.Funcs, idx)
			return err
		})
	case SectionTable:
		return parseVector(r, func() error {
			t, err := readTableType(r)
			m.Tables = append(m.Tables, t)
			return err
		})
	case SectionMemory:
		return parseVector(r, func() error {
			l, err := readLimits(r)
			m.Memories = append(m.Memories, MemoryType{Limits: l})
			return err
		})
	case SectionGlobal:
		return parseVector(r, func() error {
			gt, err := readGlobalType(r)
			if err != nil {
				return err
			}
			init, err := readConstExpr(r)
			m.Globals = append(m.Globals, Global{Type: gt, Init: init})
			return err
		})
	case SectionExport:
		return parseVector(r, func() error {
			e, err := readExport(r)
			m.Exports = append(m.Exports, e)
			return err
		})
	case SectionStart:
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Start = &idx
		return nil
	case SectionCode:
		return parseVector(r, func() error {
			body, err := readFuncBody(r)
			m.Code = append(m.Code, body)
			return err
		})
	default:
		m.Raw = append(m.Raw, RawSection{ID: id, Data: r.ReadRemaining()})
		return nil
	}
}

func parseVector(r *binary.Reader, item func() error) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	if int(count) > r.Len() {
		return fmt.Errorf("vector length %d exceeds section size", count)
	}
	for i := uint32(0); i < count; i++ {
		if err := item(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// sectionOrder returns the position a non-custom section must appear at,
// or 0 for unknown IDs. Data count precedes code despite its higher ID.
func sectionOrder(id byte) int {
	switch id {
	case SectionDataCount:
		return int(SectionElement) + 1
	case SectionCode, SectionData:
		return int(id) + 1
	}
	if id >= SectionType && id <= SectionElement {
		return int(id)
	}
	return 0
}

func sectionName(id byte) string {
	names := [...]string{
		"custom", "type", "import", "function", "table", "memory",
		"global", "export", "start", "element", "code", "data", "data count",
	}
	if int(id) < len(names) {
		return names[id] + " section"
	}
	return fmt.Sprintf("section 0x%02x", id)
}

func readValType(r *binary.Reader) (ValType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch v := ValType(b); v {
	case ValI32, ValI64, ValF32, ValF64, ValFuncRef, ValExtern:
		return v, nil
	}
	return 0, fmt.Errorf("unsupported value type 0x%02x", b)
}

func readValTypes(r *binary.Reader) ([]ValType, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if int(n) > r.Len() {
		return nil, fmt.Errorf("value type count %d exceeds section size", n)
	}
	out := make([]ValType, n)
	for i := range out {
		if out[i], err = readValType(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readFuncType(r *binary.Reader) (FuncType, error) {
	form, err := r.ReadByte()
	if err != nil {
		return FuncType{}, err
	}
	if form != FuncTypeByte {
		return FuncType{}, fmt.Errorf("unsupported type form 0x%02x", form)
	}
	params, err := readValTypes(r)
	if err != nil {
		return FuncType{}, err
	}
	results, err := readValTypes(r)
	if err != nil {
		return FuncType{}, err
	}
	return FuncType{Params: params, Results: results}, nil
}

func readImport(r *binary.Reader) (Import, error) {
	module, err := r.ReadName()
	if err != nil {
		return Import{}, err
	}
	name, err := r.ReadName()
	if err != nil {
		return Import{}, err
	}
	kind, err := r.ReadByte()
	if err != nil {
		return Import{}, err
	}

	imp := Import{Module: module, Name: name, Desc: ImportDesc{Kind: kind}}
	switch kind {
	case KindFunc:
		imp.Desc.TypeIdx, err = r.ReadU32()
	case KindTable:
		var t TableType
		t, err = readTableType(r)
		imp.Desc.Table = &t
	case KindMemory:
		var l Limits
		l, err = readLimits(r)
		imp.Desc.Memory = &MemoryType{Limits: l}
	case KindGlobal:
		var g GlobalType
		g, err = readGlobalType(r)
		imp.Desc.Global = &g
	default:
		return Import{}, fmt.Errorf("unknown import kind: %d", kind)
	}
	return imp, err
}

func readExport(r *binary.Reader) (Export, error) {
	name, err := r.ReadName()
	if err != nil {
		return Export{}, err
	}
	kind, err := r.ReadByte()
	if err != nil {
		return Export{}, err
	}
	if kind > KindGlobal {
		return Export{}, fmt.Errorf("invalid export kind: 0x%02x", kind)
	}
	idx, err := r.ReadU32()
	if err != nil {
		return Export{}, err
	}
	return Export{Name: name, Kind: kind, Idx: idx}, nil
}

func readLimits(r *binary.Reader) (Limits, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return Limits{}, err
	}
	if flags&^LimitsHasMax != 0 {
		return Limits{}, fmt.Errorf("unsupported limits flags 0x%02x", flags)
	}
	var l Limits
	if l.Min, err = r.ReadU32(); err != nil {
		return Limits{}, err
	}
	if flags&LimitsHasMax != 0 {
		hi, err := r.ReadU32()
		if err != nil {
			return Limits{}, err
		}
		if l.Min > hi {
			return Limits{}, fmt.Errorf("limits min (%d) exceeds max (%d)", l.Min, hi)
		}
		l.Max = &hi
	}
	return l, nil
}

func readTableType(r *binary.Reader) (TableType, error) {
	elem, err := readValType(r)
	if err != nil {
		return TableType{}, err
	}
	if !elem.IsRef() {
		return TableType{}, fmt.Errorf("table element type %s is not a reference", elem)
	}
	l, err := readLimits(r)
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: elem, Limits: l}, nil
}

func readGlobalType(r *binary.Reader) (GlobalType, error) {
	vt, err := readValType(r)
	if err != nil {
		return GlobalType{}, err
	}
	mut, err := r.ReadByte()
	if err != nil {
		return GlobalType{}, err
	}
	if mut > 1 {
		return GlobalType{}, fmt.Errorf("invalid mutability 0x%02x", mut)
	}
	return GlobalType{ValType: vt, Mutable: mut == 1}, nil
}

// readConstExpr copies a constant expression up to and including its end opcode.
func readConstExpr(r *binary.Reader) ([]byte, error) {
	start := r.Position()
	for {
		op, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch op {
		case OpEnd:
			return append([]byte(nil), r.Since(start)...), nil
		case OpI32Const:
			_, err = r.ReadS32()
		case OpI64Const:
			_, err = r.ReadS64()
		case OpF32Const:
			_, err = r.ReadBytes(4)
		case OpF64Const:
			_, err = r.ReadBytes(8)
		case OpGlobalGet, OpRefFunc:
			_, err = r.ReadU32()
		case OpRefNull:
			_, err = r.ReadByte()
		default:
			return nil, fmt.Errorf("unsupported opcode 0x%02x in constant expression", op)
		}
		if err != nil {
			return nil, err
		}
	}
}

func readFuncBody(r *binary.Reader) (FuncBody, error) {
	size, err := r.ReadU32()
	if err != nil {
		return FuncBody{}, err
	}
	data, err := r.ReadBytes(int(size))
	if err != nil {
		return FuncBody{}, err
	}

	br := binary.NewReader(data)
	var locals []LocalEntry
	err = parseVector(br, func() error {
		n, err := br.ReadU32()
		if err != nil {
			return err
		}
		vt, err := readValType(br)
		locals = append(locals, LocalEntry{Count: n, ValType: vt})
		return err
	})
	if err != nil {
		return FuncBody{}, err
	}
	return FuncBody{Locals: locals, Code: br.ReadRemaining()}, nil
}
