package wasm

import (
	"github.com/wippyai/wasm-embed/wasm/internal/binary"
)

// Encode produces the binary form of the module. Raw sections are emitted
// at their canonical position and custom sections at the end.
func (m *Module) Encode() []byte {
	w := binary.NewWriter()
	w.WriteU32LE(Magic)
	w.WriteU32LE(Version)

	if len(m.Types) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Types)))
		for _, ft := range m.Types {
			sec.Byte(FuncTypeByte)
			writeValTypes(sec, ft.Params)
			writeValTypes(sec, ft.Results)
		}
		writeSection(w, SectionType, sec.Bytes())
	}

	if len(m.Imports) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Imports)))
		for _, imp := range m.Imports {
			sec.WriteName(imp.Module)
			sec.WriteName(imp.Name)
			sec.Byte(imp.Desc.Kind)
			switch imp.Desc.Kind {
			case KindFunc:
				sec.WriteU32(imp.Desc.TypeIdx)
			case KindTable:
				writeTableType(sec, *imp.Desc.Table)
			case KindMemory:
				writeLimits(sec, imp.Desc.Memory.Limits)
			case KindGlobal:
				writeGlobalType(sec, *imp.Desc.Global)
			}
		}
		writeSection(w, SectionImport, sec.Bytes())
	}

	if len(m.Funcs) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Funcs)))
		for _, idx := range m.Funcs {
			sec.WriteU32(idx)
		}
		writeSection(w, SectionFunction, sec.Bytes())
	}

	if len(m.Tables) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Tables)))
		for _, t := range m.Tables {
			writeTableType(sec, t)
		}
		writeSection(w, SectionTable, sec.Bytes())
	}

	if len(m.Memories) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Memories)))
		for _, mem := range m.Memories {
			writeLimits(sec, mem.Limits)
		}
		writeSection(w, SectionMemory, sec.Bytes())
	}

	if len(m.Globals) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Globals)))
		for _, g := range m.Globals {
			writeGlobalType(sec, g.Type)
			sec.WriteBytes(g.Init)
		}
		writeSection(w, SectionGlobal, sec.Bytes())
	}

	if len(m.Exports) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Exports)))
		for _, e := range m.Exports {
			sec.WriteName(e.Name)
			sec.Byte(e.Kind)
			sec.WriteU32(e.Idx)
		}
		writeSection(w, SectionExport, sec.Bytes())
	}

	if m.Start != nil {
		sec := binary.NewWriter()
		sec.WriteU32(*m.Start)
		writeSection(w, SectionStart, sec.Bytes())
	}

	m.writeRaw(w, SectionElement)
	m.writeRaw(w, SectionDataCount)

	if len(m.Code) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Code)))
		for _, body := range m.Code {
			b := binary.NewWriter()
			b.WriteU32(uint32(len(body.Locals)))
			for _, l := range body.Locals {
				b.WriteU32(l.Count)
				b.Byte(byte(l.ValType))
			}
			b.WriteBytes(body.Code)
			sec.WriteU32(uint32(b.Len()))
			sec.WriteBytes(b.Bytes())
		}
		writeSection(w, SectionCode, sec.Bytes())
	}

	m.writeRaw(w, SectionData)

	for _, c := range m.Custom {
		sec := binary.NewWriter()
		sec.WriteName(c.Name)
		sec.WriteBytes(c.Data)
		writeSection(w, SectionCustom, sec.Bytes())
	}

	return w.Bytes()
}

func (m *Module) writeRaw(w *binary.Writer, id byte) {
	for _, s := range m.Raw {
		if s.ID == id {
			writeSection(w, id, s.Data)
		}
	}
}

func writeSection(w *binary.Writer, id byte, data []byte) {
	w.Byte(id)
	w.WriteU32(uint32(len(data)))
	w.WriteBytes(data)
}

func writeValTypes(w *binary.Writer, types []ValType) {
	w.WriteU32(uint32(len(types)))
	for _, t := range types {
		w.Byte(byte(t))
	}
}

func writeLimits(w *binary.Writer, l Limits) {
	if l.Max == nil {
		w.Byte(0)
		w.WriteU32(l.Min)
		return
	}
	w.Byte(LimitsHasMax)
	w.WriteU32(l.Min)
	w.WriteU32(*l.Max)
}

func writeTableType(w *binary.Writer, t TableType) {
	w.Byte(byte(t.ElemType))
	writeLimits(w, t.Limits)
}

func writeGlobalType(w *binary.Writer, g GlobalType) {
	w.Byte(byte(g.ValType))
	if g.Mutable {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
}

// ConstI32 encodes an i32.const constant expression.
func ConstI32(v int32) []byte {
	w := binary.NewWriter()
	w.Byte(OpI32Const)
	w.WriteS32(v)
	w.Byte(OpEnd)
	return w.Bytes()
}

// ConstI64 encodes an i64.const constant expression.
func ConstI64(v int64) []byte {
	w := binary.NewWriter()
	w.Byte(OpI64Const)
	w.WriteS64(v)
	w.Byte(OpEnd)
	return w.Bytes()
}

// ConstF32 encodes an f32.const constant expression.
func ConstF32(v float32) []byte {
	w := binary.NewWriter()
	w.Byte(OpF32Const)
	w.WriteF32(v)
	w.Byte(OpEnd)
	return w.Bytes()
}

// ConstF64 encodes an f64.const constant expression.
func ConstF64(v float64) []byte {
	w := binary.NewWriter()
	w.Byte(OpF64Const)
	w.WriteF64(v)
	w.Byte(OpEnd)
	return w.Bytes()
}

// ConstNull encodes a ref.null constant expression.
func ConstNull(t ValType) []byte {
	return []byte{OpRefNull, byte(t), OpEnd}
}

// AppendU32 appends the LEB128 encoding of v to code, for assembling
// instruction immediates.
func AppendU32(code []byte, v uint32) []byte {
	w := binary.NewWriter()
	w.WriteU32(v)
	return append(code, w.Bytes()...)
}

// AppendS32 appends the signed LEB128 encoding of v to code.
func AppendS32(code []byte, v int32) []byte {
	w := binary.NewWriter()
	w.WriteS32(v)
	return append(code, w.Bytes()...)
}
