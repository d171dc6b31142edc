package wasm

// Binary format header.
const (
	// Magic is "\0asm" read as a little-endian uint32.
	Magic uint32 = 0x6D736100

	// Version is the supported binary format version.
	Version uint32 = 0x01
)

// Section IDs.
const (
	SectionCustom    byte = 0
	SectionType      byte = 1
	SectionImport    byte = 2
	SectionFunction  byte = 3
	SectionTable     byte = 4
	SectionMemory    byte = 5
	SectionGlobal    byte = 6
	SectionExport    byte = 7
	SectionStart     byte = 8
	SectionElement   byte = 9
	SectionCode      byte = 10
	SectionData      byte = 11
	SectionDataCount byte = 12
)

// Import and export descriptor kinds.
const (
	KindFunc   byte = 0
	KindTable  byte = 1
	KindMemory byte = 2
	KindGlobal byte = 3
)

// Value type encodings.
const (
	ValI32     ValType = 0x7F
	ValI64     ValType = 0x7E
	ValF32     ValType = 0x7D
	ValF64     ValType = 0x7C
	ValFuncRef ValType = 0x70
	ValExtern  ValType = 0x6F
)

// MaxPages is the largest 32-bit memory size in 64 KiB pages.
const MaxPages = 65536

// MaxTableElems is the largest number of elements a host table may hold.
const MaxTableElems = 10_000_000

// FuncTypeByte prefixes every function type in the type section.
const FuncTypeByte byte = 0x60

// Limits flags.
const (
	LimitsHasMax byte = 0x01
)

// Opcodes used by constant expressions and by hand-assembled bodies.
const (
	OpUnreachable byte = 0x00
	OpNop         byte = 0x01
	OpEnd         byte = 0x0B
	OpCall        byte = 0x10
	OpDrop        byte = 0x1A
	OpLocalGet    byte = 0x20
	OpLocalSet    byte = 0x21
	OpGlobalGet   byte = 0x23
	OpGlobalSet   byte = 0x24
	OpTableGet    byte = 0x25
	OpTableSet    byte = 0x26
	OpI32Load     byte = 0x28
	OpI32Store    byte = 0x36
	OpMemorySize  byte = 0x3F
	OpMemoryGrow  byte = 0x40
	OpI32Const    byte = 0x41
	OpI64Const    byte = 0x42
	OpF32Const    byte = 0x43
	OpF64Const    byte = 0x44
	OpI32Add      byte = 0x6A
	OpI32Mul      byte = 0x6C
	OpI64Add      byte = 0x7C
	OpF32Add      byte = 0x92
	OpF64Add      byte = 0xA0
	OpRefNull     byte = 0xD0
	OpRefIsNull   byte = 0xD1
	OpRefFunc     byte = 0xD2
)
