package runtime

import (
	"github.com/tetratelabs/wazero/api"

	wasmembed "github.com/wippyai/wasm-embed"
	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/types"
	"github.com/wippyai/wasm-embed/wasm"
)

// PageSize is the size of a memory page in bytes.
const PageSize = 0x10000

var _ wasmembed.Memory = (*Memory)(nil)

// Memory is a handle to a host or wasm linear memory.
type Memory struct {
	externHeader
	m *memoryObject
}

type memoryObject struct {
	typ   *types.MemoryType
	wasm  api.Memory
	data  []byte
	limit uint32
}

func newMemoryHandle(obj *object, m *memoryObject) *Memory {
	h := &Memory{m: m}
	h.attachExtern(types.ExternMemory, obj, h)
	return h
}

// NewMemory creates a zeroed host memory with the minimum size of typ.
// Sizes are capped by the engine's MemoryLimitPages, and by MaxPages when
// that is unset; a larger minimum is an OutOfBounds error.
func NewMemory(store *Store, typ *types.MemoryType) (*Memory, error) {
	if err := store.checkOpen(errors.PhaseHost); err != nil {
		return nil, err
	}
	if typ == nil {
		return nil, errors.NilPointer(errors.PhaseHost, []string{"memory"}, "*types.MemoryType")
	}

	limit := uint32(wasm.MaxPages)
	if l := store.engine.Config().MemoryLimitPages; l > 0 {
		limit = l
	}
	lim := typ.Limits()
	if lim.Min > limit || lim.Min > lim.Max {
		return nil, errors.OutOfBounds(errors.PhaseHost, []string{"memory", "min"}, int(lim.Min), int(limit))
	}
	if lim.Max < limit {
		limit = lim.Max
	}

	obj := store.newObject()
	return newMemoryHandle(obj, &memoryObject{
		typ:   typ.Copy(),
		data:  make([]byte, int(lim.Min)*PageSize),
		limit: limit,
	}), nil
}

func (m *Memory) Memory() *Memory { return m }
func (m *Memory) Extern() Extern  { return m }

// Copy returns a new handle to the same memory.
func (m *Memory) Copy() *Memory {
	return newMemoryHandle(m.live(), m.m)
}

func (m *Memory) CopyRef() Ref       { return m.Copy() }
func (m *Memory) CopyExtern() Extern { return m.Copy() }

// Type returns the memory's type with its current size as minimum.
func (m *Memory) Type() types.ExternType {
	return m.MemoryType()
}

// MemoryType returns the memory's type with its current size as minimum.
func (m *Memory) MemoryType() *types.MemoryType {
	lim := m.m.typ.Limits()
	lim.Min = m.Size()
	return types.NewMemoryType(lim)
}

// Data returns a view of the memory's bytes. The view is invalidated by Grow.
func (m *Memory) Data() []byte {
	m.live()
	if m.m.wasm == nil {
		return m.m.data
	}
	buf, _ := m.m.wasm.Read(0, m.m.wasm.Size())
	return buf
}

// DataSize returns the memory's size in bytes.
func (m *Memory) DataSize() int {
	m.live()
	if m.m.wasm == nil {
		return len(m.m.data)
	}
	return int(m.m.wasm.Size())
}

// Size returns the memory's size in pages.
func (m *Memory) Size() uint32 {
	return uint32(m.DataSize() / PageSize)
}

// Grow adds delta zeroed pages and returns the previous size in pages.
// It reports false, leaving the memory unchanged, when the maximum would
// be exceeded.
func (m *Memory) Grow(delta uint32) (uint32, bool) {
	m.live()
	if m.m.wasm != nil {
		return m.m.wasm.Grow(delta)
	}

	old := m.Size()
	if uint64(old)+uint64(delta) > uint64(m.m.limit) {
		return old, false
	}
	m.m.data = append(m.m.data, make([]byte, int(delta)*PageSize)...)
	return old, true
}
