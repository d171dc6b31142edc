package wasmembed

import (
	"encoding/binary"

	"github.com/wippyai/wasm-embed/errors"
)

// Memory represents WASM linear memory
type Memory interface {
	MemorySizer
	// Data returns a live view of the memory. Grow invalidates it.
	Data() []byte
	// Grow adds delta pages and returns the previous size in pages.
	Grow(delta uint32) (uint32, bool)
}

// MemorySizer provides the current size of WASM linear memory.
type MemorySizer interface {
	DataSize() int
	Size() uint32
}

func bounds(m Memory, offset, length uint32) ([]byte, error) {
	data := m.Data()
	end := uint64(offset) + uint64(length)
	if end > uint64(len(data)) {
		return nil, errors.OutOfBounds(errors.PhaseCall, []string{"memory"}, int(end), len(data))
	}
	return data[offset:end], nil
}

// Read copies length bytes starting at offset.
func Read(m Memory, offset, length uint32) ([]byte, error) {
	b, err := bounds(m, offset, length)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// Write copies data into memory at offset.
func Write(m Memory, offset uint32, data []byte) error {
	b, err := bounds(m, offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

func ReadU8(m Memory, offset uint32) (uint8, error) {
	b, err := bounds(m, offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func ReadU16(m Memory, offset uint32) (uint16, error) {
	b, err := bounds(m, offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func ReadU32(m Memory, offset uint32) (uint32, error) {
	b, err := bounds(m, offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func ReadU64(m Memory, offset uint32) (uint64, error) {
	b, err := bounds(m, offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func WriteU8(m Memory, offset uint32, value uint8) error {
	b, err := bounds(m, offset, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

func WriteU16(m Memory, offset uint32, value uint16) error {
	b, err := bounds(m, offset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, value)
	return nil
}

func WriteU32(m Memory, offset uint32, value uint32) error {
	b, err := bounds(m, offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

func WriteU64(m Memory, offset uint32, value uint64) error {
	b, err := bounds(m, offset, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}
