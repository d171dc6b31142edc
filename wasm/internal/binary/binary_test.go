package binary

import (
	"errors"
	"io"
	"math"
	"testing"
)

func TestU32_RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 300, 1 << 21, math.MaxUint32} {
		w := NewWriter()
		w.WriteU32(v)
		got, err := NewReader(w.Bytes()).ReadU32()
		if err != nil || got != v {
			t.Errorf("ReadU32 = %d, %v; want %d", got, err, v)
		}
	}
}

func TestS32_RoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 63, -64, 64, -65, math.MaxInt32, math.MinInt32} {
		w := NewWriter()
		w.WriteS32(v)
		got, err := NewReader(w.Bytes()).ReadS32()
		if err != nil || got != v {
			t.Errorf("ReadS32 = %d, %v; want %d", got, err, v)
		}
	}
}

func TestS64_RoundTrip(t *testing.T) {
	for _, v := range []int64{0, -1, 1 << 40, -(1 << 40), math.MaxInt64, math.MinInt64} {
		w := NewWriter()
		w.WriteS64(v)
		got, err := NewReader(w.Bytes()).ReadS64()
		if err != nil || got != v {
			t.Errorf("ReadS64 = %d, %v; want %d", got, err, v)
		}
	}
}

func TestU32_Overflow(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"six bytes", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
		{"high bits in last byte", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x1F}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(tt.data).ReadU32()
			if !errors.Is(err, ErrOverflow) {
				t.Errorf("expected overflow, got %v", err)
			}
		})
	}
}

func TestReader_EOF(t *testing.T) {
	r := NewReader([]byte{0x80})
	if _, err := r.ReadU32(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
	if _, err := NewReader([]byte{1, 2}).ReadBytes(3); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected unexpected EOF, got %v", err)
	}
}

func TestName(t *testing.T) {
	w := NewWriter()
	w.WriteName("memory")
	w.Byte(0xAA)

	r := NewReader(w.Bytes())
	name, err := r.ReadName()
	if err != nil || name != "memory" {
		t.Fatalf("ReadName = %q, %v", name, err)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 byte left, got %d", r.Len())
	}

	if _, err := NewReader([]byte{2, 0xC3, 0x28}).ReadName(); err == nil {
		t.Error("invalid UTF-8 should fail")
	}
}

func TestFloats(t *testing.T) {
	w := NewWriter()
	w.WriteF32(1.25)
	w.WriteF64(-2.5)
	r := NewReader(w.Bytes())
	f32, err := r.ReadF32()
	if err != nil || f32 != 1.25 {
		t.Errorf("ReadF32 = %v, %v", f32, err)
	}
	f64, err := r.ReadF64()
	if err != nil || f64 != -2.5 {
		t.Errorf("ReadF64 = %v, %v", f64, err)
	}
}

func TestParseError(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	_, _ = r.ReadBytes(2)
	err := r.WrapError("import section", io.EOF)

	var pe *ParseError
	if !errors.As(err, &pe) || pe.Position != 2 {
		t.Fatalf("expected ParseError at 2, got %v", err)
	}
	if !errors.Is(err, io.EOF) {
		t.Error("ParseError should unwrap to its cause")
	}
	if err.Error() != "wasm: import section at position 2: EOF" {
		t.Errorf("got %q", err.Error())
	}
}
