package resource

import (
	"errors"
	"sync"
	"testing"
)

func TestLocalBackend_Basic(t *testing.T) {
	b := NewLocalBackend()

	handle, err := b.Create(1, "test value")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if handle == 0 {
		t.Fatal("expected non-zero handle")
	}

	if k, ok := b.Kind(handle); !ok || k != 1 {
		t.Errorf("Kind = %d, %v", k, ok)
	}

	val, ok := b.Drop(handle)
	if !ok || val != "test value" {
		t.Fatalf("Drop = %v, %v", val, ok)
	}
	if _, ok := b.Get(handle); ok {
		t.Error("Get should fail after Drop")
	}
}

func TestLocalBackend_InvalidHandles(t *testing.T) {
	b := NewLocalBackend()
	for _, h := range []Handle{0, 1, 100} {
		if _, ok := b.Get(h); ok {
			t.Errorf("Get(%d) should fail", h)
		}
		if _, ok := b.Drop(h); ok {
			t.Errorf("Drop(%d) should fail", h)
		}
	}
}

func TestLocalBackend_HandleReuse(t *testing.T) {
	b := NewLocalBackend()
	h1, _ := b.Create(1, "a")
	h2, _ := b.Create(1, "b")
	b.Drop(h1)

	h3, _ := b.Create(2, "c")
	if h3 != h1 {
		t.Errorf("expected freed handle %d to be reused, got %d", h1, h3)
	}
	if b.Len() != 2 {
		t.Errorf("expected 2 live entries, got %d", b.Len())
	}

	var seen []Handle
	b.Each(func(h Handle, _ Kind, _ any) bool {
		seen = append(seen, h)
		return true
	})
	if len(seen) != 2 || seen[0] != h3 || seen[1] != h2 {
		t.Errorf("Each visited %v", seen)
	}
}

func TestLocalBackend_Closed(t *testing.T) {
	b := NewLocalBackend()
	b.Create(1, "a")
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, err := b.Create(1, "b"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("closed backend has %d entries", b.Len())
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend()
	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)
		go func(kind Kind) {
			defer wg.Done()
			for range 100 {
				h, err := b.Create(kind, nil)
				if err != nil {
					t.Error(err)
					return
				}
				b.Drop(h)
			}
		}(Kind(i))
	}
	wg.Wait()

	if b.Len() != 0 {
		t.Errorf("expected no live entries, got %d", b.Len())
	}
}
