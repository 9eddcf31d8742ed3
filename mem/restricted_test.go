package mem

import (
	"bytes"
	"testing"

	"github.com/dacapoday/flat"
)

// TestRestrictedWindow tests offset shifting and size clamping.
func TestRestrictedWindow(t *testing.T) {
	var inner Vec
	inner.Grow(4)

	r := Restrict(&inner, 1, 3)
	if size := r.Size(); size != 2 {
		t.Fatalf("Size = %d, want 2", size)
	}

	src := []byte("window")
	r.Write(10, src)

	got := make([]byte, len(src))
	inner.Read(flat.PageSize+10, got)
	if !bytes.Equal(got, src) {
		t.Fatalf("inner read = %q, want %q", got, src)
	}

	got = make([]byte, len(src))
	r.Read(10, got)
	if !bytes.Equal(got, src) {
		t.Fatalf("window read = %q, want %q", got, src)
	}

	t.Log("✓ window offsets shift by the start page")
}

// TestRestrictedGrow tests growth through the window and refusal at
// the window limit.
func TestRestrictedGrow(t *testing.T) {
	var inner Vec
	r := Restrict(&inner, 2, 5)

	if size := r.Size(); size != 0 {
		t.Fatalf("Size = %d, want 0", size)
	}

	prev, ok := r.Grow(3)
	if !ok || prev != 0 {
		t.Fatalf("Grow(3) = (%d, %v), want (0, true)", prev, ok)
	}
	if size := inner.Size(); size != 5 {
		t.Fatalf("inner Size = %d, want 5", size)
	}

	if _, ok := r.Grow(1); ok {
		t.Fatal("Grow(1) allowed past the window")
	}

	t.Logf("✓ window grew inner to %d pages and refused past the limit", inner.Size())
}
