package mem

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dacapoday/flat"
)

// TestManagerTwoMemories tests that two virtual memories grow and
// store data independently over one physical memory.
func TestManagerTwoMemories(t *testing.T) {
	var inner Vec
	mgr, err := NewManager(&inner)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	a := mgr.Get(0)
	b := mgr.Get(1)

	if _, ok := a.Grow(1); !ok {
		t.Fatal("a.Grow refused")
	}
	if _, ok := b.Grow(1); !ok {
		t.Fatal("b.Grow refused")
	}

	a.Write(0, []byte("alpha"))
	b.Write(0, []byte("bravo"))

	got := make([]byte, 5)
	a.Read(0, got)
	if string(got) != "alpha" {
		t.Fatalf("a.Read = %q, want %q", got, "alpha")
	}
	b.Read(0, got)
	if string(got) != "bravo" {
		t.Fatalf("b.Read = %q, want %q", got, "bravo")
	}

	t.Logf("✓ two virtual memories isolated, inner holds %d pages", inner.Size())
}

// TestManagerBucketSpanning tests access across a bucket boundary.
func TestManagerBucketSpanning(t *testing.T) {
	var inner Vec
	mgr, err := NewManager(&inner)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	v := mgr.Get(7)
	pages := mgr.BucketPages() + 2 // forces a second bucket
	if _, ok := v.Grow(pages); !ok {
		t.Fatal("Grow refused")
	}

	src := make([]byte, 4096)
	for i := range src {
		src[i] = byte(i % 249)
	}
	off := mgr.BucketPages()<<pageShift - 100 // straddles the bucket edge
	v.Write(off, src)

	dst := make([]byte, len(src))
	v.Read(off, dst)
	if !bytes.Equal(dst, src) {
		t.Fatal("read back mismatch across bucket boundary")
	}

	t.Logf("✓ access straddles buckets: %d bytes at offset %d", len(src), off)
}

// TestManagerReload tests that virtual memories survive reloading the
// manager from the same physical memory.
func TestManagerReload(t *testing.T) {
	var inner Vec

	mgr, err := NewManager(&inner)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	a := mgr.Get(3)
	a.Grow(2)
	a.Write(flat.PageSize, []byte("restart"))

	mgr2, err := NewManager(&inner)
	if err != nil {
		t.Fatalf("NewManager reload: %v", err)
	}
	a2 := mgr2.Get(3)
	if size := a2.Size(); size != 2 {
		t.Fatalf("Size after reload = %d, want 2", size)
	}

	got := make([]byte, 7)
	a2.Read(flat.PageSize, got)
	if string(got) != "restart" {
		t.Fatalf("Read after reload = %q, want %q", got, "restart")
	}

	t.Log("✓ manager reloaded from the owner table")
}

// TestManagerHighestID tests that the highest usable id survives a
// reload and that the reserved id is refused.
func TestManagerHighestID(t *testing.T) {
	var inner Vec

	mgr, err := NewManager(&inner)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	hi := mgr.Get(254)
	if _, ok := hi.Grow(1); !ok {
		t.Fatal("Grow refused")
	}
	hi.Write(0, []byte("last id"))

	mgr2, err := NewManager(&inner)
	if err != nil {
		t.Fatalf("NewManager reload: %v", err)
	}
	hi2 := mgr2.Get(254)
	if size := hi2.Size(); size != 1 {
		t.Fatalf("Size after reload = %d, want 1", size)
	}
	got := make([]byte, 7)
	hi2.Read(0, got)
	if string(got) != "last id" {
		t.Fatalf("Read after reload = %q, want %q", got, "last id")
	}

	// a fresh grow must take a new bucket, not the one owned by 254
	other := mgr2.Get(9)
	if _, ok := other.Grow(1); !ok {
		t.Fatal("other.Grow refused")
	}
	other.Write(0, []byte("fresh"))
	hi2.Read(0, got)
	if string(got) != "last id" {
		t.Fatalf("bucket reused after reload: %q", got)
	}

	defer func() {
		if r := recover(); r != flat.ErrOutOfRange {
			t.Fatalf("recover = %v, want ErrOutOfRange", r)
		}
		t.Log("✓ id 254 reloads intact, id 255 reserved")
	}()
	mgr2.Get(255)
}

// TestManagerForeignMagic tests that a region with a foreign magic
// code is refused.
func TestManagerForeignMagic(t *testing.T) {
	var inner Vec
	inner.Grow(1)
	inner.Write(0, []byte("XXXX"))

	_, err := NewManager(&inner)
	if !errors.Is(err, flat.ErrUnknownMagicCode) {
		t.Fatalf("NewManager = %v, want ErrUnknownMagicCode", err)
	}

	t.Log("✓ foreign region refused")
}
