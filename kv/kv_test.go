package kv

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"testing"

	"github.com/go-faker/faker/v4"
)

func open(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.kv"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestKVSetGet tests basic Set and Get operations.
// Sets a single key-value pair and reads it back.
func TestKVSetGet(t *testing.T) {
	db := open(t)

	key := []byte("hello")
	val := []byte("world")

	err := db.Set(key, val)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if !bytes.Equal(got, val) {
		t.Fatalf("Get = %q, want %q", got, val)
	}

	t.Logf("✓ Set and Get: key=%q val=%q", key, val)
}

// TestKVSetGetMultiple tests multiple key-value pairs.
// Sets 100 keys with sequential values and reads them back.
func TestKVSetGetMultiple(t *testing.T) {
	db := open(t)

	count := 100
	for i := range count {
		key := fmt.Appendf(nil, "key-%03d", i)
		val := fmt.Appendf(nil, "value-%03d", i)

		if err := db.Set(key, val); err != nil {
			t.Fatalf("Set[%d]: %v", i, err)
		}
	}
	if db.Len() != uint64(count) {
		t.Fatalf("Len = %d, want %d", db.Len(), count)
	}

	for i := range count {
		key := fmt.Appendf(nil, "key-%03d", i)
		expected := fmt.Appendf(nil, "value-%03d", i)

		got, err := db.Get(key)
		if err != nil {
			t.Fatalf("Get[%d]: %v", i, err)
		}

		if !bytes.Equal(got, expected) {
			t.Fatalf("Get[%d] = %q, want %q", i, got, expected)
		}
	}

	t.Logf("✓ Set and Get %d key-value pairs", count)
}

// TestKVGetNonExistent tests getting a non-existent key.
// Verifies that Get returns nil for keys that don't exist.
func TestKVGetNonExistent(t *testing.T) {
	db := open(t)

	got, err := db.Get([]byte("nonexistent"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got != nil {
		t.Fatalf("Get non-existent key = %q, want nil", got)
	}

	t.Log("✓ Get non-existent key returns nil")
}

// TestKVOverwrite tests overwriting an existing key.
// Sets a key twice with different values and verifies the latest value is returned.
func TestKVOverwrite(t *testing.T) {
	db := open(t)

	key := []byte("key")
	val1 := []byte("value1")
	val2 := []byte("value2")

	if err := db.Set(key, val1); err != nil {
		t.Fatalf("Set first: %v", err)
	}
	if err := db.Set(key, val2); err != nil {
		t.Fatalf("Set second: %v", err)
	}

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if !bytes.Equal(got, val2) {
		t.Fatalf("Get after overwrite = %q, want %q", got, val2)
	}
	if db.Len() != 1 {
		t.Fatalf("Len after overwrite = %d, want 1", db.Len())
	}

	t.Logf("✓ Overwrite: key=%q old=%q new=%q", key, val1, val2)
}

// TestKVDelete tests removing keys.
// Deletes a present key, then a missing one, and verifies both outcomes.
func TestKVDelete(t *testing.T) {
	db := open(t)

	key := []byte("key")
	if err := db.Set(key, []byte("value")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := db.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := db.Get(key); got != nil {
		t.Fatalf("Get after delete = %q, want nil", got)
	}
	if ok, _ := db.Has(key); ok {
		t.Fatal("Has after delete = true")
	}

	if err := db.Delete([]byte("missing")); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}

	t.Log("✓ Delete removes keys and tolerates missing ones")
}

// TestKVReopen tests that the store survives a close and reopen.
// Writes data, closes the file, opens the same path and verifies.
func TestKVReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.kv")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open first: %v", err)
	}

	count := 20
	for i := range count {
		key := fmt.Appendf(nil, "key-%02d", i)
		val := fmt.Appendf(nil, "val-%02d", i)
		if err := db.Set(key, val); err != nil {
			t.Fatalf("Set[%d]: %v", i, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close first: %v", err)
	}

	db, err = Open(path)
	if err != nil {
		t.Fatalf("Open second: %v", err)
	}
	defer db.Close()

	if db.Len() != uint64(count) {
		t.Fatalf("Len after reopen = %d, want %d", db.Len(), count)
	}
	for i := range count {
		key := fmt.Appendf(nil, "key-%02d", i)
		expected := fmt.Appendf(nil, "val-%02d", i)

		got, err := db.Get(key)
		if err != nil {
			t.Fatalf("Get[%d] after reopen: %v", i, err)
		}

		if !bytes.Equal(got, expected) {
			t.Fatalf("Get[%d] after reopen = %q, want %q", i, got, expected)
		}
	}

	t.Logf("✓ Saved, reopened and verified %d key-value pairs", count)
}

// TestKVIterSorted tests iteration order over random words.
// Inserts faker words and verifies the cursor walks them in order.
func TestKVIterSorted(t *testing.T) {
	db := open(t)

	seen := make(map[string]bool)
	for range 200 {
		word := faker.Word()
		if seen[word] {
			continue
		}
		seen[word] = true
		if err := db.Set([]byte(word), []byte("x")); err != nil {
			t.Fatalf("Set(%q): %v", word, err)
		}
	}

	want := make([]string, 0, len(seen))
	for word := range seen {
		want = append(want, word)
	}
	slices.Sort(want)

	var got []string
	it := db.Iter()
	for ; it.Valid(); it.Next() {
		got = append(got, string(it.Key()))
	}
	if err := it.Error(); err != nil {
		t.Fatalf("iterate: %v", err)
	}

	if !slices.Equal(got, want) {
		t.Fatalf("iteration order:\n got %v\nwant %v", got, want)
	}

	t.Logf("✓ %d words iterate in sorted order", len(want))
}

// TestKVRangeScan tests bounded scans.
// Verifies inclusive and exclusive bounds and the predecessor cursor.
func TestKVRangeScan(t *testing.T) {
	db := open(t)

	for _, k := range []string{"ant", "bee", "cat", "dog", "elk", "fox"} {
		if err := db.Set([]byte(k), []byte("x")); err != nil {
			t.Fatalf("Set(%q): %v", k, err)
		}
	}

	scan := func(it *Iter) (keys []string) {
		t.Helper()
		for ; it.Valid(); it.Next() {
			keys = append(keys, string(it.Key()))
		}
		if err := it.Error(); err != nil {
			t.Fatalf("scan: %v", err)
		}
		return
	}

	got := scan(db.Range(Include([]byte("bee")), Exclude([]byte("elk"))))
	if !slices.Equal(got, []string{"bee", "cat", "dog"}) {
		t.Fatalf("Range = %v", got)
	}

	got = scan(db.Range(Exclude([]byte("bee")), Unbounded()))
	if !slices.Equal(got, []string{"cat", "dog", "elk", "fox"}) {
		t.Fatalf("Range open upper = %v", got)
	}

	got = scan(db.IterUpperBound([]byte("dog")))
	if !slices.Equal(got, []string{"cat", "dog", "elk", "fox"}) {
		t.Fatalf("IterUpperBound = %v", got)
	}

	t.Log("✓ bounded scans and the predecessor cursor work")
}

// TestKVFirstLastPop tests the edge entry helpers.
// Checks First, Last, PopFirst and PopLast against a known set.
func TestKVFirstLastPop(t *testing.T) {
	db := open(t)

	if key, _, err := db.First(); err != nil || key != nil {
		t.Fatalf("First on empty = %q %v", key, err)
	}

	for _, k := range []string{"b", "d", "a", "c"} {
		if err := db.Set([]byte(k), []byte(k)); err != nil {
			t.Fatalf("Set(%q): %v", k, err)
		}
	}

	if key, _, err := db.First(); err != nil || string(key) != "a" {
		t.Fatalf("First = %q %v", key, err)
	}
	if key, _, err := db.Last(); err != nil || string(key) != "d" {
		t.Fatalf("Last = %q %v", key, err)
	}

	if key, _, err := db.PopFirst(); err != nil || string(key) != "a" {
		t.Fatalf("PopFirst = %q %v", key, err)
	}
	if key, _, err := db.PopLast(); err != nil || string(key) != "d" {
		t.Fatalf("PopLast = %q %v", key, err)
	}
	if db.Len() != 2 {
		t.Fatalf("Len after pops = %d", db.Len())
	}

	t.Log("✓ first, last and pops agree with the key order")
}

// TestKVCompressedValue tests the value size bound under compression.
// A large repetitive value fits, an incompressible one is rejected.
func TestKVCompressedValue(t *testing.T) {
	db := open(t)

	repetitive := bytes.Repeat([]byte("data"), 8192)
	if err := db.Set([]byte("big"), repetitive); err != nil {
		t.Fatalf("Set repetitive 32KB: %v", err)
	}
	got, err := db.Get([]byte("big"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, repetitive) {
		t.Fatal("repetitive value mismatch")
	}

	noise := make([]byte, 2*MaxValSize)
	if _, err := rand.Read(noise); err != nil {
		t.Fatalf("rand: %v", err)
	}
	if err := db.Set([]byte("noise"), noise); !errors.Is(err, ErrValueTooLarge) {
		t.Fatalf("Set incompressible: %v, want ErrValueTooLarge", err)
	}

	t.Log("✓ compression stretches the value bound, noise does not fit")
}

// TestKVEmptyValue tests storing empty values.
// Sets a key with an empty byte slice and retrieves it.
func TestKVEmptyValue(t *testing.T) {
	db := open(t)

	key := []byte("empty")
	if err := db.Set(key, []byte{}); err != nil {
		t.Fatalf("Set empty: %v", err)
	}

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get empty: %v", err)
	}
	if got == nil {
		t.Fatal("Get empty value = nil, want empty slice")
	}
	if len(got) != 0 {
		t.Fatalf("Get empty value = %q", got)
	}

	t.Log("✓ Empty value stored and retrieved")
}

// TestKVClear tests wiping the store.
// Fills, clears and verifies the store is empty but still usable.
func TestKVClear(t *testing.T) {
	db := open(t)

	for i := range 50 {
		if err := db.Set(fmt.Appendf(nil, "k%02d", i), []byte("v")); err != nil {
			t.Fatalf("Set[%d]: %v", i, err)
		}
	}

	if err := db.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if db.Len() != 0 {
		t.Fatalf("Len after Clear = %d", db.Len())
	}
	if err := db.Set([]byte("again"), []byte("works")); err != nil {
		t.Fatalf("Set after Clear: %v", err)
	}

	t.Log("✓ Clear empties the store and keeps it usable")
}
